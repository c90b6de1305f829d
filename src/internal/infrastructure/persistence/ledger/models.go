package ledger

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
)

// ===========================
// GORM Models
// ===========================

// LedgerEntryGORM 兌付台帳資料表模型
//
// 設計原則：
// - 僅用於 Infrastructure Layer（不暴露給 Domain Layer）
// - 與 Domain LedgerEntry 聚合分離（Mapper 轉換）
//
// 資料庫約束：
// - entry_id: 主鍵（UUID 代理鍵）
// - (loyalty_id, reward_tier): 複合唯一索引——整個系統
//   「每 tier 至多入帳一次」的物理機制，跨所有狀態生效
// - reference: 唯一索引（由 (loyalty_id, reward_tier) 確定性導出，
//   理論上冗餘，保留它讓按冪等鍵的對賬查詢走索引）
// - credit_amount_cents: 金額以整數分值持久化，避免小數類型
//   在不同資料庫間的語義差異
type LedgerEntryGORM struct {
	// 識別欄位
	EntryID    string `gorm:"column:entry_id;type:varchar(36);primaryKey"`
	LoyaltyID  string `gorm:"column:loyalty_id;type:varchar(64);not null;uniqueIndex:idx_ledger_loyalty_tier,priority:1;index:idx_ledger_loyalty"`
	RewardTier int    `gorm:"column:reward_tier;not null;uniqueIndex:idx_ledger_loyalty_tier,priority:2;check:reward_tier >= 1"`

	// 結算數據
	POSAccountID      string `gorm:"column:pos_account_id;type:varchar(64);not null"`
	CreditAmountCents int64  `gorm:"column:credit_amount_cents;not null;check:credit_amount_cents > 0"`
	Reference         string `gorm:"column:reference;type:varchar(128);uniqueIndex;not null"`
	Status            string `gorm:"column:status;type:varchar(16);not null;index:idx_ledger_status"`
	DepositID         string `gorm:"column:deposit_id;type:varchar(64)"`
	FailureReason     string `gorm:"column:failure_reason;type:varchar(512)"`

	// 審計欄位
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index:idx_ledger_updated_at"`
}

// TableName 指定資料表名稱
func (LedgerEntryGORM) TableName() string {
	return "ledger_entries"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 聚合
//
// 轉換失敗（ID 解析失敗、金額非法、狀態未知）返回
// ledger.ErrCorruptedEntry 系錯誤——髒資料不得進入領域層。
func (g *LedgerEntryGORM) toDomain() (*ledger.LedgerEntry, error) {
	entryID, err := ledger.EntryIDFromString(g.EntryID)
	if err != nil {
		return nil, err
	}

	amount, err := reward.CreditAmountFromCents(g.CreditAmountCents)
	if err != nil {
		return nil, ledger.ErrCorruptedEntry.WithContext(
			"reason", "invalid credit amount in database",
			"credit_amount_cents", g.CreditAmountCents,
		)
	}

	return ledger.ReconstructLedgerEntry(
		entryID,
		g.LoyaltyID,
		g.RewardTier,
		g.POSAccountID,
		amount,
		ledger.ReferenceFromString(g.Reference),
		ledger.Status(g.Status),
		g.DepositID,
		g.FailureReason,
		g.CreatedAt,
		g.UpdatedAt,
	)
}

// toGORM 將 Domain 聚合轉換為 GORM 模型
func toGORM(entry *ledger.LedgerEntry) *LedgerEntryGORM {
	return &LedgerEntryGORM{
		EntryID:           entry.EntryID().String(),
		LoyaltyID:         entry.LoyaltyID(),
		RewardTier:        entry.RewardTier(),
		POSAccountID:      entry.POSAccountID(),
		CreditAmountCents: entry.CreditAmount().Cents(),
		Reference:         entry.Reference().String(),
		Status:            entry.Status().String(),
		DepositID:         entry.DepositID(),
		FailureReason:     entry.FailureReason(),
		CreatedAt:         entry.CreatedAt(),
		UpdatedAt:         entry.UpdatedAt(),
	}
}
