package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
	"gorm.io/gorm"
)

// gormTransactionContext GORM 事務上下文
type gormTransactionContext interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// ===========================
// LedgerRepositoryImpl
// ===========================

// LedgerRepositoryImpl 兌付台帳倉儲實現（GORM）
//
// 設計原則：
// - 實作 ledger.LedgerRepository 介面
// - 冪等性下沉到存儲引擎：InsertPending 依賴 (loyalty_id,
//   reward_tier) 複合唯一索引的原子插入，絕不 check-then-insert
// - 狀態定案用條件 UPDATE（WHERE status = ...）：不在目標狀態的
//   行 RowsAffected 為 0，按契約靜默 no-op
// - 將 GORM 錯誤轉換為 Domain 錯誤
type LedgerRepositoryImpl struct {
	db *gorm.DB
}

// NewLedgerRepository 創建兌付台帳倉儲實例
func NewLedgerRepository(db *gorm.DB) ledger.LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

// InsertPending 原子插入一條 PENDING 行
//
// 錯誤處理：
// - UNIQUE constraint 違反（該 (loyalty_id, tier) 已有行）
//   → ErrDuplicateTier（調用方視為「已被處理」）
// - 其他資料庫錯誤 → 原始錯誤
func (r *LedgerRepositoryImpl) InsertPending(ctx shared.TransactionContext, entry *ledger.LedgerEntry) error {
	db := r.getDB(ctx)

	result := db.Create(toGORM(entry))
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return ledger.ErrDuplicateTier.WithContext(
				"loyalty_id", entry.LoyaltyID(),
				"reward_tier", entry.RewardTier(),
			)
		}
		return result.Error
	}

	return nil
}

// MarkCompleted 條件更新：PENDING → COMPLETED
//
// 實作：單條 UPDATE 帶狀態守衛。行不存在或不在 PENDING 時
// RowsAffected 為 0——按契約這是 no-op，不是錯誤（防止競爭的
// 重試破壞剛完成的行）。
func (r *LedgerRepositoryImpl) MarkCompleted(ctx shared.TransactionContext, reference ledger.Reference, depositID string) error {
	db := r.getDB(ctx)

	result := db.Model(&LedgerEntryGORM{}).
		Where("reference = ? AND status = ?", reference.String(), ledger.StatusPending.String()).
		Updates(map[string]interface{}{
			"status":         ledger.StatusCompleted.String(),
			"deposit_id":     depositID,
			"failure_reason": "",
			"updated_at":     time.Now(),
		})

	return result.Error
}

// MarkFailed 條件更新：PENDING → FAILED
// 行不在 PENDING 時為 no-op
func (r *LedgerRepositoryImpl) MarkFailed(ctx shared.TransactionContext, reference ledger.Reference, failureReason string) error {
	db := r.getDB(ctx)

	result := db.Model(&LedgerEntryGORM{}).
		Where("reference = ? AND status = ?", reference.String(), ledger.StatusPending.String()).
		Updates(map[string]interface{}{
			"status":         ledger.StatusFailed.String(),
			"failure_reason": truncateReason(failureReason),
			"updated_at":     time.Now(),
		})

	return result.Error
}

// MarkRetrying 條件更新：FAILED → PENDING（sweep 重試入口）
// 行不在 FAILED 時為 no-op
func (r *LedgerRepositoryImpl) MarkRetrying(ctx shared.TransactionContext, reference ledger.Reference) error {
	db := r.getDB(ctx)

	result := db.Model(&LedgerEntryGORM{}).
		Where("reference = ? AND status = ?", reference.String(), ledger.StatusFailed.String()).
		Updates(map[string]interface{}{
			"status":     ledger.StatusPending.String(),
			"updated_at": time.Now(),
		})

	return result.Error
}

// HighestRecordedTier 查詢該卡已記錄的最高 tier
//
// 只統計 COMPLETED 與 PENDING 行（FAILED 行的 tier 留給 sweep
// 結清後才算數）。無行時返回 0。
func (r *LedgerRepositoryImpl) HighestRecordedTier(ctx shared.TransactionContext, loyaltyID string) (int, error) {
	db := r.getDB(ctx)

	var highest int
	err := db.Model(&LedgerEntryGORM{}).
		Select("COALESCE(MAX(reward_tier), 0)").
		Where("loyalty_id = ? AND status IN ?", loyaltyID, []string{
			ledger.StatusCompleted.String(),
			ledger.StatusPending.String(),
		}).
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}

	return highest, nil
}

// FindByReference 按冪等鍵查詢單行
//
// 錯誤處理：
// - gorm.ErrRecordNotFound → ledger.ErrEntryNotFound
// - 其他資料庫錯誤 → 原始錯誤
func (r *LedgerRepositoryImpl) FindByReference(ctx shared.TransactionContext, reference ledger.Reference) (*ledger.LedgerEntry, error) {
	db := r.getDB(ctx)

	var gormModel LedgerEntryGORM
	result := db.Where("reference = ?", reference.String()).First(&gormModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrEntryNotFound.WithContext(
				"reference", reference.String(),
			)
		}
		return nil, result.Error
	}

	return gormModel.toDomain()
}

// FindByLoyaltyID 查詢該卡的全部台帳行（按 tier 升序）
// 無行時返回空切片
func (r *LedgerRepositoryImpl) FindByLoyaltyID(ctx shared.TransactionContext, loyaltyID string) ([]*ledger.LedgerEntry, error) {
	db := r.getDB(ctx)

	var gormModels []LedgerEntryGORM
	result := db.Where("loyalty_id = ?", loyaltyID).
		Order("reward_tier ASC").
		Find(&gormModels)
	if result.Error != nil {
		return nil, result.Error
	}

	return toDomainSlice(gormModels)
}

// ListStuck 查詢卡住的行：PENDING 或 FAILED 且 updated_at 早於 cutoff
// 返回順序：loyalty_id 升序、reward_tier 升序（sweep 依此結清）
func (r *LedgerRepositoryImpl) ListStuck(ctx shared.TransactionContext, cutoff time.Time) ([]*ledger.LedgerEntry, error) {
	db := r.getDB(ctx)

	var gormModels []LedgerEntryGORM
	result := db.Where("status IN ? AND updated_at < ?", []string{
		ledger.StatusPending.String(),
		ledger.StatusFailed.String(),
	}, cutoff).
		Order("loyalty_id ASC, reward_tier ASC").
		Find(&gormModels)
	if result.Error != nil {
		return nil, result.Error
	}

	return toDomainSlice(gormModels)
}

// ===========================
// Helper Methods
// ===========================

// getDB 獲取 GORM DB 實例
// ctx != nil 時使用事務中的 DB，否則使用預設 DB（auto-commit）
func (r *LedgerRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	if ctx != nil {
		if txCtx, ok := ctx.(gormTransactionContext); ok {
			return txCtx.GetDB()
		}
	}
	return r.db
}

// toDomainSlice 批次轉換 GORM 模型為 Domain 聚合
func toDomainSlice(gormModels []LedgerEntryGORM) ([]*ledger.LedgerEntry, error) {
	entries := make([]*ledger.LedgerEntry, 0, len(gormModels))
	for i := range gormModels {
		entry, err := gormModels[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// truncateReason 截斷過長的失敗摘要（欄位上限 512 字符）
func truncateReason(reason string) string {
	const maxLen = 512
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}

// isUniqueConstraintError 判斷是否為唯一約束錯誤
//
// 支持的資料庫：
// - PostgreSQL: "duplicate key value violates unique constraint"
// - SQLite: "UNIQUE constraint failed"
// - MySQL: "Duplicate entry"
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	// PostgreSQL
	if strings.Contains(errMsg, "duplicate key value violates unique constraint") {
		return true
	}

	// SQLite
	if strings.Contains(errMsg, "unique constraint failed") {
		return true
	}

	// MySQL
	if strings.Contains(errMsg, "duplicate entry") {
		return true
	}

	return false
}
