package reconcile

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
)

// ===========================
// GetLedgerStatus Use Case
// ===========================

// LedgerEntryView 台帳行的只讀視圖（操作員 / 健康檢查用 DTO）
type LedgerEntryView struct {
	LoyaltyID     string
	RewardTier    int
	POSAccountID  string
	CreditAmount  string // 格式化金額（如 "R40.00"）
	Reference     string
	Status        string
	DepositID     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetLedgerStatusUseCase 台帳狀態查詢 Use Case
//
// 只讀操作：不觸發任何對帳或重試，單純把某張卡的全部台帳行
// 轉為 DTO 返回。供被排除的 HTTP 層實作操作員查詢端點。
type GetLedgerStatusUseCase struct {
	ledgerRepo ledger.LedgerRepository
}

// NewGetLedgerStatusUseCase 創建 Use Case 實例
func NewGetLedgerStatusUseCase(ledgerRepo ledger.LedgerRepository) *GetLedgerStatusUseCase {
	return &GetLedgerStatusUseCase{ledgerRepo: ledgerRepo}
}

// Execute 查詢某張卡的全部台帳行（按 tier 升序）
//
// 無行時返回空切片（卡從未觸發過入帳，不是錯誤）。
func (uc *GetLedgerStatusUseCase) Execute(loyaltyID string) ([]LedgerEntryView, error) {
	entries, err := uc.ledgerRepo.FindByLoyaltyID(nil, loyaltyID)
	if err != nil {
		return nil, reward.ErrStoreUnavailable.WithContext(
			"operation", "find_by_loyalty_id",
			"loyalty_id", loyaltyID,
			"cause", err.Error(),
		)
	}

	views := make([]LedgerEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, LedgerEntryView{
			LoyaltyID:     entry.LoyaltyID(),
			RewardTier:    entry.RewardTier(),
			POSAccountID:  entry.POSAccountID(),
			CreditAmount:  entry.CreditAmount().String(),
			Reference:     entry.Reference().String(),
			Status:        entry.Status().String(),
			DepositID:     entry.DepositID(),
			FailureReason: entry.FailureReason(),
			CreatedAt:     entry.CreatedAt(),
			UpdatedAt:     entry.UpdatedAt(),
		})
	}

	return views, nil
}
