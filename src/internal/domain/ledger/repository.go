package ledger

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// LedgerRepository 介面
// ===========================

// LedgerRepository 兌付台帳倉儲介面
//
// 設計原則：
// 1. 依賴倒置原則（DIP）：Domain Layer 定義介面，Infrastructure 實作
// 2. 冪等性契約：InsertPending 的原子「插入或衝突」是整個系統
//    至多一次入帳的基石——實作必須把 (loyaltyID, rewardTier) 的
//    唯一約束下沉到存儲引擎，不得用 check-then-insert 模擬
// 3. 條件更新：MarkCompleted / MarkFailed 只在行處於 PENDING 時生效，
//    否則靜默 no-op（防止競爭的重試破壞剛完成的行）
//
// 錯誤約定：
// - 唯一約束衝突 → ErrDuplicateTier
// - 行不存在 → ErrEntryNotFound（僅限按鍵查詢方法）
// - 其他存儲錯誤 → 包裝後向上傳播（上層歸類為 StoreUnavailable）
type LedgerRepository interface {
	// InsertPending 原子插入一條 PENDING 行
	// 前置條件：entry.Status() == PENDING
	// 錯誤：ErrDuplicateTier（該 (loyaltyID, tier) 已有行，任何狀態）
	InsertPending(ctx shared.TransactionContext, entry *LedgerEntry) error

	// MarkCompleted 條件更新：reference 對應的行 PENDING → COMPLETED
	// 行不在 PENDING 時為 no-op（返回 nil）
	MarkCompleted(ctx shared.TransactionContext, reference Reference, depositID string) error

	// MarkFailed 條件更新：reference 對應的行 PENDING → FAILED
	// 行不在 PENDING 時為 no-op（返回 nil）
	MarkFailed(ctx shared.TransactionContext, reference Reference, failureReason string) error

	// MarkRetrying 條件更新：reference 對應的行 FAILED → PENDING
	// sweep 重試入口；行不在 FAILED 時為 no-op（返回 nil）
	MarkRetrying(ctx shared.TransactionContext, reference Reference) error

	// HighestRecordedTier 查詢該卡已記錄的最高 tier
	// 只統計 COMPLETED 與 PENDING 行（FAILED 行不算「已記錄」，
	// 它的 tier 必須先由 sweep 結清，引擎才能越過它——
	// 這是順序保證的一半，另一半是 InsertPending 衝突時的中止邏輯）
	// 無行時返回 0
	HighestRecordedTier(ctx shared.TransactionContext, loyaltyID string) (int, error)

	// FindByReference 按冪等鍵查詢單行
	// 錯誤：ErrEntryNotFound
	FindByReference(ctx shared.TransactionContext, reference Reference) (*LedgerEntry, error)

	// FindByLoyaltyID 查詢該卡的全部台帳行（按 tier 升序）
	// 操作員 / 健康檢查用；無行時返回空切片
	FindByLoyaltyID(ctx shared.TransactionContext, loyaltyID string) ([]*LedgerEntry, error)

	// ListStuck 查詢卡住的行：PENDING 或 FAILED 且 updatedAt 早於 cutoff
	// 返回順序：loyaltyID 升序、tier 升序（sweep 依此順序結清）
	ListStuck(ctx shared.TransactionContext, cutoff time.Time) ([]*LedgerEntry, error)
}
