package ledger

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// EntryID - 台帳行 ID
// ===========================

// EntryMarker 是 EntryID 的標記類型
type EntryMarker struct{}

// EntryID 台帳行的唯一標識符
//
// 注意：EntryID 是代理鍵，只用於持久化定位。
// 業務身份是 (loyaltyID, rewardTier)——冪等性掛在這對鍵的
// 唯一約束上，不掛在 EntryID 上。
type EntryID = shared.EntityID[EntryMarker]

// NewEntryID 生成新的台帳行 ID（UUID v4）
func NewEntryID() EntryID {
	return shared.NewEntityID[EntryMarker]()
}

// EntryIDFromString 從字串解析台帳行 ID
func EntryIDFromString(s string) (EntryID, error) {
	return shared.EntityIDFromString[EntryMarker](s, ErrInvalidEntryID)
}

// ===========================
// LedgerEntry 聚合根
// ===========================

// LedgerEntry 兌付台帳行聚合根
//
// 語義：每行對應一個 (loyaltyID, rewardTier) 對——「該卡的第 k 份
// 獎勵」的一次性結算記錄。行一旦創建即永久存在，是該筆儲值
// （或儲值嘗試）的不可變審計記錄。
//
// 業務不變條件：
// 1. rewardTier >= 1（tier k 表示該卡累計獲得的第 k 份獎勵）
// 2. (loyaltyID, rewardTier) 全局唯一（跨所有狀態）——由存儲層的
//    唯一約束強制執行，這正是「每 tier 至多入帳一次」的機制
// 3. reference 由 (loyaltyID, rewardTier) 確定性導出
// 4. depositID 僅在 COMPLETED 時設置
// 5. 狀態轉換只能沿狀態機：PENDING → {COMPLETED, FAILED}，
//    FAILED → PENDING（sweep 重試，同一行重入）
//
// 設計原則：
// - Tell, Don't Ask：狀態轉換封裝為命令方法，守衛在方法內強制
// - 事件驅動：轉換成功即記錄領域事件，由上層 PullEvents 發布
type LedgerEntry struct {
	// 識別欄位
	entryID    EntryID
	loyaltyID  string
	rewardTier int

	// 結算數據
	posAccountID  string
	creditAmount  reward.CreditAmount
	reference     Reference
	status        Status
	depositID     string
	failureReason string

	// 審計欄位
	createdAt time.Time
	updatedAt time.Time

	// 待發布的領域事件
	events []shared.DomainEvent
}

// NewPendingEntry 創建新的 PENDING 台帳行（工廠方法）
//
// 參數：
//   loyaltyID - Loopy 卡識別碼
//   rewardTier - 結算的累積獎勵序號（>= 1）
//   posAccountID - 已解析的 POS 帳戶 ID
//   creditAmount - 儲值金額
//
// 返回：
//   *LedgerEntry - 新創建的 PENDING 行（reference 已確定性導出）
//   error - ErrInvalidEntry（參數違反建構約束）
//
// 重要：調用順序是「先記錄意圖，後入帳」。行在儲值調用之前寫入，
// 崩潰發生在兩步之間時行以 PENDING 留存，sweep 從行恢復，
// 而不是由新一輪對帳重新發起儲值——這就是不會重複入帳的原因。
func NewPendingEntry(
	loyaltyID string,
	rewardTier int,
	posAccountID string,
	creditAmount reward.CreditAmount,
) (*LedgerEntry, error) {
	if loyaltyID == "" {
		return nil, ErrInvalidEntry.WithContext(
			"reason", "loyaltyID cannot be empty",
		)
	}
	if rewardTier < 1 {
		return nil, ErrInvalidEntry.WithContext(
			"reason", "rewardTier must be >= 1",
			"reward_tier", rewardTier,
		)
	}
	if posAccountID == "" {
		return nil, ErrInvalidEntry.WithContext(
			"reason", "posAccountID cannot be empty",
			"loyalty_id", loyaltyID,
		)
	}

	now := time.Now()

	entry := &LedgerEntry{
		entryID:      NewEntryID(),
		loyaltyID:    loyaltyID,
		rewardTier:   rewardTier,
		posAccountID: posAccountID,
		creditAmount: creditAmount,
		reference:    NewReference(loyaltyID, rewardTier),
		status:       StatusPending,
		createdAt:    now,
		updatedAt:    now,
		events:       make([]shared.DomainEvent, 0),
	}

	return entry, nil
}

// ===========================
// 查詢方法（Getters）
// ===========================
//
// 供 Repository 持久化與 Application Layer DTO 轉換使用；
// 業務判斷應走命令方法，不應在外部用 getter 組裝狀態機邏輯。

// EntryID 獲取台帳行 ID
func (e *LedgerEntry) EntryID() EntryID {
	return e.entryID
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (e *LedgerEntry) LoyaltyID() string {
	return e.loyaltyID
}

// RewardTier 獲取獎勵 tier 序號
func (e *LedgerEntry) RewardTier() int {
	return e.rewardTier
}

// POSAccountID 獲取 POS 帳戶 ID
func (e *LedgerEntry) POSAccountID() string {
	return e.posAccountID
}

// CreditAmount 獲取儲值金額
func (e *LedgerEntry) CreditAmount() reward.CreditAmount {
	return e.creditAmount
}

// Reference 獲取冪等鍵
func (e *LedgerEntry) Reference() Reference {
	return e.reference
}

// Status 獲取當前狀態
func (e *LedgerEntry) Status() Status {
	return e.status
}

// DepositID 獲取外部確認 ID（僅 COMPLETED 時非空）
func (e *LedgerEntry) DepositID() string {
	return e.depositID
}

// FailureReason 獲取最近一次失敗摘要（僅 FAILED 時有意義）
func (e *LedgerEntry) FailureReason() string {
	return e.failureReason
}

// CreatedAt 獲取創建時間
func (e *LedgerEntry) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt 獲取最後更新時間
func (e *LedgerEntry) UpdatedAt() time.Time {
	return e.updatedAt
}

// ===========================
// 命令方法（狀態變更）
// ===========================

// MarkCompleted 將行標記為 COMPLETED
//
// 前置條件：行處於 PENDING（守衛防止競爭中的重試
// 覆寫一個剛完成的行）
//
// 參數：
//   depositID - POS 端返回的外部確認 ID
//
// 副作用：
// - status → COMPLETED，記錄 depositID，清空 failureReason
// - 更新 updatedAt
// - 發布 EntryCompletedEvent
func (e *LedgerEntry) MarkCompleted(depositID string) error {
	if e.status != StatusPending {
		return ErrEntryNotPending.WithContext(
			"reference", e.reference.String(),
			"status", e.status.String(),
		)
	}
	if depositID == "" {
		return ErrInvalidEntry.WithContext(
			"reason", "depositID cannot be empty on completion",
			"reference", e.reference.String(),
		)
	}

	e.status = StatusCompleted
	e.depositID = depositID
	e.failureReason = ""
	e.updatedAt = time.Now()

	e.addEvent(NewEntryCompletedEvent(e.entryID, e.loyaltyID, e.rewardTier, depositID))

	return nil
}

// MarkFailed 將行標記為 FAILED
//
// 前置條件：行處於 PENDING
//
// 參數：
//   reason - 失敗摘要（審計用，如上游錯誤訊息）
//
// 副作用：
// - status → FAILED，記錄 failureReason
// - 更新 updatedAt
// - 發布 EntryFailedEvent
//
// FAILED 不是終態：sweep 會以同一行、同一 reference 重試。
func (e *LedgerEntry) MarkFailed(reason string) error {
	if e.status != StatusPending {
		return ErrEntryNotPending.WithContext(
			"reference", e.reference.String(),
			"status", e.status.String(),
		)
	}

	e.status = StatusFailed
	e.failureReason = reason
	e.updatedAt = time.Now()

	e.addEvent(NewEntryFailedEvent(e.entryID, e.loyaltyID, e.rewardTier, reason))

	return nil
}

// MarkRetrying 將 FAILED 行重入 PENDING（sweep 重試入口）
//
// 前置條件：行處於 FAILED
//
// 重要：重試發生在同一行——reference 不變，(loyaltyID, tier) 不變。
// 永不為同一 tier 創建第二行。
func (e *LedgerEntry) MarkRetrying() error {
	if e.status != StatusFailed {
		return ErrEntryNotFailed.WithContext(
			"reference", e.reference.String(),
			"status", e.status.String(),
		)
	}

	e.status = StatusPending
	e.updatedAt = time.Now()

	return nil
}

// ===========================
// 事件管理
// ===========================

// addEvent 添加領域事件到待發布列表（私有方法）
func (e *LedgerEntry) addEvent(event shared.DomainEvent) {
	e.events = append(e.events, event)
}

// PullEvents 獲取所有待發布事件並清空列表
//
// 使用場景：Repository 寫入成功後，Application Layer 調用此方法
// 獲取事件並發布。Pull 模式：聚合根不依賴 EventPublisher。
func (e *LedgerEntry) PullEvents() []shared.DomainEvent {
	events := e.events
	e.events = make([]shared.DomainEvent, 0)
	return events
}

// ===========================
// 聚合重建方法（僅供 Infrastructure Layer 使用）
// ===========================

// ReconstructLedgerEntry 從持久化存儲重建台帳行
//
// 與 NewPendingEntry 的區別：
// - New: 創建新行，狀態固定 PENDING，導出 reference
// - Reconstruct: 重建已存在的行，不發布事件（事件已發生過）
//
// 重要：即使是從資料庫重建，也驗證不變條件——
// 損壞的行返回 ErrCorruptedEntry，不讓髒資料污染領域層。
func ReconstructLedgerEntry(
	entryID EntryID,
	loyaltyID string,
	rewardTier int,
	posAccountID string,
	creditAmount reward.CreditAmount,
	reference Reference,
	status Status,
	depositID string,
	failureReason string,
	createdAt time.Time,
	updatedAt time.Time,
) (*LedgerEntry, error) {
	if entryID.IsEmpty() {
		return nil, ErrCorruptedEntry.WithContext(
			"reason", "empty entry ID in database",
		)
	}
	if loyaltyID == "" || rewardTier < 1 {
		return nil, ErrCorruptedEntry.WithContext(
			"loyalty_id", loyaltyID,
			"reward_tier", rewardTier,
		)
	}
	if !status.IsValid() {
		return nil, ErrCorruptedEntry.WithContext(
			"reason", "unknown status value",
			"status", string(status),
		)
	}
	// depositID 僅在 COMPLETED 時允許非空
	if status != StatusCompleted && depositID != "" {
		return nil, ErrCorruptedEntry.WithContext(
			"reason", "depositID set on non-completed entry",
			"reference", reference.String(),
			"status", status.String(),
		)
	}

	return &LedgerEntry{
		entryID:       entryID,
		loyaltyID:     loyaltyID,
		rewardTier:    rewardTier,
		posAccountID:  posAccountID,
		creditAmount:  creditAmount,
		reference:     reference,
		status:        status,
		depositID:     depositID,
		failureReason: failureReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		events:        make([]shared.DomainEvent, 0),
	}, nil
}
