package ledger

import (
	"time"

	"github.com/google/uuid"
)

// ===========================
// LedgerEntry 領域事件
// ===========================

// EntryCompletedEvent 儲值入帳完成事件
type EntryCompletedEvent struct {
	eventID    string
	entryID    EntryID
	loyaltyID  string
	rewardTier int
	depositID  string
	occurredAt time.Time
}

// NewEntryCompletedEvent 創建入帳完成事件
func NewEntryCompletedEvent(entryID EntryID, loyaltyID string, rewardTier int, depositID string) *EntryCompletedEvent {
	return &EntryCompletedEvent{
		eventID:    uuid.New().String(),
		entryID:    entryID,
		loyaltyID:  loyaltyID,
		rewardTier: rewardTier,
		depositID:  depositID,
		occurredAt: time.Now(),
	}
}

// EventID 實現 DomainEvent 介面
func (e *EntryCompletedEvent) EventID() string {
	return e.eventID
}

// EventType 實現 DomainEvent 介面
func (e *EntryCompletedEvent) EventType() string {
	return "ledger.entry_completed"
}

// OccurredAt 實現 DomainEvent 介面
func (e *EntryCompletedEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// AggregateID 實現 DomainEvent 介面
func (e *EntryCompletedEvent) AggregateID() string {
	return e.entryID.String()
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (e *EntryCompletedEvent) LoyaltyID() string {
	return e.loyaltyID
}

// RewardTier 獲取獎勵 tier 序號
func (e *EntryCompletedEvent) RewardTier() int {
	return e.rewardTier
}

// DepositID 獲取外部確認 ID
func (e *EntryCompletedEvent) DepositID() string {
	return e.depositID
}

// ===========================
// EntryFailed 領域事件
// ===========================

// EntryFailedEvent 儲值入帳失敗事件
type EntryFailedEvent struct {
	eventID    string
	entryID    EntryID
	loyaltyID  string
	rewardTier int
	reason     string
	occurredAt time.Time
}

// NewEntryFailedEvent 創建入帳失敗事件
func NewEntryFailedEvent(entryID EntryID, loyaltyID string, rewardTier int, reason string) *EntryFailedEvent {
	return &EntryFailedEvent{
		eventID:    uuid.New().String(),
		entryID:    entryID,
		loyaltyID:  loyaltyID,
		rewardTier: rewardTier,
		reason:     reason,
		occurredAt: time.Now(),
	}
}

// EventID 實現 DomainEvent 介面
func (e *EntryFailedEvent) EventID() string {
	return e.eventID
}

// EventType 實現 DomainEvent 介面
func (e *EntryFailedEvent) EventType() string {
	return "ledger.entry_failed"
}

// OccurredAt 實現 DomainEvent 介面
func (e *EntryFailedEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// AggregateID 實現 DomainEvent 介面
func (e *EntryFailedEvent) AggregateID() string {
	return e.entryID.String()
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (e *EntryFailedEvent) LoyaltyID() string {
	return e.loyaltyID
}

// RewardTier 獲取獎勵 tier 序號
func (e *EntryFailedEvent) RewardTier() int {
	return e.rewardTier
}

// Reason 獲取失敗摘要
func (e *EntryFailedEvent) Reason() string {
	return e.reason
}
