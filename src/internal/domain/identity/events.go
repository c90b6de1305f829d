package identity

import (
	"time"

	"github.com/google/uuid"
)

// ===========================
// IdentityMapping 領域事件
// ===========================

// MappingCreatedEvent 身份映射創建事件
type MappingCreatedEvent struct {
	eventID      string
	mappingID    MappingID
	loyaltyID    string
	posAccountID string
	occurredAt   time.Time
}

// NewMappingCreatedEvent 創建身份映射創建事件
func NewMappingCreatedEvent(mappingID MappingID, loyaltyID, posAccountID string) *MappingCreatedEvent {
	return &MappingCreatedEvent{
		eventID:      uuid.New().String(),
		mappingID:    mappingID,
		loyaltyID:    loyaltyID,
		posAccountID: posAccountID,
		occurredAt:   time.Now(),
	}
}

// EventID 實現 DomainEvent 介面
func (e *MappingCreatedEvent) EventID() string {
	return e.eventID
}

// EventType 實現 DomainEvent 介面
func (e *MappingCreatedEvent) EventType() string {
	return "identity.mapping_created"
}

// OccurredAt 實現 DomainEvent 介面
func (e *MappingCreatedEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// AggregateID 實現 DomainEvent 介面
func (e *MappingCreatedEvent) AggregateID() string {
	return e.mappingID.String()
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (e *MappingCreatedEvent) LoyaltyID() string {
	return e.loyaltyID
}

// POSAccountID 獲取 POS 帳戶 ID
func (e *MappingCreatedEvent) POSAccountID() string {
	return e.posAccountID
}
