package identity

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// MappingID - 身份映射 ID
// ===========================

// MappingMarker 是 MappingID 的標記類型
type MappingMarker struct{}

// MappingID 身份映射的唯一標識符（代理鍵）
type MappingID = shared.EntityID[MappingMarker]

// NewMappingID 生成新的身份映射 ID（UUID v4）
func NewMappingID() MappingID {
	return shared.NewEntityID[MappingMarker]()
}

// MappingIDFromString 從字串解析身份映射 ID
func MappingIDFromString(s string) (MappingID, error) {
	return shared.EntityIDFromString[MappingMarker](s, ErrInvalidMappingID)
}

// ===========================
// IdentityMapping 聚合根
// ===========================

// IdentityMapping 身份映射聚合根
//
// 語義：loyaltyID → posAccountID 的一對一綁定。一張 Loopy 卡在
// 系統生命週期內恰好對應一個 POS 帳戶。
//
// 業務不變條件：
// 1. loyaltyID 非空且全局唯一（由存儲層唯一約束強制）
// 2. posAccountID 非空
// 3. 寫一次即凍結（write-once）：映射一旦持久化，永不覆寫——
//    沒有任何命令方法能改變綁定，修正錯綁需要管理員介入
//
// 設計原則：
// - 聚合極小：沒有可變狀態，沒有狀態機，只有創建
// - 兩張卡共享同一個 email 也各自獨立解析，各得各的映射；
//   系統絕不隱式地把兩個 loyaltyID 合併到一個 POS 帳戶
type IdentityMapping struct {
	mappingID    MappingID
	loyaltyID    string
	posAccountID string
	createdAt    time.Time

	events []shared.DomainEvent
}

// NewIdentityMapping 創建新的身份映射（Checked Constructor）
//
// 業務規則：
// 1. loyaltyID 與 posAccountID 均不能為空
// 2. 自動生成 MappingID
// 3. 發布 MappingCreatedEvent
func NewIdentityMapping(loyaltyID, posAccountID string) (*IdentityMapping, error) {
	if loyaltyID == "" {
		return nil, ErrInvalidMapping.WithContext(
			"reason", "loyaltyID cannot be empty",
		)
	}
	if posAccountID == "" {
		return nil, ErrInvalidMapping.WithContext(
			"reason", "posAccountID cannot be empty",
			"loyalty_id", loyaltyID,
		)
	}

	mapping := &IdentityMapping{
		mappingID:    NewMappingID(),
		loyaltyID:    loyaltyID,
		posAccountID: posAccountID,
		createdAt:    time.Now(),
		events:       make([]shared.DomainEvent, 0),
	}

	mapping.addEvent(NewMappingCreatedEvent(mapping.mappingID, loyaltyID, posAccountID))

	return mapping, nil
}

// MappingID 獲取映射 ID
func (m *IdentityMapping) MappingID() MappingID {
	return m.mappingID
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (m *IdentityMapping) LoyaltyID() string {
	return m.loyaltyID
}

// POSAccountID 獲取 POS 帳戶 ID
func (m *IdentityMapping) POSAccountID() string {
	return m.posAccountID
}

// CreatedAt 獲取創建時間
func (m *IdentityMapping) CreatedAt() time.Time {
	return m.createdAt
}

// addEvent 添加領域事件到待發布列表（私有方法）
func (m *IdentityMapping) addEvent(event shared.DomainEvent) {
	m.events = append(m.events, event)
}

// PullEvents 獲取所有待發布事件並清空列表
func (m *IdentityMapping) PullEvents() []shared.DomainEvent {
	events := m.events
	m.events = make([]shared.DomainEvent, 0)
	return events
}

// ===========================
// 聚合重建方法（僅供 Infrastructure Layer 使用）
// ===========================

// ReconstructIdentityMapping 從持久化存儲重建身份映射
// 重建時驗證不變條件，不發布事件
func ReconstructIdentityMapping(
	mappingID MappingID,
	loyaltyID string,
	posAccountID string,
	createdAt time.Time,
) (*IdentityMapping, error) {
	if mappingID.IsEmpty() {
		return nil, ErrCorruptedMapping.WithContext(
			"reason", "empty mapping ID in database",
		)
	}
	if loyaltyID == "" || posAccountID == "" {
		return nil, ErrCorruptedMapping.WithContext(
			"loyalty_id", loyaltyID,
			"pos_account_id", posAccountID,
		)
	}

	return &IdentityMapping{
		mappingID:    mappingID,
		loyaltyID:    loyaltyID,
		posAccountID: posAccountID,
		createdAt:    createdAt,
		events:       make([]shared.DomainEvent, 0),
	}, nil
}
