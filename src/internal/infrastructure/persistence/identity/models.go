package identity

import (
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/identity"
)

// ===========================
// GORM Models
// ===========================

// IdentityMappingGORM 身份映射資料表模型
//
// 資料庫約束：
// - mapping_id: 主鍵（UUID 代理鍵）
// - loyalty_id: 唯一索引——「一張卡恰好一個 POS 帳戶」的物理機制，
//   也是首次解析競爭的收斂點（輸家的 INSERT 在這裡被拒絕）
// - 映射 write-once：沒有任何代碼路徑執行 UPDATE 或 DELETE
type IdentityMappingGORM struct {
	MappingID    string    `gorm:"column:mapping_id;type:varchar(36);primaryKey"`
	LoyaltyID    string    `gorm:"column:loyalty_id;type:varchar(64);uniqueIndex;not null"`
	POSAccountID string    `gorm:"column:pos_account_id;type:varchar(64);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定資料表名稱
func (IdentityMappingGORM) TableName() string {
	return "identity_mappings"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 聚合
func (g *IdentityMappingGORM) toDomain() (*identity.IdentityMapping, error) {
	mappingID, err := identity.MappingIDFromString(g.MappingID)
	if err != nil {
		return nil, err
	}

	return identity.ReconstructIdentityMapping(
		mappingID,
		g.LoyaltyID,
		g.POSAccountID,
		g.CreatedAt,
	)
}

// toGORM 將 Domain 聚合轉換為 GORM 模型
func toGORM(mapping *identity.IdentityMapping) *IdentityMappingGORM {
	return &IdentityMappingGORM{
		MappingID:    mapping.MappingID().String(),
		LoyaltyID:    mapping.LoyaltyID(),
		POSAccountID: mapping.POSAccountID(),
		CreatedAt:    mapping.CreatedAt(),
	}
}
