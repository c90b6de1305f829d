package identity

import (
	"errors"
	"strings"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/identity"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
	"gorm.io/gorm"
)

// gormTransactionContext GORM 事務上下文
type gormTransactionContext interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// ===========================
// MappingRepositoryImpl
// ===========================

// MappingRepositoryImpl 身份映射倉儲實現（GORM）
//
// 設計原則：
// - 實作 identity.MappingRepository 介面
// - insert-if-absent 下沉到存儲引擎：loyalty_id 唯一索引的
//   原子插入，絕不 check-then-insert
// - 介面刻意沒有 Update / Delete（映射 write-once）
type MappingRepositoryImpl struct {
	db *gorm.DB
}

// NewMappingRepository 創建身份映射倉儲實例
func NewMappingRepository(db *gorm.DB) identity.MappingRepository {
	return &MappingRepositoryImpl{db: db}
}

// Insert 原子插入新映射
//
// 錯誤處理：
// - UNIQUE constraint 違反（loyalty_id 已有映射）→ ErrMappingExists
//   （首次解析競爭的輸家收到它，重讀贏家映射後收斂）
// - 其他資料庫錯誤 → 原始錯誤
func (r *MappingRepositoryImpl) Insert(ctx shared.TransactionContext, mapping *identity.IdentityMapping) error {
	db := r.getDB(ctx)

	result := db.Create(toGORM(mapping))
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return identity.ErrMappingExists.WithContext(
				"loyalty_id", mapping.LoyaltyID(),
			)
		}
		return result.Error
	}

	return nil
}

// FindByLoyaltyID 按 loyaltyID 查詢映射
//
// 錯誤處理：
// - gorm.ErrRecordNotFound → identity.ErrMappingNotFound
// - 其他資料庫錯誤 → 原始錯誤
func (r *MappingRepositoryImpl) FindByLoyaltyID(ctx shared.TransactionContext, loyaltyID string) (*identity.IdentityMapping, error) {
	db := r.getDB(ctx)

	var gormModel IdentityMappingGORM
	result := db.Where("loyalty_id = ?", loyaltyID).First(&gormModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, identity.ErrMappingNotFound.WithContext(
				"loyalty_id", loyaltyID,
			)
		}
		return nil, result.Error
	}

	return gormModel.toDomain()
}

// ===========================
// Helper Methods
// ===========================

// getDB 獲取 GORM DB 實例
// ctx != nil 時使用事務中的 DB，否則使用預設 DB（auto-commit）
func (r *MappingRepositoryImpl) getDB(ctx shared.TransactionContext) *gorm.DB {
	if ctx != nil {
		if txCtx, ok := ctx.(gormTransactionContext); ok {
			return txCtx.GetDB()
		}
	}
	return r.db
}

// isUniqueConstraintError 判斷是否為唯一約束錯誤
// 支持 PostgreSQL / SQLite / MySQL 的錯誤訊息格式
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "duplicate key value violates unique constraint") {
		return true
	}
	if strings.Contains(errMsg, "unique constraint failed") {
		return true
	}
	if strings.Contains(errMsg, "duplicate entry") {
		return true
	}

	return false
}
