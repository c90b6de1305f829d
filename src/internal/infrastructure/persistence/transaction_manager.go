package persistence

import (
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionManager 實作
// ===========================

// GORMTransactionManager GORM 事務管理器
//
// 實作 shared.TransactionManager：把 fn 包進一個資料庫事務，
// fn 返回錯誤（或 panic）時回滾，否則提交。
type GORMTransactionManager struct {
	db *gorm.DB
}

// NewGORMTransactionManager 創建事務管理器實例
func NewGORMTransactionManager(db *gorm.DB) shared.TransactionManager {
	return &GORMTransactionManager{db: db}
}

// InTransaction 在資料庫事務中執行 fn
//
// 行為：
// - fn 返回 nil → 提交
// - fn 返回 error → 回滾，原始錯誤向上傳播
// - fn panic → GORM 回滾後 panic 繼續傳播
func (m *GORMTransactionManager) InTransaction(fn func(ctx shared.TransactionContext) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMTransactionContext(tx))
	})
}
