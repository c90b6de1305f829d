package identity

import (
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// MappingRepository 介面
// ===========================

// MappingRepository 身份映射倉儲介面
//
// 設計原則：
// 1. 原子 insert-if-absent：Insert 的唯一約束衝突是首次解析競爭的
//    收斂機制——輸家觀察到 ErrMappingExists 後重讀贏家映射，
//    不得用 check-then-insert 模擬
// 2. 映射 write-once：介面刻意不提供 Update / Delete
type MappingRepository interface {
	// Insert 原子插入新映射
	// 錯誤：ErrMappingExists（該 loyaltyID 已有映射）
	Insert(ctx shared.TransactionContext, mapping *IdentityMapping) error

	// FindByLoyaltyID 按 loyaltyID 查詢映射
	// 錯誤：ErrMappingNotFound
	FindByLoyaltyID(ctx shared.TransactionContext, loyaltyID string) (*IdentityMapping, error)
}
