package ledger

import "github.com/beanloop/loyalty_bridge/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

const (
	ErrCodeDuplicateTier   shared.ErrorCode = "DUPLICATE_TIER"
	ErrCodeEntryNotFound   shared.ErrorCode = "ENTRY_NOT_FOUND"
	ErrCodeInvalidEntry    shared.ErrorCode = "ENTRY_INVALID"
	ErrCodeInvalidEntryID  shared.ErrorCode = "ENTRY_ID_INVALID"
	ErrCodeNotPending      shared.ErrorCode = "ENTRY_NOT_PENDING"
	ErrCodeNotFailed       shared.ErrorCode = "ENTRY_NOT_FAILED"
	ErrCodeCorruptedEntry  shared.ErrorCode = "ENTRY_CORRUPTED"
)

// ===========================
// 預定義錯誤
// ===========================

var (
	// ErrDuplicateTier 該 (loyaltyID, tier) 已存在台帳行
	//
	// 這是預期中的競爭結果，不是故障：並發對帳者搶同一 tier 時，
	// 恰好一個 InsertPending 成功，其餘收到此錯誤並視為
	// 「已被他人處理」。調用方不應將其向上傳播為失敗。
	ErrDuplicateTier = &shared.DomainError{
		Code:    ErrCodeDuplicateTier,
		Message: "該獎勵 tier 已存在台帳行",
	}

	// ErrEntryNotFound 台帳行不存在
	ErrEntryNotFound = &shared.DomainError{
		Code:    ErrCodeEntryNotFound,
		Message: "台帳行不存在",
	}

	// ErrInvalidEntry 無效的台帳行參數
	ErrInvalidEntry = &shared.DomainError{
		Code:    ErrCodeInvalidEntry,
		Message: "無效的台帳行",
	}

	// ErrInvalidEntryID 無效的台帳行 ID
	ErrInvalidEntryID = &shared.DomainError{
		Code:    ErrCodeInvalidEntryID,
		Message: "無效的台帳行 ID",
	}

	// ErrEntryNotPending 狀態轉換要求行處於 PENDING
	ErrEntryNotPending = &shared.DomainError{
		Code:    ErrCodeNotPending,
		Message: "台帳行不在 PENDING 狀態",
	}

	// ErrEntryNotFailed 重試重入要求行處於 FAILED
	ErrEntryNotFailed = &shared.DomainError{
		Code:    ErrCodeNotFailed,
		Message: "台帳行不在 FAILED 狀態",
	}

	// ErrCorruptedEntry 資料庫中的台帳行資料損壞（重建時驗證失敗）
	ErrCorruptedEntry = &shared.DomainError{
		Code:    ErrCodeCorruptedEntry,
		Message: "台帳行資料損壞",
	}
)
