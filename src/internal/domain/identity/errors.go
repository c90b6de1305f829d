package identity

import "github.com/beanloop/loyalty_bridge/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

const (
	ErrCodeInvalidMapping    shared.ErrorCode = "MAPPING_INVALID"
	ErrCodeInvalidMappingID  shared.ErrorCode = "MAPPING_ID_INVALID"
	ErrCodeMappingExists     shared.ErrorCode = "MAPPING_EXISTS"
	ErrCodeMappingNotFound   shared.ErrorCode = "MAPPING_NOT_FOUND"
	ErrCodeCorruptedMapping  shared.ErrorCode = "MAPPING_CORRUPTED"
	ErrCodePOSAccountMissing shared.ErrorCode = "POS_ACCOUNT_NOT_FOUND"
)

// ===========================
// 預定義錯誤
// ===========================

var (
	// ErrInvalidMapping 無效的身份映射參數
	ErrInvalidMapping = &shared.DomainError{
		Code:    ErrCodeInvalidMapping,
		Message: "無效的身份映射",
	}

	// ErrInvalidMappingID 無效的身份映射 ID
	ErrInvalidMappingID = &shared.DomainError{
		Code:    ErrCodeInvalidMappingID,
		Message: "無效的身份映射 ID",
	}

	// ErrMappingExists 該 loyaltyID 已存在映射
	//
	// 首次解析競爭的預期結果：並發解析者各自創建映射搶插入，
	// 輸家收到此錯誤後重讀贏家的映射並收斂到同一綁定。
	ErrMappingExists = &shared.DomainError{
		Code:    ErrCodeMappingExists,
		Message: "該忠誠卡已存在身份映射",
	}

	// ErrMappingNotFound 映射不存在
	ErrMappingNotFound = &shared.DomainError{
		Code:    ErrCodeMappingNotFound,
		Message: "身份映射不存在",
	}

	// ErrCorruptedMapping 資料庫中的映射資料損壞
	ErrCorruptedMapping = &shared.DomainError{
		Code:    ErrCodeCorruptedMapping,
		Message: "身份映射資料損壞",
	}

	// ErrPOSAccountNotFound POS 目錄查無匹配帳戶
	// POSDirectory.FindByContact 的「未命中」結果，不是故障
	ErrPOSAccountNotFound = &shared.DomainError{
		Code:    ErrCodePOSAccountMissing,
		Message: "POS 目錄查無匹配帳戶",
	}
)
