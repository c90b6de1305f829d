package reward

import "github.com/beanloop/loyalty_bridge/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

// 錯誤代碼常量
//
// 錯誤分類（上層的重試決策依據）：
// - SNAPSHOT_INVALID: 壞輸入，立即拒絕，無台帳效果，不可重試
// - IDENTITY_UNRESOLVED: 暫時性，受影響 tier 無台帳行，可由 webhook 重送重試
// - CREDIT_APPLICATION_FAILED: 暫時性，台帳行留在 FAILED，由 sweep 重試
// - STORE_UNAVAILABLE: 台帳本身不可用，整個調用中止且無部分狀態
const (
	ErrCodeInvalidSnapshot         shared.ErrorCode = "SNAPSHOT_INVALID"
	ErrCodeInvalidCreditAmount     shared.ErrorCode = "CREDIT_AMOUNT_INVALID"
	ErrCodeIdentityUnresolved      shared.ErrorCode = "IDENTITY_UNRESOLVED"
	ErrCodeCreditApplicationFailed shared.ErrorCode = "CREDIT_APPLICATION_FAILED"
	ErrCodeStoreUnavailable        shared.ErrorCode = "STORE_UNAVAILABLE"
)

// ===========================
// 預定義錯誤
// ===========================

var (
	// ErrInvalidSnapshot 無效的忠誠卡快照
	// 包含單調性違反：rewardsEarnedTotal 低於台帳已記錄的最高 tier
	// 屬於資料完整性錯誤，不是合法輸入
	ErrInvalidSnapshot = &shared.DomainError{
		Code:    ErrCodeInvalidSnapshot,
		Message: "無效的忠誠卡快照",
	}

	// ErrInvalidCreditAmount 無效的儲值金額
	ErrInvalidCreditAmount = &shared.DomainError{
		Code:    ErrCodeInvalidCreditAmount,
		Message: "儲值金額必須為正數",
	}

	// ErrIdentityUnresolved 身份解析失敗（暫時性，可重試）
	ErrIdentityUnresolved = &shared.DomainError{
		Code:    ErrCodeIdentityUnresolved,
		Message: "無法將忠誠卡身份解析為 POS 帳戶",
	}

	// ErrCreditApplicationFailed 儲值入帳失敗（台帳行留在 FAILED，sweep 重試）
	ErrCreditApplicationFailed = &shared.DomainError{
		Code:    ErrCodeCreditApplicationFailed,
		Message: "POS 儲值入帳失敗",
	}

	// ErrStoreUnavailable 台帳存儲不可用（整個對帳調用中止，無部分狀態）
	ErrStoreUnavailable = &shared.DomainError{
		Code:    ErrCodeStoreUnavailable,
		Message: "台帳存儲不可用",
	}
)
