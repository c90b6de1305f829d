package reward

import (
	"github.com/shopspring/decimal"
)

// ===========================
// CreditAmount 值對象
// ===========================

// CreditAmount 儲值金額值對象
//
// 設計原則：
// 1. 使用 decimal.Decimal 避免浮點數金額誤差
// 2. 不可變、自我驗證（金額必須為正數）
// 3. tier 無關的常數：每份獎勵入帳同一金額（預設 R40）
type CreditAmount struct {
	value decimal.Decimal
}

// DefaultCreditAmount 每份獎勵的預設儲值金額（R40，一杯咖啡）
func DefaultCreditAmount() CreditAmount {
	return CreditAmount{value: decimal.NewFromInt(40)}
}

// NewCreditAmount 創建儲值金額（Checked Constructor）
//
// 建構約束：金額必須 > 0（零額或負額的「儲值」沒有業務意義）
func NewCreditAmount(value decimal.Decimal) (CreditAmount, error) {
	if !value.IsPositive() {
		return CreditAmount{}, ErrInvalidCreditAmount.WithContext(
			"value", value.String(),
		)
	}
	return CreditAmount{value: value}, nil
}

// CreditAmountFromCents 從整數分值重建儲值金額
//
// 使用場景：Repository 從資料庫載入（金額持久化為 cents，
// 避免在 schema 層面引入小數類型差異）
func CreditAmountFromCents(cents int64) (CreditAmount, error) {
	return NewCreditAmount(decimal.New(cents, -2))
}

// Value 獲取金額（Rand）
func (a CreditAmount) Value() decimal.Decimal {
	return a.value
}

// Cents 轉換為整數分值（POS deposit API 與資料庫使用 cents）
func (a CreditAmount) Cents() int64 {
	return a.value.Mul(decimal.NewFromInt(100)).IntPart()
}

// MulCount 金額乘以份數（計算一次對帳的入帳總額）
func (a CreditAmount) MulCount(count int) decimal.Decimal {
	return a.value.Mul(decimal.NewFromInt(int64(count)))
}

// Equals 比較兩個金額是否相等
func (a CreditAmount) Equals(other CreditAmount) bool {
	return a.value.Equal(other.value)
}

// String 轉換為字串表示（用於日誌與審計）
func (a CreditAmount) String() string {
	return "R" + a.value.StringFixed(2)
}
