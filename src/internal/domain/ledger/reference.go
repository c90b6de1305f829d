package ledger

import "fmt"

// ===========================
// Reference 值對象
// ===========================

// referenceFormat 冪等鍵格式
//
// 由 (loyaltyID, tier) 確定性導出，不含時間戳——同一 tier 無論
// 被觀察、重試多少次，永遠產生同一個 reference。POS 端以此鍵
// 去重，台帳以此鍵定位行。
const referenceFormat = "LOOPY_%s_LVL%d"

// Reference 儲值冪等鍵值對象
//
// 設計原則：
// - 確定性：NewReference(id, tier) 是純函數
// - 全局唯一：loyaltyID 全局唯一 × tier 在卡內唯一
// - 不可變
type Reference struct {
	value string
}

// NewReference 從 (loyaltyID, tier) 確定性導出冪等鍵
func NewReference(loyaltyID string, tier int) Reference {
	return Reference{value: fmt.Sprintf(referenceFormat, loyaltyID, tier)}
}

// ReferenceFromString 從字串重建冪等鍵（Repository 載入用）
func ReferenceFromString(s string) Reference {
	return Reference{value: s}
}

// String 獲取冪等鍵字串
func (r Reference) String() string {
	return r.value
}

// Equals 比較兩個冪等鍵是否相等
func (r Reference) Equals(other Reference) bool {
	return r.value == other.value
}

// IsEmpty 判斷是否為零值
func (r Reference) IsEmpty() bool {
	return r.value == ""
}
