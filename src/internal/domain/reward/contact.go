package reward

import (
	"fmt"
	"strings"
)

// ===========================
// Contact 值對象
// ===========================

// 合成佔位值：快照缺少聯絡欄位時，在 POS 端創建帳戶所用的預設值。
// 刻意選擇在審計日誌裡一望即知是合成的格式，
// 絕不因欄位缺失而沿用某個無關的既有帳戶。
const (
	placeholderEmailFormat = "loopy_%s@customer.local"
	placeholderPhone       = "+27000000000"
	placeholderDisplayName = "Loopy Customer"
)

// Contact 聯絡資訊值對象
//
// 來源：Loopy 卡的 customerDetails（Email address / Contact Number 欄位）。
// email 和 phone 都可能為空——註冊時顧客未必填寫。
//
// 設計原則：
// - 不可變性：所有欄位 unexported
// - 不自我驗證格式：上游資料髒亂（空白、連字號、大小寫混雜），
//   這裡只做正規化，格式對錯交給 POS 端判定
type Contact struct {
	email       string
	phone       string
	displayName string
}

// NewContact 創建聯絡資訊值對象
//
// 正規化規則：
// - email: 去除首尾空白、轉小寫
// - phone: 去除空白、連字號、括號（與 POS 端電話比對邏輯一致）
// - displayName: 去除首尾空白
func NewContact(email, phone, displayName string) Contact {
	return Contact{
		email:       strings.ToLower(strings.TrimSpace(email)),
		phone:       normalizePhone(phone),
		displayName: strings.TrimSpace(displayName),
	}
}

// normalizePhone 正規化電話號碼
// 去除比對無關的字符：空白、連字號、括號
func normalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// Email 獲取電子郵件（可能為空字串）
func (c Contact) Email() string {
	return c.email
}

// Phone 獲取電話號碼（可能為空字串）
func (c Contact) Phone() string {
	return c.phone
}

// DisplayName 獲取顯示名稱
func (c Contact) DisplayName() string {
	return c.displayName
}

// HasEmail 判斷是否有電子郵件
func (c Contact) HasEmail() bool {
	return c.email != ""
}

// HasPhone 判斷是否有電話號碼
func (c Contact) HasPhone() bool {
	return c.phone != ""
}

// WithPlaceholders 返回已補齊合成佔位值的 Contact
//
// 參數：
//   loyaltyID - 用於生成可追溯的佔位 email（loopy_<id>@customer.local）
//
// 使用場景：POS 端創建新帳戶前調用。POS API 要求 email 和 phone
// 必填，而 Loopy 快照可能缺任何一項。
func (c Contact) WithPlaceholders(loyaltyID string) Contact {
	filled := c
	if filled.email == "" {
		filled.email = fmt.Sprintf(placeholderEmailFormat, loyaltyID)
	}
	if filled.phone == "" {
		filled.phone = placeholderPhone
	}
	if filled.displayName == "" {
		filled.displayName = placeholderDisplayName
	}
	return filled
}

// SplitName 將顯示名稱拆為 firstName / lastName
//
// 規則（沿用 POS 端帳戶欄位的慣例）：
// - 以第一個空格拆分："Amy van Wyk" → ("Amy", "van Wyk")
// - 無空格："Amy" → ("Amy", "Customer")
// - 空名稱 → ("Loopy", "Customer")
func (c Contact) SplitName() (firstName, lastName string) {
	name := c.displayName
	if name == "" {
		name = placeholderDisplayName
	}

	parts := strings.SplitN(name, " ", 2)
	firstName = parts[0]
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		lastName = parts[1]
	} else {
		lastName = "Customer"
	}
	return firstName, lastName
}
