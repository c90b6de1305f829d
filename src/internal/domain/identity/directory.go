package identity

import (
	"context"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
)

// ===========================
// POSDirectory 能力介面
// ===========================

// POSDirectory POS 顧客名錄能力介面
//
// 具體實作（Munch account/retrieve-users、account/create-user
// HTTP 客戶端）在核心之外，核心只依賴這個抽象能力。
//
// 實作契約：
// 1. FindByContact 按傳入 Contact 的「已填欄位」比對：解析器會
//    分別以 email-only、phone-only 的 Contact 各查一次，
//    先 email 後 phone 的次序由解析器控制，不由實作決定
// 2. 未命中返回 ErrPOSAccountNotFound（不是故障）；
//    網路/上游錯誤返回其他 error（解析器歸類為 IdentityUnresolved）
// 3. 必須尊重 ctx 的截止時間與取消
type POSDirectory interface {
	// FindByContact 按聯絡資訊查找既有 POS 帳戶
	//
	// 返回：
	//   posAccountID - 第一個匹配的帳戶 ID
	//   error - ErrPOSAccountNotFound（未命中）或網路錯誤
	FindByContact(ctx context.Context, contact reward.Contact) (posAccountID string, err error)

	// Create 以聯絡資訊創建新 POS 帳戶
	//
	// 前置條件：contact 已補齊合成佔位值（Contact.WithPlaceholders），
	// 實作可假設 email / phone / displayName 均非空
	Create(ctx context.Context, contact reward.Contact) (posAccountID string, err error)
}
