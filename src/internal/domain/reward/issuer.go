package reward

import "context"

// ===========================
// CreditIssuer 能力介面
// ===========================

// CreditIssuer 儲值入帳能力介面
//
// 具體實作（Munch account/deposit HTTP 客戶端）在核心之外，
// 核心只依賴這個抽象能力。
//
// 實作契約：
// 1. reference 是冪等鍵：同一 reference 重複調用不得產生第二筆儲值
//    （sweep 以台帳行自身的 reference 重試，依賴此契約）
// 2. 必須尊重 ctx 的截止時間與取消：調用方帶有限時 ctx，
//    逾時後台帳行留在 PENDING 交給 sweep，不做行內重試
// 3. 成功返回外部確認 ID（depositID），用於台帳審計欄位
type CreditIssuer interface {
	// Deposit 對指定 POS 帳戶入帳一筆儲值
	//
	// 參數：
	//   ctx - 帶截止時間的上下文
	//   posAccountID - POS 帳戶 ID（由 Identity Resolver 解析）
	//   amount - 儲值金額
	//   reference - 全局唯一冪等鍵（LOOPY_<loyaltyID>_LVL<tier>）
	//
	// 返回：
	//   depositID - 外部確認 ID
	//   error - 入帳失敗（網路錯誤、POS 拒絕、逾時）
	Deposit(ctx context.Context, posAccountID string, amount CreditAmount, reference string) (depositID string, err error)
}
