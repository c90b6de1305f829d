package shared

// TransactionContext 事務上下文介面
//
// 設計決策：可選事務參與模式（Optional Transaction Participation）
//
// 行為約定：
// - ctx != nil: 在調用者的事務中執行（事務傳播）
// - ctx == nil: 使用 auto-commit 模式（適用於單一讀操作）
//
// 使用場景：
//
// 1. 寫操作：必須在事務中（通過 TransactionManager.InTransaction）
//    - 保證原子性（Atomicity）
//    - 例如：寫入 PENDING 台帳行、狀態轉換、身份映射插入
//
// 2. 讀操作：可選事務參與
//    - 獨立查詢：傳入 nil（性能優先，auto-commit 模式）
//    - 例如：查詢最高已處理 tier、操作員查詢台帳狀態
//
// 重要例外：冪等性不依賴事務隔離
// 本系統對「同一 tier 只入帳一次」的保證來自台帳的唯一約束
// （loyalty_id, reward_tier），而非事務鎖。並發的 InsertPending
// 競爭者中恰好一個成功，其餘觀察到 DuplicateTier——即使各自
// 跑在獨立事務中，正確性依然成立。
//
// 範例：
//
//   txManager.InTransaction(func(ctx TransactionContext) error {
//       return ledgerRepo.InsertPending(ctx, entry)
//   })
//
//   highest, _ := ledgerRepo.HighestRecordedTier(nil, loyaltyID)  // auto-commit
//
// 架構原則：
// - 這是一個標記介面（Marker Interface），不暴露任何方法
// - Infrastructure Layer 負責實作具體的事務封裝（如 GORM）
// - Domain Layer 和 Application Layer 只依賴此介面，不依賴具體實作
type TransactionContext interface {
	// 標記介面：僅用於傳遞上下文，不暴露方法
}

// TransactionManager 事務管理器介面
type TransactionManager interface {
	InTransaction(fn func(ctx TransactionContext) error) error
}
