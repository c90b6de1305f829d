package ledger

// ===========================
// Status 狀態定義
// ===========================

// Status 台帳行狀態
//
// 狀態機：
//
//   PENDING ──成功──> COMPLETED（終態）
//      │ ▲
//      │ └──sweep 重試──┐
//      └──失敗──> FAILED ┘
//
// FAILED 的重試在「同一行」重入 PENDING，永不為同一 tier 開新行。
// COMPLETED 是唯一終態，之後任何轉換都是 no-op。
type Status string

const (
	// StatusPending 已記錄意圖，儲值尚未確認
	StatusPending Status = "PENDING"
	// StatusCompleted 儲值已確認（持有外部 depositID）
	StatusCompleted Status = "COMPLETED"
	// StatusFailed 儲值失敗，等待 sweep 重試
	StatusFailed Status = "FAILED"
)

// IsValid 判斷是否為合法狀態值（Repository 載入時的資料防線）
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal 判斷是否為終態
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// String 轉換為字串表示
func (s Status) String() string {
	return string(s)
}
