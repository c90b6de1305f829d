package reward

// ===========================
// RewardSnapshot 值對象
// ===========================

// StampsPerReward 每份獎勵所需的集章數
//
// 業務規則：顧客每集滿 12 個章，Loopy 平台發放一份獎勵
// （一杯免費咖啡），系統將其轉換為一筆 POS 儲值。
const StampsPerReward = 12

// RewardSnapshot 忠誠卡快照值對象
//
// 語義：某個 Loopy 卡在「觀察當下」的計數器只讀視圖。
// 快照是暫態的——每次對帳產生一份，從不持久化；
// 持久化的事實只有台帳（ledger.LedgerEntry）。
//
// 不變條件（由建構函數保證）：
// - loyaltyID 非空
// - stampsTotal >= 0
// - rewardsEarnedTotal >= 0
// - rewardsRedeemedTotal >= 0
//
// 跨快照的單調性（rewardsEarnedTotal 永不下降）無法由單一快照
// 自我驗證，由 Reconciliation Engine 對照台帳檢查。
//
// 重要：rewardsRedeemedTotal 是 Loopy 平台回報的兌換數，僅供參考。
// 「本系統已入帳多少」的唯一權威來源是台帳，不是這個欄位。
type RewardSnapshot struct {
	loyaltyID            string
	stampsTotal          int
	rewardsEarnedTotal   int
	rewardsRedeemedTotal int
	contact              Contact
}

// NewRewardSnapshot 創建忠誠卡快照（Checked Constructor）
//
// 參數：
//   loyaltyID - Loopy 卡識別碼（PID，外部不透明字串）
//   stampsTotal - 累積集章數
//   rewardsEarnedTotal - 累積獲得獎勵數（Loopy 的 totalRewardsEarned）
//   rewardsRedeemedTotal - 累積兌換獎勵數（僅供參考）
//   contact - 聯絡資訊（用於身份解析）
//
// 返回：
//   RewardSnapshot - 驗證通過的快照
//   error - ErrInvalidSnapshot（負數計數器或空 loyaltyID）
func NewRewardSnapshot(
	loyaltyID string,
	stampsTotal int,
	rewardsEarnedTotal int,
	rewardsRedeemedTotal int,
	contact Contact,
) (RewardSnapshot, error) {
	if loyaltyID == "" {
		return RewardSnapshot{}, ErrInvalidSnapshot.WithContext(
			"reason", "loyaltyID cannot be empty",
		)
	}
	if stampsTotal < 0 {
		return RewardSnapshot{}, ErrInvalidSnapshot.WithContext(
			"reason", "stampsTotal cannot be negative",
			"stamps_total", stampsTotal,
		)
	}
	if rewardsEarnedTotal < 0 {
		return RewardSnapshot{}, ErrInvalidSnapshot.WithContext(
			"reason", "rewardsEarnedTotal cannot be negative",
			"rewards_earned_total", rewardsEarnedTotal,
		)
	}
	if rewardsRedeemedTotal < 0 {
		return RewardSnapshot{}, ErrInvalidSnapshot.WithContext(
			"reason", "rewardsRedeemedTotal cannot be negative",
			"rewards_redeemed_total", rewardsRedeemedTotal,
		)
	}

	return RewardSnapshot{
		loyaltyID:            loyaltyID,
		stampsTotal:          stampsTotal,
		rewardsEarnedTotal:   rewardsEarnedTotal,
		rewardsRedeemedTotal: rewardsRedeemedTotal,
		contact:              contact,
	}, nil
}

// LoyaltyID 獲取 Loopy 卡識別碼
func (s RewardSnapshot) LoyaltyID() string {
	return s.loyaltyID
}

// StampsTotal 獲取累積集章數
func (s RewardSnapshot) StampsTotal() int {
	return s.stampsTotal
}

// RewardsEarnedTotal 獲取累積獲得獎勵數
func (s RewardSnapshot) RewardsEarnedTotal() int {
	return s.rewardsEarnedTotal
}

// RewardsRedeemedTotal 獲取 Loopy 回報的累積兌換數（僅供參考）
func (s RewardSnapshot) RewardsRedeemedTotal() int {
	return s.rewardsRedeemedTotal
}

// Contact 獲取聯絡資訊
func (s RewardSnapshot) Contact() Contact {
	return s.contact
}

// AvailableRewards 獲取 Loopy 視角的可兌換獎勵數（派生值）
//
// 計算：earned - redeemed，下限 0
//
// 注意：這是顧客在 Loopy App 看到的數字，僅用於資訊展示。
// 引擎計算「該入帳幾個 tier」時比對的是台帳，不是這個值——
// 兩者在 Loopy 端手動兌換時會漂移。
func (s RewardSnapshot) AvailableRewards() int {
	available := s.rewardsEarnedTotal - s.rewardsRedeemedTotal
	if available < 0 {
		return 0
	}
	return available
}

// StampsUntilNextReward 獲取距離下一份獎勵還需的集章數（派生值）
func (s RewardSnapshot) StampsUntilNextReward() int {
	return StampsPerReward - (s.stampsTotal % StampsPerReward)
}
