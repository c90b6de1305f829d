package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Reconcile Use Case
// ===========================

// IdentityResolver 身份解析能力介面
//
// 設計原則：介面定義在使用者（引擎）一側，由
// application/identity.ResolveIdentityUseCase 實作。
// 引擎只需要「給我 loyaltyID 對應的 POS 帳戶」這一件事。
type IdentityResolver interface {
	Resolve(ctx context.Context, loyaltyID string, contact reward.Contact) (posAccountID string, err error)
}

// 結果 reason 常量
//
// no_new_rewards 是正常且高頻的結果（重複 webhook 或無變化輪詢），
// 不是錯誤——對收銀員完全不可見。
const (
	ReasonCompleted        = "completed"
	ReasonNoNewRewards     = "no_new_rewards"
	ReasonAwaitingRetry    = "awaiting_sweep_retry"
	ReasonIdentityFailed   = "identity_unresolved"
	ReasonCreditFailed     = "credit_application_failed"
	ReasonLeftPendingSweep = "left_pending_for_sweep"
)

// ReconcileCommand 對帳命令
//
// 輸入：入站通知（webhook 或輪詢）攜帶的忠誠卡計數器。
// payload 形狀的各種不確定性由被排除的接入層消化，
// 這裡只接受已驗證的欄位。
type ReconcileCommand struct {
	LoyaltyID            string
	StampsTotal          int
	RewardsEarnedTotal   int
	RewardsRedeemedTotal int
	Email                string
	Phone                string
	DisplayName          string
}

// ReconciliationResult 對帳結果
//
// 輸出：本次調用新入帳的 tier、因已處理而跳過的 tier、
// 失敗的 tier（如有），以及收銀員提示所需的彙總欄位。
type ReconciliationResult struct {
	LoyaltyID       string
	CustomerName    string
	CompletedTiers  []int
	SkippedTiers    []int
	FailedTier      int // 0 表示無失敗 tier
	Reason          string
	CreditTotal     decimal.Decimal // 本次調用新入帳的總額
	StampsTotal     int
	StampsUntilNext int
}

// Processed 本次調用新入帳的 tier 數（收銀員看到的「免費咖啡數」）
func (r *ReconciliationResult) Processed() int {
	return len(r.CompletedTiers)
}

// ReconcileUseCase 獎勵對帳引擎
//
// 職責：把一份快照轉換為零或多條已結算的台帳行——每 tier 恰好
// 一次，無論同一份（或更新的）快照被觀察多少次。
//
// 核心順序保證：tier 在單次調用內嚴格升序處理，首次失敗即中止
// 後續 tier。顧客在 POS 端的累計儲值永遠對應其已獲獎勵的
// 連續前綴，審計與恢復都簡單。
//
// 核心冪等機制：正確性完全掛在台帳 (loyaltyID, tier) 的唯一約束
// 上，不依賴進程內鎖——任意並發的對帳者搶同一 tier，恰好一個
// InsertPending 成功，其餘觀察到 DuplicateTier 並視為已被處理。
// 因此引擎可以在任意並行度下運行，無需分佈式鎖。
//
// 「先記錄意圖，後入帳」：PENDING 行先於儲值調用落盤。兩步之間
// 崩潰時行以 PENDING 留存，sweep 以行自身的 reference 恢復，
// 而不是重新發起新儲值——重複入帳的狀態在此設計下不可能產生。
type ReconcileUseCase struct {
	ledgerRepo   ledger.LedgerRepository
	resolver     IdentityResolver
	issuer       reward.CreditIssuer
	txManager    shared.TransactionManager
	creditAmount reward.CreditAmount
	callTimeout  time.Duration
}

// NewReconcileUseCase 創建對帳引擎實例
//
// 參數：
//   creditAmount - 每 tier 的儲值金額（tier 無關常數，預設 R40）
//   callTimeout - 單次儲值網路調用的時間上限；逾時後行留在
//                 PENDING 交給 sweep，不做行內重試
func NewReconcileUseCase(
	ledgerRepo ledger.LedgerRepository,
	resolver IdentityResolver,
	issuer reward.CreditIssuer,
	txManager shared.TransactionManager,
	creditAmount reward.CreditAmount,
	callTimeout time.Duration,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		ledgerRepo:   ledgerRepo,
		resolver:     resolver,
		issuer:       issuer,
		txManager:    txManager,
		creditAmount: creditAmount,
		callTimeout:  callTimeout,
	}
}

// Execute 執行一次對帳
//
// 執行流程（§ 每步詳見行內註釋）：
// 1. 驗證快照（含對照台帳的單調性檢查）
// 2. 查詢已記錄的最高 tier（COMPLETED | PENDING）
// 3. 計算待處理 tier 區間；空區間 → no_new_rewards
// 4. 逐 tier 嚴格升序：解析身份 → 插入 PENDING → 儲值 → 定案
// 5. 返回彙總結果
//
// 錯誤傳播策略：單 tier 的局部錯誤（身份、儲值）中止本次調用的
// 該 tier 及後續 tier，但不撤銷已完成的 tier——返回的 result
// 永遠忠實反映已提交的進度，error 描述中止原因。
// 調用方應把任何非 InvalidSnapshot 錯誤視為暫時性，依靠
// webhook 重送或 sweep，而不是立即帶副作用地重新調用。
func (uc *ReconcileUseCase) Execute(ctx context.Context, cmd ReconcileCommand) (*ReconciliationResult, error) {
	// 1. 驗證快照
	contact := reward.NewContact(cmd.Email, cmd.Phone, cmd.DisplayName)
	snapshot, err := reward.NewRewardSnapshot(
		cmd.LoyaltyID,
		cmd.StampsTotal,
		cmd.RewardsEarnedTotal,
		cmd.RewardsRedeemedTotal,
		contact,
	)
	if err != nil {
		return nil, err
	}

	// 2. 查詢已記錄的最高 tier（FAILED 不算：它必須先被 sweep 結清）
	highest, err := uc.ledgerRepo.HighestRecordedTier(nil, snapshot.LoyaltyID())
	if err != nil {
		return nil, reward.ErrStoreUnavailable.WithContext(
			"operation", "highest_recorded_tier",
			"loyalty_id", snapshot.LoyaltyID(),
			"cause", err.Error(),
		)
	}

	// 單調性檢查：earned 低於已記錄水位是資料完整性錯誤，
	// 不是合法輸入（Loopy 的 totalRewardsEarned 永不下降）
	if snapshot.RewardsEarnedTotal() < highest {
		return nil, reward.ErrInvalidSnapshot.WithContext(
			"reason", "rewardsEarnedTotal decreased",
			"loyalty_id", snapshot.LoyaltyID(),
			"rewards_earned_total", snapshot.RewardsEarnedTotal(),
			"highest_recorded_tier", highest,
		)
	}

	result := &ReconciliationResult{
		LoyaltyID:       snapshot.LoyaltyID(),
		CustomerName:    contact.DisplayName(),
		CompletedTiers:  make([]int, 0),
		SkippedTiers:    make([]int, 0),
		Reason:          ReasonCompleted,
		CreditTotal:     decimal.Zero,
		StampsTotal:     snapshot.StampsTotal(),
		StampsUntilNext: snapshot.StampsUntilNextReward(),
	}

	// 3. 待處理區間 [highest+1, earned]；空區間是正常高頻結果
	if highest >= snapshot.RewardsEarnedTotal() {
		result.Reason = ReasonNoNewRewards
		return result, nil
	}

	// 4. 逐 tier 嚴格升序處理
	for tier := highest + 1; tier <= snapshot.RewardsEarnedTotal(); tier++ {
		// 4a. 解析身份；失敗中止本 tier 及後續（已完成的保持提交）
		posAccountID, err := uc.resolver.Resolve(ctx, snapshot.LoyaltyID(), snapshot.Contact())
		if err != nil {
			result.FailedTier = tier
			result.Reason = ReasonIdentityFailed
			if errors.Is(err, reward.ErrIdentityUnresolved) || errors.Is(err, reward.ErrStoreUnavailable) {
				return result, err
			}
			return result, reward.ErrIdentityUnresolved.WithContext(
				"loyalty_id", snapshot.LoyaltyID(),
				"reward_tier", tier,
				"cause", err.Error(),
			)
		}

		// 4b. 插入 PENDING 行（核心冪等守衛）
		entry, err := ledger.NewPendingEntry(snapshot.LoyaltyID(), tier, posAccountID, uc.creditAmount)
		if err != nil {
			return result, err
		}

		err = uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
			return uc.ledgerRepo.InsertPending(txCtx, entry)
		})
		if err != nil {
			if errors.Is(err, ledger.ErrDuplicateTier) {
				proceed, derr := uc.handleDuplicate(result, entry.Reference(), tier)
				if derr != nil {
					return result, derr
				}
				if !proceed {
					return result, nil
				}
				continue
			}
			return result, reward.ErrStoreUnavailable.WithContext(
				"operation", "insert_pending",
				"reference", entry.Reference().String(),
				"cause", err.Error(),
			)
		}

		// 4c. 儲值（有限時）並定案
		if err := uc.applyCredit(ctx, result, entry); err != nil {
			return result, err
		}
	}

	return result, nil
}

// handleDuplicate 處理 InsertPending 的唯一約束衝突
//
// 衝突意味著該 tier 已有行——但「誰的行、什麼狀態」決定下一步：
// - COMPLETED / PENDING：另一個並發調用搶先了。跳過該 tier，
//   不再入帳、不報錯，繼續處理更高 tier。
// - FAILED：該 tier 的上一次入帳失敗，重試權屬於 sweep。
//   必須中止本次調用的後續 tier——越過一個 FAILED tier 去入帳
//   更高 tier 會破壞「COMPLETED 嚴格升序」的順序保證。
//
// 返回：proceed=true 表示繼續處理更高 tier
func (uc *ReconcileUseCase) handleDuplicate(
	result *ReconciliationResult,
	reference ledger.Reference,
	tier int,
) (proceed bool, err error) {
	existing, err := uc.ledgerRepo.FindByReference(nil, reference)
	if err != nil {
		return false, reward.ErrStoreUnavailable.WithContext(
			"operation", "find_by_reference",
			"reference", reference.String(),
			"cause", err.Error(),
		)
	}

	if existing.Status() == ledger.StatusFailed {
		result.FailedTier = tier
		result.Reason = ReasonAwaitingRetry
		return false, nil
	}

	result.SkippedTiers = append(result.SkippedTiers, tier)
	return true, nil
}

// applyCredit 對單條 PENDING 行執行儲值並定案
//
// 定案規則：
// - 成功 → COMPLETED（記錄外部 depositID）
// - 逾時 / 取消 → 行留在 PENDING，交給 sweep（不做行內重試，
//   避免無界重試循環佔住請求；取消也從不回滾 PENDING 行）
// - 其他失敗 → FAILED（由 sweep 以同一 reference 重試，
//   絕不靜默跳過）
func (uc *ReconcileUseCase) applyCredit(ctx context.Context, result *ReconciliationResult, entry *ledger.LedgerEntry) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	depositID, depositErr := uc.issuer.Deposit(callCtx, entry.POSAccountID(), entry.CreditAmount(), entry.Reference().String())
	cancel()

	if depositErr != nil {
		result.FailedTier = entry.RewardTier()

		// 逾時或取消：行留在 PENDING，sweep 接手
		if errors.Is(depositErr, context.DeadlineExceeded) || errors.Is(depositErr, context.Canceled) {
			result.Reason = ReasonLeftPendingSweep
			return reward.ErrCreditApplicationFailed.WithContext(
				"reference", entry.Reference().String(),
				"left_pending", true,
				"cause", depositErr.Error(),
			)
		}

		// 確定性失敗：標記 FAILED
		result.Reason = ReasonCreditFailed
		err := uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
			return uc.ledgerRepo.MarkFailed(txCtx, entry.Reference(), depositErr.Error())
		})
		if err != nil {
			return reward.ErrStoreUnavailable.WithContext(
				"operation", "mark_failed",
				"reference", entry.Reference().String(),
				"cause", err.Error(),
			)
		}
		return reward.ErrCreditApplicationFailed.WithContext(
			"reference", entry.Reference().String(),
			"cause", depositErr.Error(),
		)
	}

	// 定案為 COMPLETED。這一步失敗時行留在 PENDING——儲值已生效，
	// 但 sweep 重試會帶同一 reference，POS 端按冪等鍵去重，
	// 不會產生第二筆儲值。
	err := uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
		return uc.ledgerRepo.MarkCompleted(txCtx, entry.Reference(), depositID)
	})
	if err != nil {
		result.FailedTier = entry.RewardTier()
		result.Reason = ReasonLeftPendingSweep
		return reward.ErrStoreUnavailable.WithContext(
			"operation", "mark_completed",
			"reference", entry.Reference().String(),
			"cause", err.Error(),
		)
	}

	result.CompletedTiers = append(result.CompletedTiers, entry.RewardTier())
	result.CreditTotal = result.CreditTotal.Add(entry.CreditAmount().Value())
	return nil
}
