package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// RunSweep Use Case
// ===========================

// SweepResult 恢復掃描結果
type SweepResult struct {
	Scanned   int // 本次掃描到的卡住行數
	Completed int // 重試成功、轉為 COMPLETED 的行數
	Failed    int // 重試仍失敗、留在 FAILED 的行數
	Skipped   int // 因同卡更低 tier 失敗而跳過的行數
}

// RunSweepUseCase 恢復掃描 Use Case（後台循環的單次執行體）
//
// 職責：重掃卡住的台帳行——PENDING（崩潰或逾時遺留）或 FAILED
// （上游拒絕）且更新時間早於閾值——並以「行自身的 reference」
// 重新入帳。重試單位是台帳行而不是新一輪對帳，這正是把上游
// 暫時性故障轉化為最終一致、而永不重複入帳的機制。
//
// 順序保證：同一張卡的行按 tier 升序重試；某行重試失敗時跳過
// 該卡的更高 tier（維持「COMPLETED 嚴格升序」不變條件），
// 其他卡不受影響。
//
// 調度：外部計時器週期性調用 Execute；本類型自身不持有 goroutine
// （調度屬於被排除的外圍系統）。
type RunSweepUseCase struct {
	ledgerRepo     ledger.LedgerRepository
	issuer         reward.CreditIssuer
	txManager      shared.TransactionManager
	stuckThreshold time.Duration
	callTimeout    time.Duration
}

// NewRunSweepUseCase 創建恢復掃描實例
//
// 參數：
//   stuckThreshold - 行更新時間早於 now-threshold 才視為卡住
//                    （避免與仍在行內飛行的儲值調用賽跑）
//   callTimeout - 單次儲值網路調用的時間上限
func NewRunSweepUseCase(
	ledgerRepo ledger.LedgerRepository,
	issuer reward.CreditIssuer,
	txManager shared.TransactionManager,
	stuckThreshold time.Duration,
	callTimeout time.Duration,
) *RunSweepUseCase {
	return &RunSweepUseCase{
		ledgerRepo:     ledgerRepo,
		issuer:         issuer,
		txManager:      txManager,
		stuckThreshold: stuckThreshold,
		callTimeout:    callTimeout,
	}
}

// Execute 執行一次恢復掃描
//
// 執行流程：
// 1. ListStuck 取回卡住行（已按 loyaltyID, tier 排序）
// 2. 逐行處理：FAILED 先在同一行重入 PENDING，再執行儲值、定案
// 3. 行失敗 → 跳過該卡的後續行；繼續處理其他卡
//
// 返回的 error 僅反映「掃描本身」的故障（台帳不可讀）；
// 單行重試失敗不構成 Execute 級錯誤，體現在 result.Failed。
func (uc *RunSweepUseCase) Execute(ctx context.Context) (*SweepResult, error) {
	cutoff := time.Now().Add(-uc.stuckThreshold)

	stuck, err := uc.ledgerRepo.ListStuck(nil, cutoff)
	if err != nil {
		return nil, reward.ErrStoreUnavailable.WithContext(
			"operation", "list_stuck",
			"cause", err.Error(),
		)
	}

	result := &SweepResult{Scanned: len(stuck)}

	// 某卡一旦有行重試失敗，其更高 tier 全部跳過
	skipLoyalty := make(map[string]bool)

	for _, entry := range stuck {
		if ctx.Err() != nil {
			// 調用方取消：剩餘行留待下一輪掃描
			break
		}

		if skipLoyalty[entry.LoyaltyID()] {
			result.Skipped++
			continue
		}

		if err := uc.retryEntry(ctx, entry); err != nil {
			result.Failed++
			skipLoyalty[entry.LoyaltyID()] = true
			continue
		}
		result.Completed++
	}

	return result, nil
}

// retryEntry 重試單條卡住行
//
// 關鍵：儲值帶的是「行自身的 reference」，不是新生成的鍵。
// 行曾經走到哪一步（儲值已發出但未確認、或根本沒發出），
// POS 端都按同一冪等鍵去重——重試至多補齊一筆，永不翻倍。
func (uc *RunSweepUseCase) retryEntry(ctx context.Context, entry *ledger.LedgerEntry) error {
	// FAILED 行先在同一行重入 PENDING
	if entry.Status() == ledger.StatusFailed {
		err := uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
			return uc.ledgerRepo.MarkRetrying(txCtx, entry.Reference())
		})
		if err != nil {
			return reward.ErrStoreUnavailable.WithContext(
				"operation", "mark_retrying",
				"reference", entry.Reference().String(),
				"cause", err.Error(),
			)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	depositID, depositErr := uc.issuer.Deposit(callCtx, entry.POSAccountID(), entry.CreditAmount(), entry.Reference().String())
	cancel()

	if depositErr != nil {
		// 逾時 / 取消：行留在 PENDING，下一輪掃描再試
		if errors.Is(depositErr, context.DeadlineExceeded) || errors.Is(depositErr, context.Canceled) {
			return reward.ErrCreditApplicationFailed.WithContext(
				"reference", entry.Reference().String(),
				"left_pending", true,
				"cause", depositErr.Error(),
			)
		}

		markErr := uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
			return uc.ledgerRepo.MarkFailed(txCtx, entry.Reference(), depositErr.Error())
		})
		if markErr != nil {
			return reward.ErrStoreUnavailable.WithContext(
				"operation", "mark_failed",
				"reference", entry.Reference().String(),
				"cause", markErr.Error(),
			)
		}
		return reward.ErrCreditApplicationFailed.WithContext(
			"reference", entry.Reference().String(),
			"cause", depositErr.Error(),
		)
	}

	err := uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
		return uc.ledgerRepo.MarkCompleted(txCtx, entry.Reference(), depositID)
	})
	if err != nil {
		return reward.ErrStoreUnavailable.WithContext(
			"operation", "mark_completed",
			"reference", entry.Reference().String(),
			"cause", err.Error(),
		)
	}

	return nil
}
