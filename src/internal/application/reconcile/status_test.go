package reconcile

import (
	"errors"
	"testing"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// GetLedgerStatusUseCase 測試
// ===========================

// Test 1: 按 tier 升序返回該卡的全部行
func TestGetLedgerStatus_ReturnsEntriesInTierOrder(t *testing.T) {
	// Arrange
	repo := newMockLedgerRepository()
	repo.seed(t, "card-1", 2, ledger.StatusPending)
	repo.seed(t, "card-1", 1, ledger.StatusCompleted)
	repo.seed(t, "card-1", 3, ledger.StatusFailed)
	repo.seed(t, "card-2", 1, ledger.StatusCompleted) // 其他卡不混入

	useCase := NewGetLedgerStatusUseCase(repo)

	// Act
	views, err := useCase.Execute("card-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, 1, views[0].RewardTier)
	assert.Equal(t, "COMPLETED", views[0].Status)
	assert.Equal(t, "deposit-seed", views[0].DepositID)
	assert.Equal(t, "LOOPY_card-1_LVL1", views[0].Reference)
	assert.Equal(t, "R40.00", views[0].CreditAmount)

	assert.Equal(t, 2, views[1].RewardTier)
	assert.Equal(t, "PENDING", views[1].Status)
	assert.Empty(t, views[1].DepositID)

	assert.Equal(t, 3, views[2].RewardTier)
	assert.Equal(t, "FAILED", views[2].Status)
	assert.Equal(t, "seeded failure", views[2].FailureReason)
}

// Test 2: 從未入帳的卡——空切片，不是錯誤
func TestGetLedgerStatus_UnknownCard_ReturnsEmptySlice(t *testing.T) {
	useCase := NewGetLedgerStatusUseCase(newMockLedgerRepository())

	views, err := useCase.Execute("never-seen")

	require.NoError(t, err)
	assert.Empty(t, views)
}

// Test 3: 台帳不可讀
func TestGetLedgerStatus_LedgerUnreadable_ReturnsStoreUnavailable(t *testing.T) {
	repo := newMockLedgerRepository()
	repo.findErr = errors.New("database is locked")

	useCase := NewGetLedgerStatusUseCase(repo)

	_, err := useCase.Execute("card-1")

	assert.True(t, errors.Is(err, reward.ErrStoreUnavailable))
}
