package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/ledger"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// Mock 實現（本包三個 Use Case 共用）
// ===========================

// mockLedgerRepository 模擬台帳存儲
// 以 reference 為鍵的互斥鎖保護 map，忠實實現唯一約束與
// 條件更新語義，供並發測試使用
type mockLedgerRepository struct {
	mu      sync.Mutex
	entries map[string]*ledger.LedgerEntry

	insertCallCount int
	onInsert        func()

	highestErr       error
	findErr          error
	markCompletedErr error
	listStuckErr     error
}

func newMockLedgerRepository() *mockLedgerRepository {
	return &mockLedgerRepository{
		entries: make(map[string]*ledger.LedgerEntry),
	}
}

func (m *mockLedgerRepository) InsertPending(ctx shared.TransactionContext, entry *ledger.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCallCount++
	if m.onInsert != nil {
		m.onInsert()
	}

	key := entry.Reference().String()
	if _, exists := m.entries[key]; exists {
		return ledger.ErrDuplicateTier
	}
	m.entries[key] = entry
	return nil
}

func (m *mockLedgerRepository) MarkCompleted(ctx shared.TransactionContext, reference ledger.Reference, depositID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markCompletedErr != nil {
		return m.markCompletedErr
	}
	entry, exists := m.entries[reference.String()]
	if !exists || entry.Status() != ledger.StatusPending {
		return nil // 條件更新：non-PENDING 為 no-op
	}
	return entry.MarkCompleted(depositID)
}

func (m *mockLedgerRepository) MarkFailed(ctx shared.TransactionContext, reference ledger.Reference, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[reference.String()]
	if !exists || entry.Status() != ledger.StatusPending {
		return nil
	}
	return entry.MarkFailed(failureReason)
}

func (m *mockLedgerRepository) MarkRetrying(ctx shared.TransactionContext, reference ledger.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[reference.String()]
	if !exists || entry.Status() != ledger.StatusFailed {
		return nil
	}
	return entry.MarkRetrying()
}

func (m *mockLedgerRepository) HighestRecordedTier(ctx shared.TransactionContext, loyaltyID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.highestErr != nil {
		return 0, m.highestErr
	}
	highest := 0
	for _, entry := range m.entries {
		if entry.LoyaltyID() != loyaltyID {
			continue
		}
		// FAILED 行不算已記錄
		if entry.Status() == ledger.StatusFailed {
			continue
		}
		if entry.RewardTier() > highest {
			highest = entry.RewardTier()
		}
	}
	return highest, nil
}

func (m *mockLedgerRepository) FindByReference(ctx shared.TransactionContext, reference ledger.Reference) (*ledger.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[reference.String()]
	if !exists {
		return nil, ledger.ErrEntryNotFound
	}
	return entry, nil
}

func (m *mockLedgerRepository) FindByLoyaltyID(ctx shared.TransactionContext, loyaltyID string) ([]*ledger.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	entries := make([]*ledger.LedgerEntry, 0)
	for _, entry := range m.entries {
		if entry.LoyaltyID() == loyaltyID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RewardTier() < entries[j].RewardTier()
	})
	return entries, nil
}

func (m *mockLedgerRepository) ListStuck(ctx shared.TransactionContext, cutoff time.Time) ([]*ledger.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listStuckErr != nil {
		return nil, m.listStuckErr
	}
	// cutoff 過濾屬於真實存儲層；這裡返回所有未完成行即可
	entries := make([]*ledger.LedgerEntry, 0)
	for _, entry := range m.entries {
		if entry.Status() == ledger.StatusCompleted {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LoyaltyID() != entries[j].LoyaltyID() {
			return entries[i].LoyaltyID() < entries[j].LoyaltyID()
		}
		return entries[i].RewardTier() < entries[j].RewardTier()
	})
	return entries, nil
}

// statusOf 測試輔助：按 reference 字串讀取行狀態
func (m *mockLedgerRepository) statusOf(reference string) ledger.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[reference]
	if !exists {
		return ledger.Status("")
	}
	return entry.Status()
}

// seed 測試輔助：預置一條指定狀態的行
func (m *mockLedgerRepository) seed(t *testing.T, loyaltyID string, tier int, status ledger.Status) *ledger.LedgerEntry {
	t.Helper()

	entry, err := ledger.NewPendingEntry(loyaltyID, tier, "pos-user-1", reward.DefaultCreditAmount())
	require.NoError(t, err)

	switch status {
	case ledger.StatusCompleted:
		require.NoError(t, entry.MarkCompleted("deposit-seed"))
	case ledger.StatusFailed:
		require.NoError(t, entry.MarkFailed("seeded failure"))
	}
	entry.PullEvents()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Reference().String()] = entry
	return entry
}

// mockCreditIssuer 模擬 POS 儲值端點
type mockCreditIssuer struct {
	mu                  sync.Mutex
	depositCallCount    int
	depositsByReference map[string]int
	failByReference     map[string]error
	depositErr          error
}

func newMockCreditIssuer() *mockCreditIssuer {
	return &mockCreditIssuer{
		depositsByReference: make(map[string]int),
		failByReference:     make(map[string]error),
	}
}

func (m *mockCreditIssuer) Deposit(ctx context.Context, posAccountID string, amount reward.CreditAmount, reference string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.depositCallCount++
	m.depositsByReference[reference]++

	if err, ok := m.failByReference[reference]; ok {
		return "", err
	}
	if m.depositErr != nil {
		return "", m.depositErr
	}
	return "deposit-" + reference, nil
}

// mockIdentityResolver 模擬身份解析器
type mockIdentityResolver struct {
	mu           sync.Mutex
	posAccountID string
	resolveErr   error
	callCount    int
}

func (m *mockIdentityResolver) Resolve(ctx context.Context, loyaltyID string, contact reward.Contact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return m.posAccountID, nil
}

// mockTransactionManager 模擬事務管理器（直接執行回調）
type mockTransactionManager struct{}

func (m *mockTransactionManager) InTransaction(fn func(ctx shared.TransactionContext) error) error {
	return fn(nil)
}

// ===========================
// 測試輔助
// ===========================

type engineFixture struct {
	repo     *mockLedgerRepository
	resolver *mockIdentityResolver
	issuer   *mockCreditIssuer
	useCase  *ReconcileUseCase
}

func newEngineFixture() *engineFixture {
	repo := newMockLedgerRepository()
	resolver := &mockIdentityResolver{posAccountID: "pos-user-1"}
	issuer := newMockCreditIssuer()

	useCase := NewReconcileUseCase(
		repo, resolver, issuer, &mockTransactionManager{},
		reward.DefaultCreditAmount(), 5*time.Second,
	)
	return &engineFixture{repo: repo, resolver: resolver, issuer: issuer, useCase: useCase}
}

func commandFor(loyaltyID string, stamps, earned, redeemed int) ReconcileCommand {
	return ReconcileCommand{
		LoyaltyID:            loyaltyID,
		StampsTotal:          stamps,
		RewardsEarnedTotal:   earned,
		RewardsRedeemedTotal: redeemed,
		Email:                "amy@example.com",
		Phone:                "+27821234567",
		DisplayName:          "Amy van Wyk",
	}
}

// ===========================
// ReconcileUseCase 測試
// ===========================

// Test 1: 新卡首次對帳——earned=2 入帳兩個 tier
func TestReconcile_NewCard_CreditsEachEarnedTier(t *testing.T) {
	// Arrange
	f := newEngineFixture()
	cmd := commandFor("card-1", 25, 2, 0)

	// Act
	result, err := f.useCase.Execute(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result.CompletedTiers)
	assert.Equal(t, 2, result.Processed())
	assert.Equal(t, ReasonCompleted, result.Reason)
	assert.Equal(t, "80", result.CreditTotal.String()) // 2 × R40
	assert.Equal(t, "Amy van Wyk", result.CustomerName)
	assert.Equal(t, 25, result.StampsTotal)
	assert.Equal(t, 11, result.StampsUntilNext) // 25 % 12 = 1 → 還差 11

	// 每 tier 一次儲值，帶確定性 reference
	assert.Equal(t, 2, f.issuer.depositCallCount)
	assert.Equal(t, 1, f.issuer.depositsByReference["LOOPY_card-1_LVL1"])
	assert.Equal(t, 1, f.issuer.depositsByReference["LOOPY_card-1_LVL2"])

	// 台帳兩行 COMPLETED
	assert.Equal(t, ledger.StatusCompleted, f.repo.statusOf("LOOPY_card-1_LVL1"))
	assert.Equal(t, ledger.StatusCompleted, f.repo.statusOf("LOOPY_card-1_LVL2"))
}

// Test 2: 重複 webhook——同一快照再次觀察不產生任何副作用
func TestReconcile_DuplicateSnapshot_NoNewRewards(t *testing.T) {
	// Arrange：第一次對帳已入帳 tier 1
	f := newEngineFixture()
	cmd := commandFor("card-1", 12, 1, 0)
	_, err := f.useCase.Execute(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, 1, f.issuer.depositCallCount)

	// Act：同一快照第二次觀察
	result, err := f.useCase.Execute(context.Background(), cmd)

	// Assert：正常結果、零儲值、零身份解析
	require.NoError(t, err)
	assert.Equal(t, ReasonNoNewRewards, result.Reason)
	assert.Equal(t, 0, result.Processed())
	assert.Equal(t, 1, f.issuer.depositCallCount, "no second deposit")
	assert.Equal(t, 1, f.resolver.callCount, "no resolution on the duplicate call")
}

// Test 3: 跨調用的水位推進——對帳只處理新增區間
func TestReconcile_CounterGrowth_ProcessesOnlyNewTiers(t *testing.T) {
	// Arrange
	f := newEngineFixture()

	// 第一次：earned=1
	result1, err := f.useCase.Execute(context.Background(), commandFor("card-1", 12, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result1.CompletedTiers)

	// Act：第二次 earned=3——只補 tier 2、3
	result2, err := f.useCase.Execute(context.Background(), commandFor("card-1", 40, 3, 1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, result2.CompletedTiers)
	assert.Equal(t, 3, f.issuer.depositCallCount)
	assert.Equal(t, 1, f.issuer.depositsByReference["LOOPY_card-1_LVL1"], "tier 1 never re-deposited")
}

// Test 4: 併發對帳——5 個調用者搶同一快照，恰好入帳一次
func TestReconcile_ConcurrentCalls_ExactlyOneDeposit(t *testing.T) {
	// Arrange
	f := newEngineFixture()
	cmd := commandFor("card-1", 12, 1, 0)

	const goroutines = 5
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	// Act
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = f.useCase.Execute(context.Background(), cmd)
		}(i)
	}
	wg.Wait()

	// Assert：全部成功返回，儲值恰好一次
	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}
	assert.Equal(t, 1, f.issuer.depositCallCount)
	assert.Equal(t, 1, f.issuer.depositsByReference["LOOPY_card-1_LVL1"])
	assert.Equal(t, ledger.StatusCompleted, f.repo.statusOf("LOOPY_card-1_LVL1"))
}

// Test 5: 單調性違反——earned 低於已記錄水位是資料完整性錯誤
func TestReconcile_EarnedBelowWatermark_RejectsSnapshot(t *testing.T) {
	// Arrange：台帳已記錄到 tier 3
	f := newEngineFixture()
	f.repo.seed(t, "card-1", 1, ledger.StatusCompleted)
	f.repo.seed(t, "card-1", 2, ledger.StatusCompleted)
	f.repo.seed(t, "card-1", 3, ledger.StatusCompleted)

	// Act：快照聲稱 earned=2
	_, err := f.useCase.Execute(context.Background(), commandFor("card-1", 25, 2, 0))

	// Assert
	assert.True(t, errors.Is(err, reward.ErrInvalidSnapshot))
	assert.Equal(t, 0, f.issuer.depositCallCount)
}

// Test 6: 儲值確定性失敗——行轉 FAILED、中止後續 tier
func TestReconcile_DepositRejected_MarksFailedAndAborts(t *testing.T) {
	// Arrange：tier 1 的儲值被 POS 拒絕
	f := newEngineFixture()
	f.issuer.failByReference["LOOPY_card-1_LVL1"] = errors.New("deposit endpoint returned 422")

	// Act：earned=2
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 25, 2, 0))

	// Assert
	assert.True(t, errors.Is(err, reward.ErrCreditApplicationFailed))
	assert.Equal(t, 1, result.FailedTier)
	assert.Equal(t, ReasonCreditFailed, result.Reason)
	assert.Empty(t, result.CompletedTiers)

	// tier 1 FAILED 落盤；tier 2 從未被嘗試（順序保證）
	assert.Equal(t, ledger.StatusFailed, f.repo.statusOf("LOOPY_card-1_LVL1"))
	assert.Equal(t, ledger.Status(""), f.repo.statusOf("LOOPY_card-1_LVL2"))
	assert.Equal(t, 1, f.issuer.depositCallCount)
}

// Test 7: 儲值逾時——行留在 PENDING 交給 sweep，不做行內重試
func TestReconcile_DepositTimeout_LeavesPendingForSweep(t *testing.T) {
	// Arrange
	f := newEngineFixture()
	f.issuer.failByReference["LOOPY_card-1_LVL1"] = context.DeadlineExceeded

	// Act
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 12, 1, 0))

	// Assert
	assert.True(t, errors.Is(err, reward.ErrCreditApplicationFailed))
	assert.Equal(t, ReasonLeftPendingSweep, result.Reason)
	assert.Equal(t, ledger.StatusPending, f.repo.statusOf("LOOPY_card-1_LVL1"))
	assert.Equal(t, 1, f.issuer.depositCallCount, "no in-call retry")
}

// Test 8: 身份解析失敗——不寫任何台帳行
func TestReconcile_IdentityUnresolved_NoLedgerRows(t *testing.T) {
	// Arrange
	f := newEngineFixture()
	f.resolver.resolveErr = reward.ErrIdentityUnresolved.WithContext("cause", "directory down")

	// Act
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 12, 1, 0))

	// Assert
	assert.True(t, errors.Is(err, reward.ErrIdentityUnresolved))
	assert.Equal(t, ReasonIdentityFailed, result.Reason)
	assert.Equal(t, 1, result.FailedTier)
	assert.Equal(t, 0, f.repo.insertCallCount)
	assert.Equal(t, 0, f.issuer.depositCallCount)
}

// Test 9: 插入衝突且既有行 FAILED——重試權屬於 sweep，中止後續 tier
func TestReconcile_DuplicateOnFailedRow_AwaitsSweep(t *testing.T) {
	// Arrange：tier 1 上一輪失敗，FAILED 行留存
	f := newEngineFixture()
	f.repo.seed(t, "card-1", 1, ledger.StatusFailed)

	// Act：earned=2（HighestRecordedTier 不計 FAILED，引擎從 tier 1 重新開始）
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 25, 2, 0))

	// Assert：不報錯，但 tier 1 等待 sweep，tier 2 被中止
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedTier)
	assert.Equal(t, ReasonAwaitingRetry, result.Reason)
	assert.Empty(t, result.CompletedTiers)
	assert.Equal(t, 0, f.issuer.depositCallCount, "engine never deposits over a failed tier")
	assert.Equal(t, ledger.Status(""), f.repo.statusOf("LOOPY_card-1_LVL2"))
}

// Test 10: 插入衝突且既有行已完成——跳過該 tier 繼續更高 tier
func TestReconcile_DuplicateOnCompletedRow_SkipsAndContinues(t *testing.T) {
	// Arrange：模擬與另一個調用者的競爭——本調用讀到水位 0 之後、
	// 插入 tier 1 之前，對方已把 tier 1 完成
	f := newEngineFixture()
	f.repo.onInsert = func() {
		if _, exists := f.repo.entries["LOOPY_card-1_LVL1"]; !exists {
			entry, err := ledger.NewPendingEntry("card-1", 1, "pos-user-1", reward.DefaultCreditAmount())
			require.NoError(t, err)
			require.NoError(t, entry.MarkCompleted("deposit-rival"))
			f.repo.entries["LOOPY_card-1_LVL1"] = entry
		}
	}

	// Act：earned=2
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 25, 2, 0))

	// Assert：tier 1 跳過、tier 2 正常入帳
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result.SkippedTiers)
	assert.Equal(t, []int{2}, result.CompletedTiers)
	assert.Equal(t, 1, f.issuer.depositsByReference["LOOPY_card-1_LVL2"])
	assert.Equal(t, 0, f.issuer.depositsByReference["LOOPY_card-1_LVL1"])
}

// Test 11: 定案寫入失敗——儲值已生效但行留在 PENDING
func TestReconcile_MarkCompletedFails_LeavesPendingForSweep(t *testing.T) {
	// Arrange
	f := newEngineFixture()
	f.repo.markCompletedErr = errors.New("database is locked")

	// Act
	result, err := f.useCase.Execute(context.Background(), commandFor("card-1", 12, 1, 0))

	// Assert：ErrStoreUnavailable；行留在 PENDING，sweep 帶同一
	// reference 重試時 POS 端按冪等鍵去重
	assert.True(t, errors.Is(err, reward.ErrStoreUnavailable))
	assert.Equal(t, ReasonLeftPendingSweep, result.Reason)
	assert.Equal(t, ledger.StatusPending, f.repo.statusOf("LOOPY_card-1_LVL1"))
}

// Test 12: 非法快照——負計數器直接拒絕
func TestReconcile_NegativeCounters_RejectsSnapshot(t *testing.T) {
	f := newEngineFixture()

	_, err := f.useCase.Execute(context.Background(), commandFor("card-1", -1, 1, 0))

	assert.True(t, errors.Is(err, reward.ErrInvalidSnapshot))
	assert.Equal(t, 0, f.resolver.callCount)
}

// Test 13: 台帳不可讀——對帳立即失敗，無副作用
func TestReconcile_LedgerUnreadable_ReturnsStoreUnavailable(t *testing.T) {
	f := newEngineFixture()
	f.repo.highestErr = errors.New("database is locked")

	_, err := f.useCase.Execute(context.Background(), commandFor("card-1", 12, 1, 0))

	assert.True(t, errors.Is(err, reward.ErrStoreUnavailable))
	assert.Equal(t, 0, f.issuer.depositCallCount)
}
