package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// IdentityMapping 聚合測試
// ===========================

// Test 1: 創建合法映射
func TestNewIdentityMapping_Success(t *testing.T) {
	mapping, err := NewIdentityMapping("cAa5LinPwMnvN7dLwCSUY", "pos-user-1")

	require.NoError(t, err)
	assert.Equal(t, "cAa5LinPwMnvN7dLwCSUY", mapping.LoyaltyID())
	assert.Equal(t, "pos-user-1", mapping.POSAccountID())
	assert.False(t, mapping.MappingID().IsEmpty())

	// 發布 MappingCreatedEvent
	events := mapping.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "identity.mapping_created", events[0].EventType())

	// PullEvents 只讀取一次
	assert.Empty(t, mapping.PullEvents())
}

// Test 2: 建構約束
func TestNewIdentityMapping_InvalidArguments_ReturnsError(t *testing.T) {
	_, err := NewIdentityMapping("", "pos-user-1")
	assert.True(t, errors.Is(err, ErrInvalidMapping), "empty loyaltyID")

	_, err = NewIdentityMapping("card-1", "")
	assert.True(t, errors.Is(err, ErrInvalidMapping), "empty posAccountID")
}

// Test 3: 事件攜帶綁定雙方
func TestMappingCreatedEvent_CarriesBinding(t *testing.T) {
	mapping, err := NewIdentityMapping("card-1", "pos-user-1")
	require.NoError(t, err)

	events := mapping.PullEvents()
	require.Len(t, events, 1)

	created, ok := events[0].(*MappingCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "card-1", created.LoyaltyID())
	assert.Equal(t, "pos-user-1", created.POSAccountID())
	assert.Equal(t, mapping.MappingID().String(), created.AggregateID())
}

// Test 4: 重建驗證不變條件
func TestReconstructIdentityMapping_ValidatesInvariants(t *testing.T) {
	now := time.Now()

	// 合法重建——不發布事件（事件已發生過）
	mapping, err := ReconstructIdentityMapping(NewMappingID(), "card-1", "pos-user-1", now)
	require.NoError(t, err)
	assert.Empty(t, mapping.PullEvents())

	// 空欄位 → 損壞
	_, err = ReconstructIdentityMapping(NewMappingID(), "", "pos-user-1", now)
	assert.True(t, errors.Is(err, ErrCorruptedMapping))

	_, err = ReconstructIdentityMapping(NewMappingID(), "card-1", "", now)
	assert.True(t, errors.Is(err, ErrCorruptedMapping))
}
