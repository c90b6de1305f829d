package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// BridgeConfig 測試
// ===========================

// writeConfigFile 測試輔助：寫入臨時 YAML 配置文件
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Test 1: 預設配置自洽且可直接使用
func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "40.00", cfg.CreditAmount)
	assert.Equal(t, 12, cfg.StampsPerReward)
	assert.Equal(t, "Africa/Johannesburg", cfg.Timezone)

	amount, err := cfg.ParsedCreditAmount()
	require.NoError(t, err)
	assert.True(t, amount.Equals(reward.DefaultCreditAmount()))
}

// Test 2: 文件欄位覆蓋預設值，未出現的欄位保持預設
func TestLoad_FileOverridesDefaults(t *testing.T) {
	// Arrange
	path := writeConfigFile(t, `
credit_amount: "50.00"
call_timeout: 10s
`)

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "50.00", cfg.CreditAmount)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout.Std())

	// 未覆蓋的欄位保持預設
	assert.Equal(t, "redemption_ledger.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Minute, cfg.SweepThreshold.Std())
}

// Test 3: 文件不存在——返回錯誤，由調用者決定回退策略
func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))

	assert.Error(t, err)
}

// Test 4: 非法 YAML
func TestLoad_MalformedYAML_ReturnsError(t *testing.T) {
	path := writeConfigFile(t, "credit_amount: [not: a: string")

	_, err := Load(path)

	assert.Error(t, err)
}

// Test 4b: 無法解析的時長寫法
func TestLoad_UnparsableDuration_ReturnsError(t *testing.T) {
	path := writeConfigFile(t, `call_timeout: "soon"`)

	_, err := Load(path)

	assert.Error(t, err)
}

// Test 5: 驗證拒絕不自洽的配置
func TestValidate_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BridgeConfig)
	}{
		{"non-numeric credit amount", func(c *BridgeConfig) { c.CreditAmount = "forty" }},
		{"zero credit amount", func(c *BridgeConfig) { c.CreditAmount = "0" }},
		{"negative credit amount", func(c *BridgeConfig) { c.CreditAmount = "-40.00" }},
		{"zero stamps per reward", func(c *BridgeConfig) { c.StampsPerReward = 0 }},
		{"empty database path", func(c *BridgeConfig) { c.DatabasePath = "" }},
		{"zero call timeout", func(c *BridgeConfig) { c.CallTimeout = 0 }},
		{"negative sweep threshold", func(c *BridgeConfig) { c.SweepThreshold = Duration(-time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

// Test 6: Load 對非法配置同樣拒絕
func TestLoad_InvalidConfig_ReturnsError(t *testing.T) {
	path := writeConfigFile(t, `credit_amount: "-40.00"`)

	_, err := Load(path)

	assert.Error(t, err)
}
