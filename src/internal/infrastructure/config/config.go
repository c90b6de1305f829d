package config

import (
	"fmt"
	"os"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ===========================
// BridgeConfig 服務配置
// ===========================

// Duration time.Duration 的 YAML 包裝類型
//
// yaml.v3 不認得 "30s" 這類人類可讀的時長寫法（它把
// time.Duration 當 int64 解析），包裝類型補上 ParseDuration。
type Duration time.Duration

// UnmarshalYAML 實現 yaml.Unmarshaler 介面
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std 轉換為標準庫 time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String 轉換為字串表示（如 "30s"）
func (d Duration) String() string {
	return time.Duration(d).String()
}

// BridgeConfig 對帳服務配置
//
// 範例（bridge.yaml）：
//
//   credit_amount: "40.00"
//   stamps_per_reward: 12
//   database_path: "redemption_ledger.db"
//   call_timeout: 30s
//   sweep_threshold: 10m
//   timezone: "Africa/Johannesburg"
//
// 注意：上游 API 的憑證（token、api key）不在這裡——token 的
// 取得與刷新屬於被排除的外圍系統，核心只消費能力介面。
type BridgeConfig struct {
	// CreditAmount 每份獎勵的儲值金額（十進制字串，如 "40.00"）
	CreditAmount string `yaml:"credit_amount"`

	// StampsPerReward 每份獎勵所需集章數（資訊展示用；
	// tier 計算以 Loopy 的 rewardsEarnedTotal 為準，不用它換算）
	StampsPerReward int `yaml:"stamps_per_reward"`

	// DatabasePath SQLite 資料庫路徑
	DatabasePath string `yaml:"database_path"`

	// CallTimeout 單次上游網路調用的時間上限
	CallTimeout Duration `yaml:"call_timeout"`

	// SweepThreshold 行卡住多久後 sweep 才接手
	SweepThreshold Duration `yaml:"sweep_threshold"`

	// Timezone POS 端要求的時區標識
	Timezone string `yaml:"timezone"`
}

// Default 返回預設配置
func Default() BridgeConfig {
	return BridgeConfig{
		CreditAmount:    "40.00",
		StampsPerReward: reward.StampsPerReward,
		DatabasePath:    "redemption_ledger.db",
		CallTimeout:     Duration(30 * time.Second),
		SweepThreshold:  Duration(10 * time.Minute),
		Timezone:        "Africa/Johannesburg",
	}
}

// Load 從 YAML 文件加載配置
//
// 行為：從 Default() 出發，文件中出現的欄位覆蓋預設值，
// 最後執行 Validate。文件不存在返回錯誤（調用者決定是否
// 回退到純預設配置）。
func Load(path string) (BridgeConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return BridgeConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BridgeConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return BridgeConfig{}, err
	}

	return cfg, nil
}

// Validate 驗證配置的自洽性
func (c BridgeConfig) Validate() error {
	if _, err := c.ParsedCreditAmount(); err != nil {
		return fmt.Errorf("invalid credit_amount %q: %w", c.CreditAmount, err)
	}
	if c.StampsPerReward < 1 {
		return fmt.Errorf("stamps_per_reward must be >= 1, got %d", c.StampsPerReward)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.CallTimeout.Std() <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout)
	}
	if c.SweepThreshold.Std() <= 0 {
		return fmt.Errorf("sweep_threshold must be positive, got %s", c.SweepThreshold)
	}
	return nil
}

// ParsedCreditAmount 將 credit_amount 解析為領域值對象
func (c BridgeConfig) ParsedCreditAmount() (reward.CreditAmount, error) {
	value, err := decimal.NewFromString(c.CreditAmount)
	if err != nil {
		return reward.CreditAmount{}, err
	}
	return reward.NewCreditAmount(value)
}
