// Package config 提供统一的配置管理
//
// 主 Config 嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载与保存。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Swarm.RequestTimeout = config.Duration(5 * time.Second)
//
//	// 从文件加载
//	cfg, err := config.LoadFile("p2pcomm.json")
//
//	// 应用预设
//	err = config.ApplyPreset(cfg, "server")
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config p2pcomm 的完整配置
//
//   - Identity: 节点密钥
//   - Swarm: 引擎等待时限与命令队列
//   - Firewall: 默认防火墙规则
//   - Relay: 启动时应用的中继配置
//   - Transport: QUIC/TCP 传输
//   - Storage: 规则与封禁列表持久化
//   - Metrics: Prometheus 指标
type Config struct {
	Identity  IdentityConfig  `json:"identity"`
	Swarm     SwarmConfig     `json:"swarm"`
	Firewall  FirewallConfig  `json:"firewall"`
	Relay     RelayConfig     `json:"relay"`
	Transport TransportConfig `json:"transport"`
	Storage   StorageConfig   `json:"storage"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:  DefaultIdentityConfig(),
		Swarm:     DefaultSwarmConfig(),
		Firewall:  DefaultFirewallConfig(),
		Relay:     DefaultRelayConfig(),
		Transport: DefaultTransportConfig(),
		Storage:   DefaultStorageConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证所有子配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	validators := []interface{ Validate() error }{
		c.Identity, c.Swarm, c.Firewall, c.Relay, c.Transport, c.Storage, c.Metrics,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FromJSON 从 JSON 创建配置，缺失字段取默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Transport.ListenAddrs = append([]string(nil), c.Transport.ListenAddrs...)
	out.Firewall.BlockedIPs = append([]string(nil), c.Firewall.BlockedIPs...)
	return &out
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "server": 启用持久化与指标，同时监听 QUIC 与 TCP
//   - "minimal": 仅 TCP，禁用持久化与指标
//   - "test": 在 minimal 基础上使用内存存储与较短的等待时限
func ApplyPreset(cfg *Config, preset string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch preset {
	case "":
		return nil
	case "server":
		cfg.Transport.EnableQUIC = true
		cfg.Transport.EnableTCP = true
		cfg.Storage.Enable = true
		cfg.Metrics.Enable = true
	case "minimal":
		cfg.Transport.EnableQUIC = false
		cfg.Transport.EnableTCP = true
		cfg.Storage.Enable = false
		cfg.Metrics.Enable = false
	case "test":
		if err := ApplyPreset(cfg, "minimal"); err != nil {
			return err
		}
		cfg.Storage.InMemory = true
		cfg.Swarm.ListenTimeout = Duration(defaultTestWait)
		cfg.Swarm.DialTimeout = Duration(defaultTestWait)
		cfg.Swarm.RequestTimeout = Duration(defaultTestWait)
		cfg.Swarm.ClientTimeout = Duration(defaultTestWait)
	default:
		return fmt.Errorf("unknown preset: %s", preset)
	}
	return nil
}
