package config

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// RelayConfig 启动时应用的中继配置
//
// Mode 为 "none" 或空时不使用中继；"always"/"backup" 需要 Peer 与 Addr。
type RelayConfig struct {
	Mode string `json:"mode"`

	// Peer 中继节点 ID（Base58）
	Peer string `json:"peer,omitempty"`

	// Addr 中继节点地址（multiaddr）
	Addr string `json:"addr,omitempty"`

	// EnableService 为其他节点转发信封
	EnableService bool `json:"enable_service"`

	// ServiceRate 每个来源节点每秒允许的转发数（0 = 不限制）
	ServiceRate float64 `json:"service_rate"`

	// ServiceBurst 转发速率突发上限
	ServiceBurst int `json:"service_burst"`

	// MaxCircuits 总并发转发数（0 = 不限制）
	MaxCircuits int `json:"max_circuits"`

	// MaxCircuitsPerPeer 单个来源节点并发转发数（0 = 不限制）
	MaxCircuitsPerPeer int `json:"max_circuits_per_peer"`
}

// DefaultRelayConfig 默认不使用中继
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Mode:               "none",
		ServiceRate:        50,
		ServiceBurst:       100,
		MaxCircuits:        1024,
		MaxCircuitsPerPeer: 32,
	}
}

// Validate 验证中继配置
func (c RelayConfig) Validate() error {
	if c.ServiceRate < 0 || c.ServiceBurst < 0 || c.MaxCircuits < 0 || c.MaxCircuitsPerPeer < 0 {
		return errors.New("relay: service limits must not be negative")
	}
	_, err := c.ToRelayConfig()
	return err
}

// ToRelayConfig 转换为引擎使用的 types.RelayConfig
func (c RelayConfig) ToRelayConfig() (types.RelayConfig, error) {
	mode, err := types.ParseRelayMode(c.Mode)
	if err != nil {
		return types.NoRelay(), fmt.Errorf("relay: %w", err)
	}
	if mode == types.RelayModeNone {
		return types.NoRelay(), nil
	}

	if c.Peer == "" || c.Addr == "" {
		return types.NoRelay(), errors.New("relay: peer and addr are required")
	}
	peer, err := types.ParsePeerID(c.Peer)
	if err != nil {
		return types.NoRelay(), fmt.Errorf("relay: %w", err)
	}
	addr, err := types.ParseMultiaddr(c.Addr)
	if err != nil {
		return types.NoRelay(), fmt.Errorf("relay: %w", err)
	}
	return types.RelayConfig{Mode: mode, Peer: peer, Addr: addr}, nil
}
