package swarm

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pcomm/config"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Config 引擎配置
type Config struct {
	// ListenTimeout 等待监听器就绪的时限
	ListenTimeout time.Duration

	// DialTimeout 等待连接建立的时限
	DialTimeout time.Duration

	// RequestTimeout 等待出站请求响应的时限
	RequestTimeout time.Duration

	// ClientTimeout 等待本地处理方应答的时限
	ClientTimeout time.Duration

	// CommandBuffer 命令通道容量
	CommandBuffer int

	// DefaultListenAddr StartListening 未指定地址时使用
	DefaultListenAddr types.Multiaddr

	// 防火墙默认规则
	DefaultInbound  types.FirewallPermission
	DefaultOutbound types.FirewallPermission
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ListenTimeout:     config.DefaultWait,
		DialTimeout:       config.DefaultWait,
		RequestTimeout:    config.DefaultWait,
		ClientTimeout:     config.DefaultWait,
		CommandBuffer:     64,
		DefaultListenAddr: config.DefaultListenAddr,
		DefaultInbound:    types.PermissionAll,
		DefaultOutbound:   types.PermissionAll,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"listen":  c.ListenTimeout,
		"dial":    c.DialTimeout,
		"request": c.RequestTimeout,
		"client":  c.ClientTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s timeout must be positive", ErrInvalidConfig, name)
		}
	}
	if c.CommandBuffer < 0 {
		return fmt.Errorf("%w: negative command buffer", ErrInvalidConfig)
	}
	if c.DefaultListenAddr.Transport() == "" {
		return fmt.Errorf("%w: default listen address %q", ErrInvalidConfig, c.DefaultListenAddr)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建引擎配置
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}

	c := &Config{
		ListenTimeout:     cfg.Swarm.Listen(),
		DialTimeout:       cfg.Swarm.Dial(),
		RequestTimeout:    cfg.Swarm.Request(),
		ClientTimeout:     cfg.Swarm.Client(),
		CommandBuffer:     cfg.Swarm.CommandBuffer,
		DefaultListenAddr: types.Multiaddr(cfg.Swarm.DefaultListenAddr),
		DefaultInbound:    cfg.Firewall.Inbound(),
		DefaultOutbound:   cfg.Firewall.Outbound(),
	}
	if c.DefaultListenAddr.IsEmpty() {
		c.DefaultListenAddr = config.DefaultListenAddr
	}
	return c
}

// settings 构造期选项
type settings struct {
	config  *Config
	clock   clock.Clock
	metrics pkgif.Metrics
	store   pkgif.Engine
}

// Option 引擎选项函数
type Option func(*settings) error

// WithConfig 设置配置
func WithConfig(config *Config) Option {
	return func(s *settings) error {
		if config == nil {
			return ErrInvalidConfig
		}
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = config
		return nil
	}
}

// WithClock 设置时钟，测试中可注入模拟时钟
func WithClock(clk clock.Clock) Option {
	return func(s *settings) error {
		if clk != nil {
			s.clock = clk
		}
		return nil
	}
}

// WithMetrics 设置指标上报
func WithMetrics(m pkgif.Metrics) Option {
	return func(s *settings) error {
		if m != nil {
			s.metrics = m
		}
		return nil
	}
}

// WithStore 设置持久化存储，用于保存防火墙规则
func WithStore(store pkgif.Engine) Option {
	return func(s *settings) error {
		s.store = store
		return nil
	}
}
