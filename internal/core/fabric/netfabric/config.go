package netfabric

import (
	"time"

	"github.com/dep2p/go-p2pcomm/config"
)

// DefaultMaxFrameSize 单帧上限（4 MiB）
const DefaultMaxFrameSize = 4 << 20

// Config 网络层配置
type Config struct {
	// RequestTimeout 单个出站请求从开流到读完响应的时限
	RequestTimeout time.Duration

	// ResponseTTL 入站请求等待本地响应的最长时间，过期后重置流
	ResponseTTL time.Duration

	// AddrBookSize 地址簿容量
	AddrBookSize int

	// MaxFrameSize 单帧上限
	MaxFrameSize int

	// EnableRelayService 转发目标不是本节点的请求
	EnableRelayService bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		ResponseTTL:    30 * time.Second,
		AddrBookSize:   1024,
		MaxFrameSize:   DefaultMaxFrameSize,
	}
}

// ConfigFromUnified 从统一配置创建网络层配置
func ConfigFromUnified(cfg *config.Config) Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if ttl := cfg.Transport.ResponseTTL.Duration(); ttl > 0 {
		out.RequestTimeout = ttl
		out.ResponseTTL = ttl
	}
	if cfg.Transport.AddrBookSize > 0 {
		out.AddrBookSize = cfg.Transport.AddrBookSize
	}
	out.EnableRelayService = cfg.Relay.EnableService
	return out
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.ResponseTTL <= 0 {
		c.ResponseTTL = def.ResponseTTL
	}
	if c.AddrBookSize <= 0 {
		c.AddrBookSize = def.AddrBookSize
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = def.MaxFrameSize
	}
	return c
}
