package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// TransportConfig 传输层配置
type TransportConfig struct {
	// EnableQUIC 启用 QUIC 传输
	EnableQUIC bool `json:"enable_quic"`

	// EnableTCP 启用 TCP+TLS+yamux 传输
	EnableTCP bool `json:"enable_tcp"`

	// ListenAddrs 启动时监听的地址，为空时由调用方决定
	ListenAddrs []string `json:"listen_addrs,omitempty"`

	// DialTimeout 单次拨号的传输层超时
	DialTimeout Duration `json:"dial_timeout"`

	// ResponseTTL 入站请求等待本地响应的最长保留时间
	ResponseTTL Duration `json:"response_ttl"`

	// AddrBookSize 地址簿容量
	AddrBookSize int `json:"addr_book_size"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableQUIC:   true,
		EnableTCP:    true,
		DialTimeout:  Duration(10 * time.Second),
		ResponseTTL:  Duration(30 * time.Second),
		AddrBookSize: 1024,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if !c.EnableQUIC && !c.EnableTCP {
		return errors.New("transport: at least one of quic or tcp must be enabled")
	}
	if c.DialTimeout < 0 || c.ResponseTTL < 0 {
		return errors.New("transport: timeouts must not be negative")
	}
	if c.AddrBookSize < 0 {
		return errors.New("transport: addr_book_size must not be negative")
	}
	for _, a := range c.ListenAddrs {
		ma, err := types.ParseMultiaddr(a)
		if err != nil {
			return fmt.Errorf("transport: listen addr %q: %w", a, err)
		}
		if err := c.Supports(ma); err != nil {
			return err
		}
	}
	return nil
}

// Supports 检查地址的传输协议是否已启用
func (c TransportConfig) Supports(ma types.Multiaddr) error {
	switch ma.Transport() {
	case types.TransportQUIC:
		if c.EnableQUIC {
			return nil
		}
	case types.TransportTCP:
		if c.EnableTCP {
			return nil
		}
	}
	return fmt.Errorf("transport: %s not enabled for %s", ma.Transport(), ma)
}
