package transport

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/internal/core/transport/quic"
	"github.com/dep2p/go-p2pcomm/internal/core/transport/tcp"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("core/transport")

// Config 传输层配置
type Config struct {
	EnableQUIC bool
	EnableTCP  bool

	// DialTimeout 单次拨号（含握手）的时限
	DialTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		EnableQUIC:  true,
		EnableTCP:   true,
		DialTimeout: 10 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		EnableQUIC:  cfg.Transport.EnableQUIC,
		EnableTCP:   cfg.Transport.EnableTCP,
		DialTimeout: cfg.Transport.DialTimeout.Duration(),
	}
}

// Manager 传输管理器
type Manager struct {
	config     Config
	local      types.PeerID
	transports []pkgif.Transport
}

// NewManager 按配置创建传输
func NewManager(cfg Config, id *identity.Identity) (*Manager, error) {
	if id == nil {
		return nil, identity.ErrKeyNotFound
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}

	m := &Manager{config: cfg, local: id.PeerID()}

	if cfg.EnableQUIC {
		qt, err := quic.New(id)
		if err != nil {
			return nil, fmt.Errorf("create quic transport: %w", err)
		}
		m.transports = append(m.transports, qt)
	}
	if cfg.EnableTCP {
		tt, err := tcp.New(id)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("create tcp transport: %w", err)
		}
		m.transports = append(m.transports, tt)
	}
	if len(m.transports) == 0 {
		return nil, ErrNoTransportsEnabled
	}

	log.Debug("传输管理器已创建", "peer", m.local.ShortString(), "quic", cfg.EnableQUIC, "tcp", cfg.EnableTCP)
	return m, nil
}

// LocalPeer 返回本地节点 ID
func (m *Manager) LocalPeer() types.PeerID { return m.local }

// DialTimeout 返回拨号时限
func (m *Manager) DialTimeout() time.Duration { return m.config.DialTimeout }

// Transports 返回所有已启用的传输
func (m *Manager) Transports() []pkgif.Transport {
	return append([]pkgif.Transport(nil), m.transports...)
}

// TransportFor 返回能处理 addr 的传输
func (m *Manager) TransportFor(addr types.Multiaddr) (pkgif.Transport, error) {
	for _, t := range m.transports {
		if t.CanDial(addr) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoTransport, addr)
}

// Close 关闭所有传输
func (m *Manager) Close() error {
	var err error
	for _, t := range m.transports {
		err = multierr.Append(err, t.Close())
	}
	return err
}
