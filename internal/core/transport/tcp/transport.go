package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("transport/tcp")

var _ pkgif.Transport = (*Transport)(nil)

// Transport TCP+TLS+yamux 传输
type Transport struct {
	up     *upgrader
	dialer net.Dialer

	mu        sync.Mutex
	listeners map[*Listener]struct{}
	closed    bool
}

// New 创建 TCP 传输
func New(id *identity.Identity) (*Transport, error) {
	up, err := newUpgrader(id)
	if err != nil {
		return nil, err
	}
	return &Transport{
		up:        up,
		listeners: make(map[*Listener]struct{}),
	}, nil
}

// Name 实现 Transport
func (t *Transport) Name() string { return types.TransportTCP }

// CanDial 实现 Transport
func (t *Transport) CanDial(addr types.Multiaddr) bool {
	return addr.Transport() == types.TransportTCP
}

// Dial 实现 Transport
func (t *Transport) Dial(ctx context.Context, addr types.Multiaddr, expect types.PeerID) (pkgif.Conn, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	hp, err := netAddr(addr)
	if err != nil {
		return nil, err
	}

	raw, err := t.dialer.DialContext(ctx, "tcp", hp)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}

	c, err := t.up.upgrade(ctx, raw, false, expect)
	if err != nil {
		return nil, fmt.Errorf("tcp upgrade %s: %w", addr, err)
	}
	log.Debug("TCP 连接已建立", "peer", c.remote.ShortString(), "addr", addr)
	return c, nil
}

// Listen 实现 Transport
func (t *Transport) Listen(addr types.Multiaddr) (pkgif.Listener, error) {
	hp, err := netAddr(addr)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	nl, err := net.Listen("tcp", hp)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", addr, err)
	}
	bound, err := types.FromNetAddr(nl.Addr(), types.TransportTCP)
	if err != nil {
		_ = nl.Close()
		return nil, err
	}

	l := newListener(t, nl, bound)
	t.listeners[l] = struct{}{}
	log.Info("TCP 监听已启动", "addr", bound)
	return l, nil
}

func (t *Transport) checkOpen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	return nil
}

func (t *Transport) removeListener(l *Listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

// Close 实现 Transport
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	listeners := make([]*Listener, 0, len(t.listeners))
	for l := range t.listeners {
		listeners = append(listeners, l)
	}
	t.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	return err
}

func netAddr(addr types.Multiaddr) (string, error) {
	if addr.Transport() != types.TransportTCP {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAddr, addr)
	}
	return addr.NetAddr()
}
