package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("transport/quic")

// ALPN 协议标识
const ALPN = "p2pcomm"

var _ pkgif.Transport = (*Transport)(nil)

// Transport QUIC 传输
type Transport struct {
	id      *identity.Identity
	tlsConf *tls.Config
	config  *quic.Config

	mu        sync.Mutex
	listeners map[*Listener]struct{}
	dialer    *quic.Transport
	dialConn  *net.UDPConn
	closed    bool
}

// New 创建 QUIC 传输
func New(id *identity.Identity) (*Transport, error) {
	tlsConf, err := id.TLSConfig(ALPN)
	if err != nil {
		return nil, err
	}

	return &Transport{
		id:      id,
		tlsConf: tlsConf,
		config: &quic.Config{
			// KeepAlivePeriod + MaxIdleTimeout 约 9s 内发现非正常断开
			MaxIdleTimeout:     6 * time.Second,
			KeepAlivePeriod:    3 * time.Second,
			MaxIncomingStreams: 1024,
		},
		listeners: make(map[*Listener]struct{}),
	}, nil
}

// Name 实现 Transport
func (t *Transport) Name() string { return types.TransportQUIC }

// CanDial 实现 Transport
func (t *Transport) CanDial(addr types.Multiaddr) bool {
	return addr.Transport() == types.TransportQUIC
}

// Dial 实现 Transport
func (t *Transport) Dial(ctx context.Context, addr types.Multiaddr, expect types.PeerID) (pkgif.Conn, error) {
	udpAddr, err := resolve(addr)
	if err != nil {
		return nil, err
	}

	tr, err := t.dialTransport()
	if err != nil {
		return nil, err
	}

	qc, err := tr.Dial(ctx, udpAddr, t.tlsConf, t.config)
	if err != nil {
		return nil, fmt.Errorf("quic dial %s: %w", addr, err)
	}

	c, err := newConn(qc, t.id.PeerID())
	if err != nil {
		_ = qc.CloseWithError(0, "bad identity")
		return nil, err
	}
	if err := identity.CheckPeer(expect, c.remote); err != nil {
		_ = qc.CloseWithError(0, "unexpected peer")
		return nil, err
	}
	log.Debug("QUIC 连接已建立", "peer", c.remote.ShortString(), "addr", addr)
	return c, nil
}

// dialTransport 返回拨号专用的 socket，首次拨号时创建
//
// 不复用监听 socket：移除监听器不应断开已拨出的连接。
func (t *Transport) dialTransport() (*quic.Transport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.dialer == nil {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			return nil, fmt.Errorf("quic: open dial socket: %w", err)
		}
		t.dialConn = conn
		t.dialer = &quic.Transport{Conn: conn}
	}
	return t.dialer, nil
}

// Listen 实现 Transport
func (t *Transport) Listen(addr types.Multiaddr) (pkgif.Listener, error) {
	udpAddr, err := resolve(addr)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("quic listen %s: %w", addr, err)
	}
	tr := &quic.Transport{Conn: conn}
	ql, err := tr.Listen(t.tlsConf, t.config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("quic listen %s: %w", addr, err)
	}

	bound, err := types.FromNetAddr(conn.LocalAddr(), types.TransportQUIC)
	if err != nil {
		_ = ql.Close()
		_ = conn.Close()
		return nil, err
	}

	l := &Listener{t: t, tr: tr, conn: conn, ql: ql, addr: bound}
	t.listeners[l] = struct{}{}
	log.Info("QUIC 监听已启动", "addr", bound)
	return l, nil
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
	dialer, dialConn := t.dialer, t.dialConn
	t.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	if dialer != nil {
		err = multierr.Append(err, dialer.Close())
		err = multierr.Append(err, dialConn.Close())
	}
	return err
}

func resolve(addr types.Multiaddr) (*net.UDPAddr, error) {
	if addr.Transport() != types.TransportQUIC {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddr, addr)
	}
	hp, err := addr.NetAddr()
	if err != nil {
		return nil, err
	}
	return net.ResolveUDPAddr("udp", hp)
}
