package tcp

import (
	"context"
	"net"
	"sync"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var _ pkgif.Listener = (*Listener)(nil)

// Listener TCP 监听器
//
// 后台 goroutine 接受原始连接并逐个并发升级，
// 升级成功的连接经 Accept 交付。
type Listener struct {
	t    *Transport
	nl   net.Listener
	addr types.Multiaddr

	conns  chan *conn
	closed chan struct{}

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

func newListener(t *Transport, nl net.Listener, addr types.Multiaddr) *Listener {
	l := &Listener{
		t:      t,
		nl:     nl,
		addr:   addr,
		conns:  make(chan *conn),
		closed: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		raw, err := l.nl.Accept()
		if err != nil {
			select {
			case <-l.closed:
			default:
				log.Warn("TCP accept 失败", "addr", l.addr, "err", err)
			}
			return
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.upgradeInbound(raw)
		}()
	}
}

func (l *Listener) upgradeInbound(raw net.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultHandshakeTimeout)
	defer cancel()

	c, err := l.t.up.upgrade(ctx, raw, true, types.EmptyPeerID)
	if err != nil {
		log.Debug("入站连接升级失败", "remote", raw.RemoteAddr(), "err", err)
		return
	}

	select {
	case l.conns <- c:
	case <-l.closed:
		_ = c.Close()
	}
}

// Accept 实现 Listener
func (l *Listener) Accept(ctx context.Context) (pkgif.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, ErrListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Addr 实现 Listener
func (l *Listener) Addr() types.Multiaddr { return l.addr }

// Close 实现 Listener
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.t.removeListener(l)
		l.closeErr = l.nl.Close()
		l.wg.Wait()
		log.Info("TCP 监听已关闭", "addr", l.addr)
	})
	return l.closeErr
}
