package quic

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var _ pkgif.Listener = (*Listener)(nil)

// Listener QUIC 监听器
type Listener struct {
	t    *Transport
	tr   *quic.Transport
	conn *net.UDPConn
	ql   *quic.Listener
	addr types.Multiaddr

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Accept 实现 Listener
//
// 无法从证书派生身份的连接被关闭并跳过。
func (l *Listener) Accept(ctx context.Context) (pkgif.Conn, error) {
	for {
		qc, err := l.ql.Accept(ctx)
		if err != nil {
			if l.closed.Load() {
				return nil, ErrListenerClosed
			}
			return nil, fmt.Errorf("quic accept: %w", err)
		}

		c, err := newConn(qc, l.t.id.PeerID())
		if err != nil {
			log.Debug("拒绝入站连接", "remote", qc.RemoteAddr(), "err", err)
			_ = qc.CloseWithError(0, "bad identity")
			continue
		}
		return c, nil
	}
}

// Addr 实现 Listener
func (l *Listener) Addr() types.Multiaddr { return l.addr }

// Close 实现 Listener
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.t.removeListener(l)
		l.closeErr = multierr.Combine(l.ql.Close(), l.tr.Close(), l.conn.Close())
		log.Info("QUIC 监听已关闭", "addr", l.addr)
	})
	return l.closeErr
}
