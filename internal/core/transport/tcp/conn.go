package tcp

import (
	"context"
	"fmt"

	"github.com/libp2p/go-yamux/v5"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var _ pkgif.Conn = (*conn)(nil)

// conn yamux 会话上的连接
type conn struct {
	sess   *yamux.Session
	local  types.PeerID
	remote types.PeerID
	laddr  types.Multiaddr
	raddr  types.Multiaddr
}

func (c *conn) LocalPeer() types.PeerID     { return c.local }
func (c *conn) RemotePeer() types.PeerID    { return c.remote }
func (c *conn) LocalAddr() types.Multiaddr  { return c.laddr }
func (c *conn) RemoteAddr() types.Multiaddr { return c.raddr }

func (c *conn) OpenStream(ctx context.Context) (pkgif.Stream, error) {
	s, err := c.sess.OpenStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("yamux open stream: %w", err)
	}
	return s, nil
}

// AcceptStream yamux 的 AcceptStream 不支持 ctx，取消后已接受的流会被重置
func (c *conn) AcceptStream(ctx context.Context) (pkgif.Stream, error) {
	type result struct {
		s   *yamux.Stream
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := c.sess.AcceptStream()
		ch <- result{s: s, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.s, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.s != nil {
				_ = r.s.Reset()
			}
		}()
		return nil, ctx.Err()
	}
}

func (c *conn) Done() <-chan struct{} {
	return c.sess.CloseChan()
}

func (c *conn) Close() error {
	return c.sess.Close()
}
