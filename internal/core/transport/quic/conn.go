package quic

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// resetCode 异常终止流时使用的错误码
const resetCode quic.StreamErrorCode = 1

var _ pkgif.Conn = (*conn)(nil)

type conn struct {
	qc     quic.Connection
	local  types.PeerID
	remote types.PeerID
	laddr  types.Multiaddr
	raddr  types.Multiaddr
}

func newConn(qc quic.Connection, local types.PeerID) (*conn, error) {
	remote, err := identity.PeerFromConnState(qc.ConnectionState().TLS)
	if err != nil {
		return nil, err
	}
	laddr, err := types.FromNetAddr(qc.LocalAddr(), types.TransportQUIC)
	if err != nil {
		return nil, err
	}
	raddr, err := types.FromNetAddr(qc.RemoteAddr(), types.TransportQUIC)
	if err != nil {
		return nil, err
	}
	return &conn{qc: qc, local: local, remote: remote, laddr: laddr, raddr: raddr}, nil
}

func (c *conn) LocalPeer() types.PeerID     { return c.local }
func (c *conn) RemotePeer() types.PeerID    { return c.remote }
func (c *conn) LocalAddr() types.Multiaddr  { return c.laddr }
func (c *conn) RemoteAddr() types.Multiaddr { return c.raddr }

func (c *conn) OpenStream(ctx context.Context) (pkgif.Stream, error) {
	s, err := c.qc.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("quic open stream: %w", err)
	}
	return &stream{Stream: s}, nil
}

func (c *conn) AcceptStream(ctx context.Context) (pkgif.Stream, error) {
	s, err := c.qc.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return &stream{Stream: s}, nil
}

func (c *conn) Done() <-chan struct{} {
	return c.qc.Context().Done()
}

func (c *conn) Close() error {
	return c.qc.CloseWithError(0, "")
}

// stream 把 QUIC 的单向关闭语义映射为 CloseWrite/Close/Reset
type stream struct {
	quic.Stream
}

func (s *stream) CloseWrite() error {
	return s.Stream.Close()
}

func (s *stream) Close() error {
	s.Stream.CancelRead(0)
	return s.Stream.Close()
}

func (s *stream) Reset() error {
	s.Stream.CancelRead(resetCode)
	s.Stream.CancelWrite(resetCode)
	return nil
}
