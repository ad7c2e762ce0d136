package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Transport 已认证的多路复用传输
//
// Dial 返回的连接已完成 TLS 握手，RemotePeer 由对端证书公钥派生，
// 不可伪造。expect 非空时与派生值不一致的连接会被关闭并返回错误。
type Transport interface {
	// Name 返回传输协议名（types.TransportTCP / types.TransportQUIC）
	Name() string

	// CanDial 检查是否支持该地址
	CanDial(addr types.Multiaddr) bool

	// Dial 拨号
	Dial(ctx context.Context, addr types.Multiaddr, expect types.PeerID) (Conn, error)

	// Listen 监听
	Listen(addr types.Multiaddr) (Listener, error)

	// Close 关闭传输及其所有监听器
	Close() error
}

// Listener 传输监听器
type Listener interface {
	// Accept 接受下一个已认证的连接
	Accept(ctx context.Context) (Conn, error)

	// Addr 实际绑定的地址
	Addr() types.Multiaddr

	Close() error
}

// Conn 已认证的多路复用连接
type Conn interface {
	LocalPeer() types.PeerID
	RemotePeer() types.PeerID
	LocalAddr() types.Multiaddr
	RemoteAddr() types.Multiaddr

	// OpenStream 打开新流
	OpenStream(ctx context.Context) (Stream, error)

	// AcceptStream 接受对端打开的流
	AcceptStream(ctx context.Context) (Stream, error)

	// Done 连接关闭后关闭
	Done() <-chan struct{}

	Close() error
}

// Stream 连接上的双向字节流
type Stream interface {
	io.ReadWriter

	// CloseWrite 半关闭写方向，对端读到 EOF
	CloseWrite() error

	// Close 关闭两个方向
	Close() error

	// Reset 异常终止流
	Reset() error

	SetDeadline(t time.Time) error
}
