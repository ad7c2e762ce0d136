package netfabric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/internal/core/transport"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

type testNode = Node[string, string]

const (
	tcpAny  = types.Multiaddr("/ip4/127.0.0.1/tcp/0")
	quicAny = types.Multiaddr("/ip4/127.0.0.1/udp/0/quic-v1")

	eventTimeout = 10 * time.Second
)

func newNode(t *testing.T, opts ...Option) *testNode {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)

	tm, err := transport.NewManager(transport.DefaultConfig(), id)
	require.NoError(t, err)

	n, err := New[string, string](tm, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = n.Close()
		_ = tm.Close()
	})
	return n
}

// expectEvent 跳过其他事件，直到读到满足 match 的 T 类型事件
func expectEvent[T types.Event](t *testing.T, n *testNode, match func(T) bool) T {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case evt, ok := <-n.Events():
			require.True(t, ok, "事件通道已关闭")
			if e, ok := evt.(T); ok && (match == nil || match(e)) {
				return e
			}
		case <-deadline:
			var zero T
			t.Fatalf("等待 %T 超时", zero)
			return zero
		}
	}
}

func listenOn(t *testing.T, n *testNode, addr types.Multiaddr) types.Multiaddr {
	t.Helper()
	id, err := n.Listen(addr)
	require.NoError(t, err)
	evt := expectEvent(t, n, func(e types.EvtNewListenAddr) bool { return e.Listener == id })
	return evt.Addr
}

// connect a 拨号 b，等待两端都登记连接
func connect(t *testing.T, a, b *testNode, addr types.Multiaddr) {
	t.Helper()
	require.NoError(t, a.DialAddr(addr))
	expectEvent(t, a, func(e types.EvtConnectionEstablished) bool { return e.Peer == b.LocalPeer() })
	expectEvent(t, b, func(e types.EvtConnectionEstablished) bool { return e.Peer == a.LocalPeer() })
}
