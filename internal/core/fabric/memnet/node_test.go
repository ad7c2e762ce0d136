package memnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

type (
	testNet  = Network[string, string]
	testNode = Node[string, string]
)

// nextEvent 读取下一个事件
func nextEvent(t *testing.T, n *testNode) types.Event {
	t.Helper()
	select {
	case evt := <-n.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event")
		return nil
	}
}

// expectEvent 跳过其他事件，直到读到类型为 T 的事件
func expectEvent[T types.Event](t *testing.T, n *testNode) T {
	t.Helper()
	for i := 0; i < 16; i++ {
		if evt, ok := nextEvent(t, n).(T); ok {
			return evt
		}
	}
	var zero T
	t.Fatalf("no %T event", zero)
	return zero
}

func listen(t *testing.T, n *testNode, addr string) types.Multiaddr {
	t.Helper()
	id, err := n.Listen(types.Multiaddr(addr))
	require.NoError(t, err)
	evt := expectEvent[types.EvtNewListenAddr](t, n)
	require.Equal(t, id, evt.Listener)
	return evt.Addr
}

func TestNode_ListenAssignsAddress(t *testing.T) {
	net := NewNetwork[string, string]()
	a := net.NewNode()
	defer a.Close()

	mem := listen(t, a, "/memory/0")
	tcp := listen(t, a, "/ip4/0.0.0.0/tcp/0")

	assert.Equal(t, types.TransportMemory, mem.Transport())
	assert.Equal(t, types.Multiaddr("/ip4/127.0.0.1/tcp/40000"), tcp)
	assert.ElementsMatch(t, []types.Multiaddr{mem, tcp}, a.ListenAddrs())

	_, err := a.Listen(tcp)
	assert.ErrorIs(t, err, ErrAddrInUse)
}

func TestNode_DialAddr(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer a.Close()
	defer b.Close()

	addr := listen(t, b, "/memory/b")

	// 未知地址
	assert.ErrorIs(t, a.Dial(b.LocalPeer()), pkgif.ErrNoAddresses)

	require.NoError(t, a.DialAddr(addr))
	est := expectEvent[types.EvtConnectionEstablished](t, a)
	assert.Equal(t, b.LocalPeer(), est.Peer)
	assert.Equal(t, types.DialerEndpoint(addr), est.Endpoint)
	assert.Equal(t, 1, est.NumEstablished)

	remote := expectEvent[types.EvtConnectionEstablished](t, b)
	assert.Equal(t, a.LocalPeer(), remote.Peer)
	assert.False(t, remote.Endpoint.IsDialer())

	assert.True(t, a.IsConnected(b.LocalPeer()))
	assert.True(t, b.IsConnected(a.LocalPeer()))

	// 地址簿已记录
	require.NoError(t, a.Dial(b.LocalPeer()))
	est = expectEvent[types.EvtConnectionEstablished](t, a)
	assert.Equal(t, 2, est.NumEstablished)
	assert.Len(t, a.Dials(), 3)
	assert.Equal(t, 2, a.DialCount(b.LocalPeer()))
}

func TestNode_DialFailure(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer a.Close()
	defer b.Close()

	addr := listen(t, b, "/memory/b")
	net.SetUnreachable(addr, true)

	require.NoError(t, a.DialAddr(addr))
	fail := expectEvent[types.EvtDialFailure](t, a)
	assert.True(t, fail.Peer.IsEmpty())
	assert.Equal(t, addr, fail.Addr)
	assert.ErrorIs(t, fail.Err, ErrUnreachable)

	// 地址属于其他节点
	net.SetUnreachable(addr, false)
	other := types.RandomPeerID()
	a.AddAddr(other, addr)
	require.NoError(t, a.Dial(other))
	fail = expectEvent[types.EvtDialFailure](t, a)
	assert.Equal(t, other, fail.Peer)
	assert.ErrorIs(t, fail.Err, ErrPeerIDMismatch)

	// 无监听器
	require.NoError(t, a.DialAddr("/memory/nobody"))
	fail = expectEvent[types.EvtDialFailure](t, a)
	assert.ErrorIs(t, fail.Err, ErrConnectionRefused)
}

func TestNode_Ban(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer a.Close()
	defer b.Close()

	addr := listen(t, b, "/memory/b")
	require.NoError(t, a.DialAddr(addr))
	expectEvent[types.EvtConnectionEstablished](t, a)

	a.BanPeer(b.LocalPeer())
	closed := expectEvent[types.EvtConnectionClosed](t, a)
	assert.Equal(t, 0, closed.NumEstablished)
	assert.ErrorIs(t, closed.Cause, connmgr.ErrPeerBlocked)
	assert.False(t, a.IsConnected(b.LocalPeer()))
	assert.ErrorIs(t, a.Dial(b.LocalPeer()), connmgr.ErrPeerBlocked)

	// 对端封禁：接入被拒绝
	a.UnbanPeer(b.LocalPeer())
	b.BanPeer(a.LocalPeer())
	require.NoError(t, a.Dial(b.LocalPeer()))
	fail := expectEvent[types.EvtDialFailure](t, a)
	assert.ErrorIs(t, fail.Err, ErrConnectionRejected)
}

func TestNetwork_Disconnect(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer a.Close()
	defer b.Close()

	addr := listen(t, b, "/memory/b")
	require.NoError(t, a.DialAddr(addr))
	expectEvent[types.EvtConnectionEstablished](t, a)
	expectEvent[types.EvtConnectionEstablished](t, b)

	assert.Equal(t, 1, net.Disconnect(a.LocalPeer(), b.LocalPeer()))

	closed := expectEvent[types.EvtConnectionClosed](t, a)
	assert.Equal(t, b.LocalPeer(), closed.Peer)
	assert.Equal(t, types.DialerEndpoint(addr), closed.Endpoint)
	assert.ErrorIs(t, closed.Cause, ErrSimulatedDrop)

	closed = expectEvent[types.EvtConnectionClosed](t, b)
	assert.Equal(t, a.LocalPeer(), closed.Peer)
	assert.False(t, closed.Endpoint.IsDialer())
}

func TestNode_RequestResponse(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer a.Close()
	defer b.Close()

	addr := listen(t, b, "/memory/b")
	require.NoError(t, a.DialAddr(addr))
	expectEvent[types.EvtConnectionEstablished](t, a)
	expectEvent[types.EvtConnectionEstablished](t, b)

	env := types.NewEnvelope(a.LocalPeer(), b.LocalPeer(), "ping")
	outID := a.SendRequest(b.LocalPeer(), env)

	in := expectEvent[types.EvtInboundRequest[string]](t, b)
	assert.Equal(t, a.LocalPeer(), in.Peer)
	assert.Equal(t, env, in.Envelope)
	assert.NotEqual(t, outID, in.RequestID)

	require.NoError(t, b.SendResponse(in.RequestID, "pong"))
	res := expectEvent[types.EvtResponse[string]](t, a)
	assert.Equal(t, outID, res.RequestID)
	assert.Equal(t, b.LocalPeer(), res.Peer)
	assert.Equal(t, "pong", res.Response)

	// 同一请求只能响应一次
	assert.ErrorIs(t, b.SendResponse(in.RequestID, "again"), ErrUnknownRequest)
	assert.Len(t, b.Responses(), 2)
	assert.Len(t, a.SentRequests(), 1)
}

func TestNode_RequestDialFailure(t *testing.T) {
	net := NewNetwork[string, string]()
	a := net.NewNode()
	defer a.Close()

	target := types.RandomPeerID()
	id := a.SendRequest(target, types.NewEnvelope(a.LocalPeer(), target, "x"))

	fail := expectEvent[types.EvtOutboundFailure](t, a)
	assert.Equal(t, id, fail.RequestID)
	assert.Equal(t, types.OutboundDialFailure, fail.Failure)
}

func TestNode_RequestFailureInjection(t *testing.T) {
	net := NewNetwork[string, string]()
	a := net.NewNode()
	defer a.Close()

	target := types.RandomPeerID()
	a.SetRequestFailure(target, types.OutboundTimeout)
	id := a.SendRequest(target, types.NewEnvelope(a.LocalPeer(), target, "x"))

	fail := expectEvent[types.EvtOutboundFailure](t, a)
	assert.Equal(t, id, fail.RequestID)
	assert.Equal(t, types.OutboundTimeout, fail.Failure)
}

func TestNode_RelayForwarding(t *testing.T) {
	net := NewNetwork[string, string]()
	src, relay, dst := net.NewNode(), net.NewNode(), net.NewNode()
	defer src.Close()
	defer relay.Close()
	defer dst.Close()

	relayAddr := listen(t, relay, "/memory/relay")
	dstAddr := listen(t, dst, "/memory/dst")
	relay.EnableRelay(true)

	require.NoError(t, src.DialAddr(relayAddr))
	require.NoError(t, relay.DialAddr(dstAddr))
	expectEvent[types.EvtConnectionEstablished](t, dst)

	env := types.NewEnvelope(src.LocalPeer(), dst.LocalPeer(), "via relay")
	outID := src.SendRequest(relay.LocalPeer(), env)

	in := expectEvent[types.EvtInboundRequest[string]](t, dst)
	assert.Equal(t, relay.LocalPeer(), in.Peer)
	assert.Equal(t, src.LocalPeer().String(), in.Envelope.Source)

	require.NoError(t, dst.SendResponse(in.RequestID, "ok"))
	res := expectEvent[types.EvtResponse[string]](t, src)
	assert.Equal(t, outID, res.RequestID)
	assert.Equal(t, relay.LocalPeer(), res.Peer)
	t.Log("✅ 中继透明转发信封")
}

func TestNode_Close(t *testing.T) {
	net := NewNetwork[string, string]()
	a, b := net.NewNode(), net.NewNode()
	defer b.Close()

	addr := listen(t, b, "/memory/b")
	require.NoError(t, a.DialAddr(addr))
	expectEvent[types.EvtConnectionEstablished](t, b)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	closed := expectEvent[types.EvtConnectionClosed](t, b)
	assert.Equal(t, a.LocalPeer(), closed.Peer)
	assert.ErrorIs(t, a.DialAddr(addr), pkgif.ErrFabricClosed)

	_, ok := net.Node(a.LocalPeer())
	assert.False(t, ok)
}
