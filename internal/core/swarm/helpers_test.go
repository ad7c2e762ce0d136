package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/internal/core/fabric/memnet"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
	"github.com/dep2p/go-p2pcomm/tests/mocks"
)

// ============================================================================
//                              测试用请求类型
// ============================================================================

type kind uint32

const (
	kindPing kind = 1 << iota
	kindEcho
	kindAdmin
)

func (k kind) Permission() uint32 { return uint32(k) }

type testReq struct {
	Kind kind
	Body string
}

func (r testReq) PermissionKind() kind { return r.Kind }

type testRes string

type (
	testNet    = memnet.Network[testReq, testRes]
	testFabric = memnet.Node[testReq, testRes]
	testSwarm  = Swarm[testReq, testRes, kind]
)

func ping(body string) testReq { return testReq{Kind: kindPing, Body: body} }

// echoClient 把请求内容原样返回
var echoClient = pkgif.ClientFunc[testReq, testRes](func(_ context.Context, req testReq) (testRes, error) {
	return testRes("echo:" + req.Body), nil
})

// ============================================================================
//                              测试节点
// ============================================================================

const testWait = 300 * time.Millisecond

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.ListenTimeout = testWait
	cfg.DialTimeout = testWait
	cfg.RequestTimeout = testWait
	cfg.ClientTimeout = testWait
	return cfg
}

type testNode struct {
	fab     *testFabric
	sw      *testSwarm
	metrics *mocks.MockMetrics
	addr    types.Multiaddr
}

func (n *testNode) id() types.PeerID { return n.fab.LocalPeer() }

// startNode 在 net 上创建节点并运行引擎
func startNode(t *testing.T, net *testNet, client pkgif.ClientRef[testReq, testRes], opts ...Option) *testNode {
	t.Helper()

	fab := net.NewNode()
	m := mocks.NewMockMetrics()
	opts = append([]Option{WithConfig(fastConfig()), WithMetrics(m)}, opts...)

	sw, err := New[testReq, testRes, kind](fab, client, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go sw.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-sw.Done()
		_ = fab.Close()
	})
	return &testNode{fab: fab, sw: sw, metrics: m}
}

// startListeningNode 创建节点并在 /memory/0 上监听
func startListeningNode(t *testing.T, net *testNet, client pkgif.ClientRef[testReq, testRes], opts ...Option) *testNode {
	t.Helper()
	n := startNode(t, net, client, opts...)
	res := call(t, n.sw, func(r chan<- ListenResult) Command {
		return StartListening{Addr: "/memory/0", Reply: r}
	})
	require.NoError(t, res.Err)
	n.addr = res.Addr
	return n
}

// call 提交命令并等待应答
func call[T any](t *testing.T, sw *testSwarm, build func(chan<- T) Command) T {
	t.Helper()

	ch := make(chan T, 1)
	require.NoError(t, sw.Submit(context.Background(), build(ch)))

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}
	var zero T
	return zero
}

func request(t *testing.T, sw *testSwarm, peer types.PeerID, req testReq) RequestResult[testRes] {
	t.Helper()
	return call(t, sw, func(r chan<- RequestResult[testRes]) Command {
		return RequestMsg[testReq, testRes]{Peer: peer, Request: req, Reply: r}
	})
}

func establish(t *testing.T, sw *testSwarm, peer types.PeerID, addr types.Multiaddr, ka types.KeepAlive) error {
	t.Helper()
	return call(t, sw, func(r chan<- ConnectResult) Command {
		return EstablishConnection{Peer: peer, Addr: addr, KeepAlive: ka, Reply: r}
	}).Err
}

func info(t *testing.T, sw *testSwarm) SwarmInfo {
	t.Helper()
	return call(t, sw, func(r chan<- SwarmInfo) Command {
		return GetSwarmInfo{Reply: r}
	})
}

func setRelay(t *testing.T, sw *testSwarm, cfg types.RelayConfig) error {
	t.Helper()
	return call(t, sw, func(r chan<- error) Command {
		return SetRelay{Config: cfg, Reply: r}
	})
}

// connectionOf 返回 info 中 peer 的连接记录
func connectionOf(si SwarmInfo, peer types.PeerID) (types.ConnectionInfo, bool) {
	for _, c := range si.Connections {
		if c.Peer == peer {
			return c, true
		}
	}
	return types.ConnectionInfo{}, false
}

// waitFor 轮询直到 cond 成立
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

// nextInbound 从未运行引擎的节点读取下一个入站请求
func nextInbound(t *testing.T, fab *testFabric) types.EvtInboundRequest[testReq] {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt := <-fab.Events():
			if in, ok := evt.(types.EvtInboundRequest[testReq]); ok {
				return in
			}
		case <-deadline:
			t.Fatal("no inbound request")
		}
	}
}
