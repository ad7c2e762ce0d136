package swarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2pcomm/internal/core/fabric/memnet"
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	"github.com/dep2p/go-p2pcomm/internal/core/storage"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New[testReq, testRes, kind](nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	net := memnet.NewNetwork[testReq, testRes]()
	cfg := DefaultConfig()
	cfg.RequestTimeout = 0
	_, err = New[testReq, testRes, kind](net.NewNode(), nil, WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// ============================================================================
//                              监听
// ============================================================================

func listen(t *testing.T, sw *testSwarm, addr types.Multiaddr) ListenResult {
	t.Helper()
	return call(t, sw, func(r chan<- ListenResult) Command {
		return StartListening{Addr: addr, Reply: r}
	})
}

func removeListener(t *testing.T, sw *testSwarm) error {
	t.Helper()
	return call(t, sw, func(r chan<- error) Command {
		return RemoveListener{Reply: r}
	})
}

func TestListen_DefaultAddress(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)

	res := listen(t, a.sw, "")
	require.NoError(t, res.Err)
	assert.Equal(t, types.TransportTCP, res.Addr.Transport())

	host, port, err := res.Addr.HostPort()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.NotZero(t, port)
	assert.Equal(t, []types.Multiaddr{res.Addr}, info(t, a.sw).Listeners)
}

func TestListen_RemoveListener(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startListeningNode(t, net, nil)

	require.NoError(t, removeListener(t, a.sw))
	assert.Empty(t, a.fab.ListenAddrs())

	assert.ErrorIs(t, removeListener(t, a.sw), ErrNoListener)
}

func TestListen_AddressInUse(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	b := startNode(t, net, nil)

	require.NoError(t, listen(t, a.sw, "/memory/shared").Err)

	res := listen(t, b.sw, "/memory/shared")
	var le *ListenError
	require.ErrorAs(t, res.Err, &le)
	assert.Equal(t, types.Multiaddr("/memory/shared"), le.Addr)
	assert.ErrorIs(t, res.Err, memnet.ErrAddrInUse)

	// 没有成功的监听器可移除
	assert.ErrorIs(t, removeListener(t, b.sw), ErrNoListener)
}

func TestListen_TracksNewestListener(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)

	first := listen(t, a.sw, "/memory/first")
	second := listen(t, a.sw, "/memory/second")
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)

	require.NoError(t, removeListener(t, a.sw))
	assert.Equal(t, []types.Multiaddr{first.Addr}, a.fab.ListenAddrs(),
		"the earlier listener keeps running untracked")
	assert.ErrorIs(t, removeListener(t, a.sw), ErrNoListener)
}

func TestListen_ClosedListenerIsForgotten(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	res := listen(t, a.sw, "/memory/closing")
	require.NoError(t, res.Err)

	// 网络层自行关闭监听器（网络中唯一的监听器 ID 为 1）
	require.True(t, a.fab.RemoveListener(1))
	assert.Eventually(t, func() bool {
		return errors.Is(removeListener(t, a.sw), ErrNoListener)
	}, 2*time.Second, 20*time.Millisecond)
}

// ============================================================================
//                              停止
// ============================================================================

func newNode(t *testing.T, net *testNet) (*testSwarm, *testFabric) {
	t.Helper()
	fab := net.NewNode()
	t.Cleanup(func() { _ = fab.Close() })
	sw, err := New[testReq, testRes, kind](fab, nil, WithConfig(fastConfig()))
	require.NoError(t, err)
	return sw, fab
}

func waitDone(t *testing.T, sw *testSwarm) {
	t.Helper()
	select {
	case <-sw.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestShutdown(t *testing.T) {
	trigger := map[string]func(sw *testSwarm, cancel context.CancelFunc){
		"shutdown command": func(sw *testSwarm, _ context.CancelFunc) {
			require.NoError(t, sw.Submit(context.Background(), Shutdown{}))
		},
		"closed command channel": func(sw *testSwarm, _ context.CancelFunc) {
			close(sw.Commands())
		},
		"context canceled": func(_ *testSwarm, cancel context.CancelFunc) {
			cancel()
		},
	}

	for name, stop := range trigger {
		t.Run(name, func(t *testing.T) {
			net := memnet.NewNetwork[testReq, testRes]()
			sw, fab := newNode(t, net)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go sw.Run(ctx)

			require.NoError(t, listen(t, sw, "/memory/0").Err)
			require.Len(t, fab.ListenAddrs(), 1)

			stop(sw, cancel)
			waitDone(t, sw)

			assert.Equal(t, StateShuttingDown, sw.State())
			assert.Empty(t, fab.ListenAddrs(), "listener must be removed")
			assert.ErrorIs(t, sw.Submit(context.Background(), GetSwarmInfo{}), ErrShutdown)
		})
	}
}

func TestStop(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()

	t.Run("running", func(t *testing.T) {
		sw, _ := newNode(t, net)
		go sw.Run(context.Background())
		assert.Eventually(t, func() bool { return info(t, sw).PeerID == sw.LocalPeer() }, time.Second, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, sw.Stop(ctx))
		waitDone(t, sw)
	})

	t.Run("never started", func(t *testing.T) {
		sw, _ := newNode(t, net)
		require.NoError(t, sw.Stop(context.Background()))
		waitDone(t, sw)

		// 停止后再运行立即返回
		returned := make(chan struct{})
		go func() {
			sw.Run(context.Background())
			close(returned)
		}()
		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatal("Run after Stop did not return")
		}
	})
}

func TestSubmit_RespectsContext(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	fab := net.NewNode()
	defer fab.Close()
	cfg := fastConfig()
	cfg.CommandBuffer = 1
	sw, err := New[testReq, testRes, kind](fab, nil, WithConfig(cfg))
	require.NoError(t, err)

	// 未运行的引擎只能缓冲一条命令
	require.NoError(t, sw.Submit(context.Background(), GetSwarmInfo{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sw.Submit(ctx, GetSwarmInfo{}), context.DeadlineExceeded)
}

func TestEventsClosed_StillServesCommands(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	require.NoError(t, a.fab.Close())

	si := info(t, a.sw)
	assert.Equal(t, a.id(), si.PeerID)

	start := time.Now()
	res := request(t, a.sw, types.RandomPeerID(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Less(t, time.Since(start), testWait, "waits must fail immediately once events end")
}

func TestMetrics_CommandsAndEvents(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	info(t, a.sw)
	info(t, a.sw)
	assert.Equal(t, 2, a.metrics.CommandCount("swarm_info"))

	a.fab.Inject(types.EvtNewListenAddr{Listener: 99, Addr: "/memory/injected"})
	waitFor(t, func() bool { return a.metrics.EventCount(types.EventNewListenAddr) == 1 }, "event not counted")
}

// ============================================================================
//                              防火墙持久化
// ============================================================================

func TestFirewall_PersistedToStore(t *testing.T) {
	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil, WithStore(db))
	blocked := types.RandomPeerID()

	call(t, a.sw, func(r chan<- struct{}) Command {
		return ConfigureFirewall{Rule: firewall.SetRules{
			Direction:  firewall.RuleInbound,
			Peers:      []types.PeerID{blocked},
			Permission: types.PermissionNone,
		}, Reply: r}
	})

	fab := net.NewNode()
	defer fab.Close()
	restored, err := New[testReq, testRes, kind](fab, nil, WithStore(db))
	require.NoError(t, err)

	rule, ok := restored.firewall.GetRule(blocked, types.DirInbound)
	require.True(t, ok)
	assert.Equal(t, types.PermissionNone, rule)
	t.Log("✅ 防火墙规则在重启后恢复")
}

func TestFirewall_ConfiguredDefaultsWinOverStore(t *testing.T) {
	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil, WithStore(db))
	allowed := types.RandomPeerID()
	call(t, a.sw, func(r chan<- struct{}) Command {
		return ConfigureFirewall{Rule: firewall.SetRules{
			Direction:  firewall.RuleOutbound,
			Peers:      []types.PeerID{allowed},
			Permission: types.PermissionAll,
		}, Reply: r}
	})

	cfg := fastConfig()
	cfg.DefaultOutbound = types.PermissionNone
	fab := net.NewNode()
	defer fab.Close()
	restored, err := New[testReq, testRes, kind](fab, nil, WithConfig(cfg), WithStore(db))
	require.NoError(t, err)

	assert.Equal(t, types.PermissionNone, restored.firewall.GetDefault(types.DirOutbound))
	assert.Equal(t, types.PermissionNone, restored.firewall.Effective(types.RandomPeerID(), types.DirOutbound))
	assert.Equal(t, types.PermissionAll, restored.firewall.Effective(allowed, types.DirOutbound))
	t.Log("✅ 重启后沿用配置的默认规则")
}
