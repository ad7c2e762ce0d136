package connmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/storage"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// TestGater_InterceptPeerDial 测试拦截拨号
func TestGater_InterceptPeerDial(t *testing.T) {
	gater := NewGater()
	peer := types.RandomPeerID()

	assert.True(t, gater.InterceptPeerDial(peer))

	gater.BlockPeer(peer)
	assert.False(t, gater.InterceptPeerDial(peer))
	assert.False(t, gater.InterceptSecured(peer))

	gater.UnblockPeer(peer)
	assert.True(t, gater.InterceptPeerDial(peer))

	stats := gater.Stats()
	assert.Equal(t, int64(1), stats.InterceptedDials)
	assert.Equal(t, int64(1), stats.InterceptedAccepts)

	t.Log("✅ InterceptPeerDial 拦截正确")
}

// TestGater_BlockIP 测试按 IP 拦截
func TestGater_BlockIP(t *testing.T) {
	gater := NewGater()
	addr := types.MustParseMultiaddr("/ip4/192.168.1.10/tcp/4001")

	assert.True(t, gater.InterceptAddrDial(addr))
	assert.True(t, gater.InterceptAccept(addr))

	gater.BlockIP("192.168.1.10")
	assert.False(t, gater.InterceptAddrDial(addr))
	assert.False(t, gater.InterceptAccept(types.MustParseMultiaddr("/ip4/192.168.1.10/udp/9/quic-v1")))
	assert.True(t, gater.InterceptAccept(types.MustParseMultiaddr("/ip4/192.168.1.11/tcp/4001")))

	// memory 地址没有 IP，始终放行
	assert.True(t, gater.InterceptAccept(types.MustParseMultiaddr("/memory/x")))

	stats := gater.Stats()
	assert.Equal(t, 1, stats.BlockedIPs)
	assert.Equal(t, int64(1), stats.InterceptedDials)
	assert.Equal(t, int64(1), stats.InterceptedAccepts)
}

func TestGater_BlockedPeers(t *testing.T) {
	gater := NewGater()
	a, b := types.RandomPeerID(), types.RandomPeerID()
	gater.BlockPeer(a)
	gater.BlockPeer(b)
	gater.BlockPeer(a)

	blocked := gater.BlockedPeers()
	require.Len(t, blocked, 2)
	assert.ElementsMatch(t, []types.PeerID{a, b}, blocked)
	assert.Less(t, blocked[0].String(), blocked[1].String())
}

// TestGater_Persistence 封禁列表跨实例保存
func TestGater_Persistence(t *testing.T) {
	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	a, b := types.RandomPeerID(), types.RandomPeerID()

	first := NewGater()
	require.NoError(t, first.AttachStore(db))
	first.BlockPeer(a)
	first.BlockPeer(b)
	first.UnblockPeer(b)

	second := NewGater()
	require.NoError(t, second.AttachStore(db))
	assert.True(t, second.IsBlocked(a))
	assert.False(t, second.IsBlocked(b))

	t.Log("✅ 封禁列表持久化")
}

func TestModule_ProvidesGater(t *testing.T) {
	var g *Gater
	app := fxtest.New(t,
		fx.Provide(func() pkgif.Engine { return nil }),
		Module(),
		fx.Populate(&g),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, g)
	assert.True(t, g.InterceptPeerDial(types.RandomPeerID()))
}

func TestModule_AppliesBlockedIPs(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Firewall.BlockedIPs = []string{"10.0.0.7", " ::1 "}

	var g *Gater
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&g),
	)
	defer app.RequireStart().RequireStop()

	assert.False(t, g.InterceptAddrDial(types.MustParseMultiaddr("/ip4/10.0.0.7/tcp/4001")))
	assert.False(t, g.InterceptAccept(types.MustParseMultiaddr("/ip6/::1/udp/4001/quic-v1")))
	assert.True(t, g.InterceptAccept(types.MustParseMultiaddr("/ip4/10.0.0.8/tcp/4001")))
	assert.Equal(t, 2, g.Stats().BlockedIPs)
	t.Log("✅ 配置中的 IP 封禁已生效")
}
