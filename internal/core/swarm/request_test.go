package swarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-p2pcomm/internal/core/fabric/memnet"
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
	"github.com/dep2p/go-p2pcomm/tests/mocks"
)

// connectPair 启动两个引擎，a 拨号 b
func connectPair(t *testing.T, net *testNet, clientB pkgif.ClientRef[testReq, testRes], optsB ...Option) (*testNode, *testNode) {
	t.Helper()
	a := startNode(t, net, nil)
	b := startListeningNode(t, net, clientB, optsB...)
	require.NoError(t, establish(t, a.sw, b.id(), b.addr, types.NoKeepAlive()))
	waitFor(t, func() bool {
		_, ok := connectionOf(info(t, b.sw), a.id())
		return ok
	}, "b never saw the connection")
	return a, b
}

func TestRequest_Success(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, echoClient)

	res := request(t, a.sw, b.id(), ping("hi"))
	require.NoError(t, res.Err)
	assert.Equal(t, testRes("echo:hi"), res.Response)

	sent := a.fab.SentRequests()
	require.Len(t, sent, 1)
	assert.Equal(t, a.id().String(), sent[0].Envelope.Source)
	assert.Equal(t, b.id().String(), sent[0].Envelope.Target)
	assert.Equal(t, 1, a.metrics.RequestCount(outcomeOK))
	t.Log("✅ 请求经信封送达并返回响应")
}

func TestRequest_RejectedLocally(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	cfg := fastConfig()
	cfg.DefaultOutbound = types.PermissionNone
	a := startNode(t, net, nil, WithConfig(cfg))

	res := request(t, a.sw, types.RandomPeerID(), ping("x"))

	var rejected *RejectedError
	require.ErrorAs(t, res.Err, &rejected)
	assert.Equal(t, BlockedLocal, rejected.By)
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Empty(t, a.fab.SentRequests(), "no network send must occur")
	t.Log("✅ 默认拒绝出站时不发生网络发送")
}

func TestRequest_ZeroPermissionKindAlwaysRejected(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, echoClient)

	res := request(t, a.sw, b.id(), testReq{Kind: kind(0), Body: "x"})

	var rejected *RejectedError
	require.ErrorAs(t, res.Err, &rejected)
	assert.Equal(t, BlockedLocal, rejected.By)
	assert.Empty(t, a.fab.SentRequests())
	assert.Error(t, types.ValidateKinds(kindPing, kind(0)))
	t.Log("✅ 零位值的请求种类在默认全部放行时也被拒绝")
}

func TestRequest_OutboundPermissionPerKind(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, echoClient)

	call(t, a.sw, func(r chan<- struct{}) Command {
		return ConfigureFirewall{Rule: firewall.RemovePermissions[kind]{
			Direction:   firewall.RuleOutbound,
			Peers:       []types.PeerID{b.id()},
			Permissions: []kind{kindAdmin},
		}, Reply: r}
	})

	res := request(t, a.sw, b.id(), testReq{Kind: kindAdmin})
	assert.ErrorIs(t, res.Err, ErrRejected)

	res = request(t, a.sw, b.id(), ping("still allowed"))
	assert.NoError(t, res.Err)
}

func TestRequest_RemoteTimeoutIsRejection(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, nil)

	start := time.Now()
	res := request(t, a.sw, b.id(), ping("nobody answers"))

	var rejected *RejectedError
	require.ErrorAs(t, res.Err, &rejected)
	assert.Equal(t, BlockedRemote, rejected.By)
	assert.GreaterOrEqual(t, time.Since(start), testWait)

	waitFor(t, func() bool { return b.metrics.InboundCount(inboundNoResponse) == 1 }, "b did not drop")
}

func TestRequest_RemoteFirewall(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	cfg := fastConfig()
	cfg.DefaultInbound = types.PermissionNone
	a, b := connectPair(t, net, echoClient, WithConfig(cfg))

	res := request(t, a.sw, b.id(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)
	waitFor(t, func() bool { return b.metrics.InboundCount(inboundRejected) == 1 }, "b did not reject")

	// 为 a 单独开放 ping
	call(t, b.sw, func(r chan<- struct{}) Command {
		return ConfigureFirewall{Rule: firewall.AddPermissions[kind]{
			Direction:   firewall.RuleInbound,
			Peers:       []types.PeerID{a.id()},
			Permissions: []kind{kindPing},
		}, Reply: r}
	})

	res = request(t, a.sw, b.id(), ping("x"))
	require.NoError(t, res.Err)

	res = request(t, a.sw, b.id(), testReq{Kind: kindEcho})
	assert.ErrorIs(t, res.Err, ErrRejected)
}

func TestRequest_OutboundFailure(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)

	res := request(t, a.sw, types.RandomPeerID(), ping("x"))

	var outbound *OutboundError
	require.ErrorAs(t, res.Err, &outbound)
	assert.Equal(t, types.OutboundDialFailure, outbound.Failure)
	assert.ErrorIs(t, res.Err, types.OutboundDialFailure)
	assert.Equal(t, 1, a.metrics.RequestCount(outcomeOutboundFailure))
}

func TestRequest_InboundFailure(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	b := net.NewNode()
	defer b.Close()
	_, err := b.Listen("/memory/passive")
	require.NoError(t, err)
	require.NoError(t, establish(t, a.sw, b.LocalPeer(), "/memory/passive", types.NoKeepAlive()))

	results := make(chan RequestResult[testRes], 1)
	require.NoError(t, a.sw.Submit(context.Background(), RequestMsg[testReq, testRes]{
		Peer: b.LocalPeer(), Request: ping("x"), Reply: results,
	}))

	nextInbound(t, b)
	sent := a.fab.SentRequests()
	require.Len(t, sent, 1)
	a.fab.Inject(types.EvtInboundFailure{Peer: b.LocalPeer(), RequestID: sent[0].RequestID, Failure: types.InboundResponseOmission})

	res := <-results
	var inbound *InboundError
	require.ErrorAs(t, res.Err, &inbound)
	assert.Equal(t, types.InboundResponseOmission, inbound.Failure)
}

// 超时请求的迟到响应不能被之后的请求认领
func TestRequest_LateResponseNotMisdelivered(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	a := startNode(t, net, nil)
	b := net.NewNode()
	defer b.Close()
	_, err := b.Listen("/memory/passive")
	require.NoError(t, err)
	require.NoError(t, establish(t, a.sw, b.LocalPeer(), "/memory/passive", types.NoKeepAlive()))

	first := make(chan RequestResult[testRes], 1)
	require.NoError(t, a.sw.Submit(context.Background(), RequestMsg[testReq, testRes]{
		Peer: b.LocalPeer(), Request: ping("first"), Reply: first,
	}))
	in1 := nextInbound(t, b)
	assert.ErrorIs(t, (<-first).Err, ErrRejected)

	second := make(chan RequestResult[testRes], 1)
	require.NoError(t, a.sw.Submit(context.Background(), RequestMsg[testReq, testRes]{
		Peer: b.LocalPeer(), Request: ping("second"), Reply: second,
	}))
	in2 := nextInbound(t, b)

	require.NoError(t, b.SendResponse(in1.RequestID, "stale"))
	require.NoError(t, b.SendResponse(in2.RequestID, "fresh"))

	res := <-second
	require.NoError(t, res.Err)
	assert.Equal(t, testRes("fresh"), res.Response)
	t.Log("✅ 等待按请求 ID 精确匹配")
}

// ============================================================================
//                              入站路径
// ============================================================================

func injectInbound(n *testNode, sender types.PeerID, env types.RequestEnvelope[testReq]) {
	n.fab.Inject(types.EvtInboundRequest[testReq]{Peer: sender, RequestID: types.NewRequestID(), Envelope: env})
}

func TestInbound_WrongTargetDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClientRef[testReq, testRes](ctrl)

	net := memnet.NewNetwork[testReq, testRes]()
	cfg := fastConfig()
	cfg.DefaultInbound = types.PermissionNone
	b := startNode(t, net, client, WithConfig(cfg))

	src := types.RandomPeerID()
	injectInbound(b, src, types.NewEnvelope(src, types.RandomPeerID(), ping("x")))

	waitFor(t, func() bool { return b.metrics.InboundCount(inboundWrongTarget) == 1 }, "not dropped")
	// 在防火墙之前就已丢弃
	assert.Zero(t, b.metrics.InboundCount(inboundRejected))
	assert.Empty(t, b.fab.Responses())
}

func TestInbound_UntrustedSenderDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClientRef[testReq, testRes](ctrl)

	net := memnet.NewNetwork[testReq, testRes]()
	b := startNode(t, net, client)

	// 声明来源与发送方不同
	src, sender := types.RandomPeerID(), types.RandomPeerID()
	injectInbound(b, sender, types.NewEnvelope(src, b.id(), ping("x")))

	// 发送方即来源，但没有活跃连接
	injectInbound(b, src, types.NewEnvelope(src, b.id(), ping("x")))

	waitFor(t, func() bool { return b.metrics.InboundCount(inboundUntrusted) == 2 }, "not dropped")
	assert.Empty(t, b.fab.Responses())
}

func TestInbound_BadSourceDropped(t *testing.T) {
	net := memnet.NewNetwork[testReq, testRes]()
	b := startNode(t, net, echoClient)

	injectInbound(b, types.RandomPeerID(), types.RequestEnvelope[testReq]{
		Source: "not-a-peer", Target: b.id().String(), Message: ping("x"),
	})

	waitFor(t, func() bool { return b.metrics.InboundCount(inboundBadSource) == 1 }, "not dropped")
	assert.Empty(t, b.fab.Responses())
}

func TestInbound_SlowClientSendsNothing(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := pkgif.ClientFunc[testReq, testRes](func(_ context.Context, _ testReq) (testRes, error) {
		<-release
		return "too late", nil
	})

	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, slow)

	res := request(t, a.sw, b.id(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)

	waitFor(t, func() bool { return b.metrics.InboundCount(inboundNoResponse) == 1 }, "no timeout")
	assert.Empty(t, b.fab.Responses())
}

func TestInbound_ClientErrorSendsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClientRef[testReq, testRes](ctrl)
	client.EXPECT().Ask(gomock.Any(), ping("x")).Return(testRes(""), errors.New("busy"))

	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, client)

	res := request(t, a.sw, b.id(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Empty(t, b.fab.Responses())
}

func TestSetClientRef(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClientRef[testReq, testRes](ctrl)
	client.EXPECT().Ask(gomock.Any(), ping("x")).Return(testRes("from mock"), nil).Times(1)

	net := memnet.NewNetwork[testReq, testRes]()
	a, b := connectPair(t, net, nil)

	res := request(t, a.sw, b.id(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)

	call(t, b.sw, func(r chan<- struct{}) Command {
		return SetClientRef[testReq, testRes]{Client: client, Reply: r}
	})

	res = request(t, a.sw, b.id(), ping("x"))
	require.NoError(t, res.Err)
	assert.Equal(t, testRes("from mock"), res.Response)
}

// ============================================================================
//                              中继
// ============================================================================

// relayTopology src 与 dst 之间没有直连，relay 与两者都相连
func relayTopology(t *testing.T, mode types.RelayMode) (src, relay, dst *testNode) {
	t.Helper()
	net := memnet.NewNetwork[testReq, testRes]()

	relay = startListeningNode(t, net, nil)
	relay.fab.EnableRelay(true)
	dst = startListeningNode(t, net, echoClient)
	src = startNode(t, net, nil)

	require.NoError(t, establish(t, relay.sw, dst.id(), dst.addr, types.UnlimitedKeepAlive()))
	require.NoError(t, setRelay(t, dst.sw, types.RelayBackup(relay.id(), relay.addr)))

	cfg := types.RelayConfig{Mode: mode, Peer: relay.id(), Addr: relay.addr}
	require.NoError(t, setRelay(t, src.sw, cfg))
	return src, relay, dst
}

func TestRelayBackup_RetriesOnDialFailure(t *testing.T) {
	src, relay, dst := relayTopology(t, types.RelayModeBackup)

	res := request(t, src.sw, dst.id(), ping("via relay"))
	require.NoError(t, res.Err)
	assert.Equal(t, testRes("echo:via relay"), res.Response)

	sent := src.fab.SentRequests()
	require.Len(t, sent, 2, "exactly one relay retry")
	assert.Equal(t, dst.id(), sent[0].Peer)
	assert.Equal(t, relay.id(), sent[1].Peer)
	assert.Equal(t, sent[0].Envelope, sent[1].Envelope, "envelope must be unmodified")
	t.Log("✅ 直连拨号失败后经中继重试一次")
}

func TestRelayBackup_NoRetryOnOtherFailure(t *testing.T) {
	src, _, dst := relayTopology(t, types.RelayModeBackup)
	src.fab.SetRequestFailure(dst.id(), types.OutboundTimeout)

	res := request(t, src.sw, dst.id(), ping("x"))

	var outbound *OutboundError
	require.ErrorAs(t, res.Err, &outbound)
	assert.Equal(t, types.OutboundTimeout, outbound.Failure)
	assert.Len(t, src.fab.SentRequests(), 1)
}

func TestRelayAlways_SendsOnlyToRelay(t *testing.T) {
	src, relay, dst := relayTopology(t, types.RelayModeAlways)

	res := request(t, src.sw, dst.id(), ping("x"))
	require.NoError(t, res.Err)

	sent := src.fab.SentRequests()
	require.Len(t, sent, 1)
	assert.Equal(t, relay.id(), sent[0].Peer)
	assert.Equal(t, dst.id().String(), sent[0].Envelope.Target)
}

func TestRelay_DestinationWithoutRelayConfigDrops(t *testing.T) {
	src, _, dst := relayTopology(t, types.RelayModeAlways)
	require.NoError(t, setRelay(t, dst.sw, types.NoRelay()))

	res := request(t, src.sw, dst.id(), ping("x"))
	assert.ErrorIs(t, res.Err, ErrRejected)
	waitFor(t, func() bool { return dst.metrics.InboundCount(inboundUntrusted) == 1 }, "not dropped")
}
