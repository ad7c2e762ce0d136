package netfabric

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	mss "github.com/multiformats/go-multistream"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/fabric"
	"github.com/dep2p/go-p2pcomm/internal/core/metrics"
	"github.com/dep2p/go-p2pcomm/internal/core/relay"
	"github.com/dep2p/go-p2pcomm/internal/core/transport"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("fabric/net")

// Option 网络层选项
type Option func(*options)

type options struct {
	config   Config
	gater    *connmgr.Gater
	reporter metrics.Reporter
	limiter  *relay.Limiter
}

// WithConfig 设置网络层配置
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithGater 使用共享的连接门控器
func WithGater(g *connmgr.Gater) Option {
	return func(o *options) {
		if g != nil {
			o.gater = g
		}
	}
}

// WithReporter 上报每帧字节数
func WithReporter(r metrics.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLimiter 设置中继转发限流器，仅在启用中继服务时生效
func WithLimiter(l *relay.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// connEntry 一条已建立的连接
type connEntry struct {
	conn     pkgif.Conn
	endpoint types.Endpoint

	// cause 主动关闭的原因，由 Node.mu 保护
	cause error
}

type listenerEntry struct {
	id types.ListenerID
	l  pkgif.Listener
}

// inbound 等待本地响应的入站请求
type inbound struct {
	peer     types.PeerID
	conn     *connEntry
	stream   pkgif.Stream
	answered atomic.Bool
}

// Node 基于真实传输的网络层节点
type Node[Req, Res any] struct {
	tm       *transport.Manager
	local    types.PeerID
	codec    pkgif.Codec[Req, Res]
	cfg      Config
	gater    *connmgr.Gater
	reporter metrics.Reporter
	limiter  *relay.Limiter
	mux      *mss.MultistreamMuxer[string]

	events *fabric.Queue
	addrs  *lru.Cache[types.PeerID, types.Multiaddr]
	// pending 的淘汰回调可能在其内部锁中执行，回调里不得再访问 pending
	pending *expirable.LRU[types.RequestID, *inbound]

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu           sync.Mutex
	listeners    map[types.ListenerID]*listenerEntry
	nextListener uint64
	conns        map[types.PeerID][]*connEntry
	closed       bool
}

var _ pkgif.Fabric[struct{}, struct{}] = (*Node[struct{}, struct{}])(nil)

// New 创建网络层节点
//
// codec 为 nil 时使用 JSONCodec。
func New[Req, Res any](tm *transport.Manager, codec pkgif.Codec[Req, Res], opts ...Option) (*Node[Req, Res], error) {
	if tm == nil {
		return nil, transport.ErrNoTransportsEnabled
	}
	o := options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config.withDefaults()

	if codec == nil {
		codec = JSONCodec[Req, Res]{}
	}
	if o.gater == nil {
		o.gater = connmgr.NewGater()
	}
	if cfg.EnableRelayService && o.limiter == nil {
		o.limiter = relay.NewLimiter(relay.DefaultLimiterConfig())
	}
	if !cfg.EnableRelayService {
		o.limiter = nil
	}

	addrs, err := lru.New[types.PeerID, types.Multiaddr](cfg.AddrBookSize)
	if err != nil {
		return nil, fmt.Errorf("create address book: %w", err)
	}

	mux := mss.NewMultistreamMuxer[string]()
	mux.AddHandler(ProtocolID, nil)

	ctx, cancel := context.WithCancel(context.Background())
	n := &Node[Req, Res]{
		tm:        tm,
		local:     tm.LocalPeer(),
		codec:     codec,
		cfg:       cfg,
		gater:     o.gater,
		reporter:  o.reporter,
		limiter:   o.limiter,
		mux:       mux,
		events:    fabric.NewQueue(),
		addrs:     addrs,
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[types.ListenerID]*listenerEntry),
		conns:     make(map[types.PeerID][]*connEntry),
	}
	n.pending = expirable.NewLRU[types.RequestID, *inbound](0, n.onPendingEvicted, cfg.ResponseTTL)

	log.Debug("网络层已创建", "peer", n.local.ShortString(), "relayService", cfg.EnableRelayService)
	return n, nil
}

// LocalPeer 实现 Fabric
func (n *Node[Req, Res]) LocalPeer() types.PeerID { return n.local }

// Dial 实现 Fabric
func (n *Node[Req, Res]) Dial(peer types.PeerID) error {
	if !n.gater.InterceptPeerDial(peer) {
		return connmgr.ErrPeerBlocked
	}
	addr, ok := n.addrs.Get(peer)
	if !ok {
		return pkgif.ErrNoAddresses
	}
	if !n.spawn(func() { _, _ = n.dial(peer, addr) }) {
		return pkgif.ErrFabricClosed
	}
	return nil
}

// DialAddr 实现 Fabric
func (n *Node[Req, Res]) DialAddr(addr types.Multiaddr) error {
	if _, err := n.tm.TransportFor(addr); err != nil {
		return err
	}
	if !n.gater.InterceptAddrDial(addr) {
		return connmgr.ErrAddrBlocked
	}
	if !n.spawn(func() { _, _ = n.dial(types.EmptyPeerID, addr) }) {
		return pkgif.ErrFabricClosed
	}
	return nil
}

// Listen 实现 Fabric
func (n *Node[Req, Res]) Listen(addr types.Multiaddr) (types.ListenerID, error) {
	tr, err := n.tm.TransportFor(addr)
	if err != nil {
		return 0, err
	}
	l, err := tr.Listen(addr)
	if err != nil {
		return 0, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		_ = l.Close()
		return 0, pkgif.ErrFabricClosed
	}

	n.nextListener++
	le := &listenerEntry{id: types.ListenerID(n.nextListener), l: l}
	n.listeners[le.id] = le
	n.emit(types.EvtNewListenAddr{Listener: le.id, Addr: l.Addr()})
	n.spawnLocked(func() { n.acceptLoop(le) })

	log.Info("开始监听", "listener", le.id, "addr", l.Addr())
	return le.id, nil
}

// RemoveListener 实现 Fabric
func (n *Node[Req, Res]) RemoveListener(id types.ListenerID) bool {
	n.mu.Lock()
	le, ok := n.listeners[id]
	if ok {
		delete(n.listeners, id)
		n.emit(types.EvtListenerClosed{Listener: id, Addrs: []types.Multiaddr{le.l.Addr()}})
	}
	n.mu.Unlock()

	if !ok {
		return false
	}
	if err := le.l.Close(); err != nil {
		log.Debug("关闭监听器出错", "listener", id, "err", err)
	}
	return true
}

// ListenAddrs 实现 Fabric
func (n *Node[Req, Res]) ListenAddrs() []types.Multiaddr {
	n.mu.Lock()
	defer n.mu.Unlock()

	addrs := make([]types.Multiaddr, 0, len(n.listeners))
	for _, le := range n.listeners {
		addrs = append(addrs, le.l.Addr())
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// IsConnected 实现 Fabric
func (n *Node[Req, Res]) IsConnected(peer types.PeerID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.conns[peer]) > 0
}

// Disconnect 实现 Fabric
func (n *Node[Req, Res]) Disconnect(peer types.PeerID) error {
	return n.closeConns(peer, nil)
}

// BanPeer 实现 Fabric
func (n *Node[Req, Res]) BanPeer(peer types.PeerID) {
	n.gater.BlockPeer(peer)
	_ = n.closeConns(peer, connmgr.ErrPeerBlocked)
}

// UnbanPeer 实现 Fabric
func (n *Node[Req, Res]) UnbanPeer(peer types.PeerID) {
	n.gater.UnblockPeer(peer)
}

// Events 实现 Fabric
func (n *Node[Req, Res]) Events() <-chan types.Event {
	return n.events.Out()
}

// Close 实现 Fabric
//
// 关闭所有监听器与连接，等待后台 goroutine 退出后关闭事件通道。
// 传输由 transport.Manager 的所有者关闭。
func (n *Node[Req, Res]) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true

	listeners := make([]*listenerEntry, 0, len(n.listeners))
	for id, le := range n.listeners {
		listeners = append(listeners, le)
		n.emit(types.EvtListenerClosed{Listener: id, Addrs: []types.Multiaddr{le.l.Addr()}})
	}
	n.listeners = make(map[types.ListenerID]*listenerEntry)

	var conns []*connEntry
	for _, entries := range n.conns {
		for _, e := range entries {
			if e.cause == nil {
				e.cause = pkgif.ErrFabricClosed
			}
			conns = append(conns, e)
		}
	}
	n.mu.Unlock()

	var err error
	for _, le := range listeners {
		err = multierr.Append(err, le.l.Close())
	}
	for _, e := range conns {
		_ = e.conn.Close()
	}
	n.cancel()
	err = multierr.Append(err, n.group.Wait())

	n.pending.Purge()
	n.events.Close()
	gs := n.gater.Stats()
	log.Info("网络层已关闭", "peer", n.local.ShortString(),
		"interceptedDials", gs.InterceptedDials, "interceptedAccepts", gs.InterceptedAccepts)
	return err
}

// ============================================================================
//                              辅助方法
// ============================================================================

// AddAddr 向地址簿添加节点地址
func (n *Node[Req, Res]) AddAddr(peer types.PeerID, addr types.Multiaddr) {
	n.addrs.Add(peer, addr)
}

// Addr 返回地址簿中节点的地址
func (n *Node[Req, Res]) Addr(peer types.PeerID) (types.Multiaddr, bool) {
	return n.addrs.Peek(peer)
}

// Gater 返回连接门控器
func (n *Node[Req, Res]) Gater() *connmgr.Gater { return n.gater }

// PendingInbound 返回等待本地响应的入站请求数
func (n *Node[Req, Res]) PendingInbound() int { return n.pending.Len() }

func (n *Node[Req, Res]) emit(evt types.Event) {
	n.events.Push(evt)
}

// spawn 在网络层关闭前启动受管 goroutine，已关闭时返回 false
func (n *Node[Req, Res]) spawn(fn func()) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.spawnLocked(fn)
}

func (n *Node[Req, Res]) spawnLocked(fn func()) bool {
	if n.closed {
		return false
	}
	n.group.Go(func() error {
		fn()
		return nil
	})
	return true
}

func (n *Node[Req, Res]) reportSent(size int, peer types.PeerID) {
	if n.reporter != nil {
		n.reporter.LogSentMessage(int64(size), peer)
	}
}

func (n *Node[Req, Res]) reportRecv(size int, peer types.PeerID) {
	if n.reporter != nil {
		n.reporter.LogRecvMessage(int64(size), peer)
	}
}
