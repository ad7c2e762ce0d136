package swarm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	"github.com/dep2p/go-p2pcomm/internal/core/metrics"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("core/swarm")

// State 引擎状态
type State int32

const (
	// StateRunning 正在处理命令与事件
	StateRunning State = iota
	// StateShuttingDown 已停止，不可恢复
	StateShuttingDown
)

// String 返回状态名称
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "shutting_down"
}

// Swarm 通信引擎
//
// Run 所在的单一 goroutine 独占网络层、防火墙、连接表、中继配置与监听器，
// 命令与网络事件严格按顺序处理，因此内部状态不需要加锁。
type Swarm[Req types.Request[P], Res any, P types.PermissionKind] struct {
	fabric   pkgif.Fabric[Req, Res]
	client   pkgif.ClientRef[Req, Res]
	firewall *firewall.Firewall
	table    *connmgr.Table
	relay    types.RelayConfig

	listener    types.ListenerID
	hasListener bool

	config  *Config
	clock   clock.Clock
	metrics pkgif.Metrics
	store   pkgif.Engine

	commands chan Command
	events   <-chan types.Event

	// depth 当前嵌套等待层数
	depth int
	// reconnects 等待期间推迟的重连
	reconnects []pendingReconnect

	ctx      context.Context
	state    atomic.Int32
	started  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// New 创建引擎，client 可以为 nil（入站请求将不被应答）
func New[Req types.Request[P], Res any, P types.PermissionKind](
	fabric pkgif.Fabric[Req, Res],
	client pkgif.ClientRef[Req, Res],
	opts ...Option,
) (*Swarm[Req, Res, P], error) {
	if fabric == nil {
		return nil, ErrInvalidConfig
	}

	st := &settings{
		config:  DefaultConfig(),
		clock:   clock.New(),
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		if err := opt(st); err != nil {
			return nil, err
		}
	}

	s := &Swarm[Req, Res, P]{
		fabric:   fabric,
		client:   client,
		firewall: firewall.New(st.config.DefaultInbound, st.config.DefaultOutbound),
		table:    connmgr.NewTable(st.clock),
		config:   st.config,
		clock:    st.clock,
		metrics:  st.metrics,
		store:    st.store,
		commands: make(chan Command, st.config.CommandBuffer),
		events:   fabric.Events(),
		ctx:      context.Background(),
		done:     make(chan struct{}),
	}

	if s.store != nil {
		loaded, err := s.firewall.Load(s.store)
		if err != nil {
			log.Warn("加载防火墙规则失败", "err", err)
		} else if loaded {
			log.Info("已恢复防火墙规则", "rules", s.firewall.RuleCount())
		}
	}
	return s, nil
}

// LocalPeer 返回本地节点 ID
func (s *Swarm[Req, Res, P]) LocalPeer() types.PeerID {
	return s.fabric.LocalPeer()
}

// Commands 返回命令通道
//
// 关闭该通道等价于发送 Shutdown。
func (s *Swarm[Req, Res, P]) Commands() chan<- Command {
	return s.commands
}

// Submit 提交命令
//
// 引擎已停止时返回 ErrShutdown，ctx 取消时返回 ctx.Err()。
func (s *Swarm[Req, Res, P]) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-s.done:
		return ErrShutdown
	default:
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 引擎停止后关闭
func (s *Swarm[Req, Res, P]) Done() <-chan struct{} {
	return s.done
}

// State 返回当前状态
func (s *Swarm[Req, Res, P]) State() State {
	return State(s.state.Load())
}

// Stop 请求停止并等待引擎退出
func (s *Swarm[Req, Res, P]) Stop(ctx context.Context) error {
	if !s.started.Load() {
		s.finish()
		return nil
	}
	if err := s.Submit(ctx, Shutdown{}); err != nil && err != ErrShutdown {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 运行事件循环，直到收到 Shutdown、命令通道关闭或 ctx 取消
//
// 每轮在命令通道与网络事件之间选择先就绪的一个并处理完毕后再继续。
// 只能调用一次。
func (s *Swarm[Req, Res, P]) Run(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		log.Warn("事件循环已在运行")
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	s.ctx = ctx
	defer s.shutdown()

	log.Info("通信引擎已启动", "peer", s.LocalPeer().ShortString())
	for {
		select {
		case <-ctx.Done():
			return

		case cmd, ok := <-s.commands:
			if !ok {
				log.Debug("命令通道已关闭")
				return
			}
			if _, stop := cmd.(Shutdown); stop {
				return
			}
			s.handleCommand(cmd)

		case evt, ok := <-s.events:
			if !ok {
				s.eventsClosed()
				continue
			}
			s.handleEvent(evt)
		}
		s.drainReconnects()
	}
}

// shutdown 进入终止状态：移除监听器并停止读取命令
func (s *Swarm[Req, Res, P]) shutdown() {
	s.state.Store(int32(StateShuttingDown))
	if s.hasListener {
		s.fabric.RemoveListener(s.listener)
		s.hasListener = false
	}
	s.finish()
	log.Info("通信引擎已停止", "peer", s.LocalPeer().ShortString())
}

func (s *Swarm[Req, Res, P]) finish() {
	s.state.Store(int32(StateShuttingDown))
	s.doneOnce.Do(func() { close(s.done) })
}

// eventsClosed 网络层事件流结束后继续服务命令，等待将立即失败
func (s *Swarm[Req, Res, P]) eventsClosed() {
	if s.events != nil {
		log.Warn("网络层事件流已结束")
	}
	s.events = nil
}

// ============================================================================
//                              命令分发
// ============================================================================

func (s *Swarm[Req, Res, P]) handleCommand(cmd Command) {
	s.metrics.CommandHandled(cmd.Name())

	switch c := cmd.(type) {
	case RequestMsg[Req, Res]:
		res, err := s.request(c.Peer, c.Request)
		reply(c.Reply, RequestResult[Res]{Response: res, Err: err})

	case SetClientRef[Req, Res]:
		s.client = c.Client
		reply(c.Reply, struct{}{})

	case EstablishConnection:
		err := s.establish(c.Peer, c.Addr, c.KeepAlive)
		reply(c.Reply, ConnectResult{Peer: c.Peer, Err: err})

	case CloseConnection:
		s.table.RemoveConnection(c.Peer)
		if err := s.fabric.Disconnect(c.Peer); err != nil {
			log.Debug("断开连接失败", "peer", c.Peer.ShortString(), "err", err)
		}
		s.metrics.ConnectionsTracked(s.table.Len())
		reply(c.Reply, struct{}{})

	case CheckConnection:
		reply(c.Reply, s.fabric.IsConnected(c.Peer))

	case GetSwarmInfo:
		reply(c.Reply, SwarmInfo{
			PeerID:      s.LocalPeer(),
			Listeners:   s.fabric.ListenAddrs(),
			Connections: s.table.CurrentConnections(),
			Relay:       s.relay,
		})

	case StartListening:
		addr, err := s.startListening(c.Addr)
		reply(c.Reply, ListenResult{Addr: addr, Err: err})

	case RemoveListener:
		reply(c.Reply, s.removeListener())

	case BanPeer:
		s.fabric.BanPeer(c.Peer)
		s.table.RemoveConnection(c.Peer)
		s.metrics.ConnectionsTracked(s.table.Len())
		log.Info("已封禁节点", "peer", c.Peer.ShortString())
		reply(c.Reply, c.Peer)

	case UnbanPeer:
		s.fabric.UnbanPeer(c.Peer)
		log.Info("已解除封禁", "peer", c.Peer.ShortString())
		reply(c.Reply, c.Peer)

	case SetRelay:
		reply(c.Reply, s.setRelay(c.Config))

	case ConfigureFirewall:
		s.configureFirewall(c.Rule)
		reply(c.Reply, struct{}{})

	default:
		log.Warn("未知命令", "command", cmd.Name())
	}
}

// configureFirewall 应用规则，存在存储时持久化
func (s *Swarm[Req, Res, P]) configureFirewall(rule firewall.Rule) {
	if rule == nil {
		return
	}
	rule.Apply(s.firewall)

	if s.store == nil {
		return
	}
	if err := s.firewall.Save(s.store); err != nil {
		log.Warn("保存防火墙规则失败", "err", err)
	}
}

// ============================================================================
//                              事件分发
// ============================================================================

// handleEvent 所有未被等待匹配的网络事件都经过这里，无论是否处于等待中
func (s *Swarm[Req, Res, P]) handleEvent(evt types.Event) {
	s.metrics.EventHandled(evt.Type())

	switch e := evt.(type) {
	case types.EvtInboundRequest[Req]:
		s.handleInbound(e)

	case types.EvtConnectionEstablished:
		s.onConnectionEstablished(e)

	case types.EvtConnectionClosed:
		s.onConnectionClosed(e)

	case types.EvtListenerClosed:
		if s.hasListener && s.listener == e.Listener {
			log.Info("监听器已关闭", "listener", e.Listener, "err", e.Err)
			s.hasListener = false
		}

	case types.EvtResponse[Res], types.EvtInboundFailure, types.EvtOutboundFailure:
		// 已放弃的等待的迟到结果
		log.Debug("丢弃无人等待的请求结果", "type", evt.Type())

	default:
		log.Debug("忽略网络事件", "type", evt.Type())
	}
}
