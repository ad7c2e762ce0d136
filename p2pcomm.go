package p2pcomm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/swarm"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("p2pcomm")

// stopTimeout Close 等待各组件停止的时限
const stopTimeout = 10 * time.Second

// commState 生命周期阶段
type commState int

const (
	stateIdle commState = iota
	stateRunning
	stateClosed
)

// Comm 点对点通信节点
//
// 所有命令方法都经由引擎的单一事件循环执行；ctx 只控制调用方的等待，
// 引擎自身的时限（监听、连接、请求各 3 秒默认值）始终生效。
// Comm 可被多个 goroutine 并发使用。
type Comm[Req types.Request[P], Res any, P types.PermissionKind] struct {
	cfg   *config.Config
	app   *fx.App
	swarm *swarm.Swarm[Req, Res, P]

	mu    sync.Mutex
	state commState
}

// New 创建通信节点，client 处理入站请求，可以为 nil 并稍后通过 SetClient 设置
//
// 返回的节点尚未运行，需要调用 Start。
func New[Req types.Request[P], Res any, P types.PermissionKind](client pkgif.ClientRef[Req, Res], opts ...Option) (*Comm[Req, Res, P], error) {
	o := newOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}

	var out assembled[Req, Res, P]
	app, err := buildFxApp(o, cfg, client, &out)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	return &Comm[Req, Res, P]{
		cfg:   cfg,
		app:   app,
		swarm: out.swarm,
	}, nil
}

// ID 返回本地节点 ID
func (c *Comm[Req, Res, P]) ID() PeerID {
	return c.swarm.LocalPeer()
}

// Config 返回生效配置的副本
func (c *Comm[Req, Res, P]) Config() *config.Config {
	return c.cfg.Clone()
}

// Done 引擎停止后关闭
func (c *Comm[Req, Res, P]) Done() <-chan struct{} {
	return c.swarm.Done()
}

// Start 启动节点
//
// 启动引擎后依次监听 Transport.ListenAddrs 中的地址，并应用 Relay 配置。
// 任一步骤失败时节点被关闭并返回错误。
func (c *Comm[Req, Res, P]) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case stateRunning:
		c.mu.Unlock()
		return ErrAlreadyStarted
	case stateClosed:
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.app.Start(ctx); err != nil {
		c.state = stateClosed
		c.mu.Unlock()
		return fmt.Errorf("start app: %w", err)
	}
	c.state = stateRunning
	c.mu.Unlock()

	if err := c.applyStartupConfig(ctx); err != nil {
		return multierr.Append(err, c.Close())
	}
	log.Info("节点已启动", "peer", c.ID().ShortString())
	return nil
}

func (c *Comm[Req, Res, P]) applyStartupConfig(ctx context.Context) error {
	for _, s := range c.cfg.Transport.ListenAddrs {
		addr, err := types.ParseMultiaddr(s)
		if err != nil {
			return err
		}
		if _, err := c.Listen(ctx, addr); err != nil {
			return err
		}
	}

	rc, err := c.cfg.Relay.ToRelayConfig()
	if err != nil {
		return err
	}
	if rc.Enabled() {
		return c.SetRelay(ctx, rc)
	}
	return nil
}

// Close 停止引擎并释放网络层与存储
//
// 未启动的节点同样持有资源（存储、网络层），Close 会先完成启动再按顺序停止。
// 重复调用返回 nil。
func (c *Comm[Req, Res, P]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if c.state == stateIdle {
		if err := c.app.Start(ctx); err != nil {
			c.state = stateClosed
			return err
		}
	}
	c.state = stateClosed

	if err := c.app.Stop(ctx); err != nil {
		return fmt.Errorf("stop app: %w", err)
	}
	log.Info("节点已关闭", "peer", c.ID().ShortString())
	return nil
}

// ============================================================================
//                              命令
// ============================================================================

// Request 向 peer 发送请求并等待响应
//
// 本地出站防火墙拒绝或远端未在时限内应答时返回 *RejectedError。
func (c *Comm[Req, Res, P]) Request(ctx context.Context, peer PeerID, req Req) (Res, error) {
	reply := make(chan swarm.RequestResult[Res], 1)
	r, err := call(ctx, c, swarm.RequestMsg[Req, Res]{Peer: peer, Request: req, Reply: reply}, reply)
	if err != nil {
		var zero Res
		return zero, err
	}
	return r.Response, r.Err
}

// SetClient 替换本地请求处理方，nil 表示不再应答入站请求
func (c *Comm[Req, Res, P]) SetClient(ctx context.Context, client pkgif.ClientRef[Req, Res]) error {
	reply := make(chan struct{}, 1)
	_, err := call(ctx, c, swarm.SetClientRef[Req, Res]{Client: client, Reply: reply}, reply)
	return err
}

// Connect 连接 peer 并设置保活策略
//
// addr 为空时使用已知地址。每次调用都会重新拨号，成功后以新的端点和
// 保活策略替换已有的连接记录。
func (c *Comm[Req, Res, P]) Connect(ctx context.Context, peer PeerID, addr Multiaddr, keepAlive KeepAlive) error {
	reply := make(chan swarm.ConnectResult, 1)
	r, err := call(ctx, c, swarm.EstablishConnection{Peer: peer, Addr: addr, KeepAlive: keepAlive, Reply: reply}, reply)
	if err != nil {
		return err
	}
	return r.Err
}

// CloseConnection 断开 peer 并删除其连接记录，不再重连
func (c *Comm[Req, Res, P]) CloseConnection(ctx context.Context, peer PeerID) error {
	reply := make(chan struct{}, 1)
	_, err := call(ctx, c, swarm.CloseConnection{Peer: peer, Reply: reply}, reply)
	return err
}

// IsConnected 查询网络层是否与 peer 连接
func (c *Comm[Req, Res, P]) IsConnected(ctx context.Context, peer PeerID) (bool, error) {
	reply := make(chan bool, 1)
	return call(ctx, c, swarm.CheckConnection{Peer: peer, Reply: reply}, reply)
}

// Info 返回本地状态快照
func (c *Comm[Req, Res, P]) Info(ctx context.Context) (Info, error) {
	reply := make(chan swarm.SwarmInfo, 1)
	return call(ctx, c, swarm.GetSwarmInfo{Reply: reply}, reply)
}

// Listen 在 addr 上监听并返回绑定地址，addr 为空时使用默认监听地址
func (c *Comm[Req, Res, P]) Listen(ctx context.Context, addr Multiaddr) (Multiaddr, error) {
	reply := make(chan swarm.ListenResult, 1)
	r, err := call(ctx, c, swarm.StartListening{Addr: addr, Reply: reply}, reply)
	if err != nil {
		return "", err
	}
	return r.Addr, r.Err
}

// RemoveListener 关闭当前监听器，没有监听器时返回 ErrNoListener
func (c *Comm[Req, Res, P]) RemoveListener(ctx context.Context) error {
	reply := make(chan error, 1)
	r, err := call(ctx, c, swarm.RemoveListener{Reply: reply}, reply)
	if err != nil {
		return err
	}
	return r
}

// BanPeer 封禁 peer：断开连接并拒绝之后的连接
func (c *Comm[Req, Res, P]) BanPeer(ctx context.Context, peer PeerID) error {
	reply := make(chan types.PeerID, 1)
	_, err := call(ctx, c, swarm.BanPeer{Peer: peer, Reply: reply}, reply)
	return err
}

// UnbanPeer 解除封禁
func (c *Comm[Req, Res, P]) UnbanPeer(ctx context.Context, peer PeerID) error {
	reply := make(chan types.PeerID, 1)
	_, err := call(ctx, c, swarm.UnbanPeer{Peer: peer, Reply: reply}, reply)
	return err
}

// SetRelay 替换中继配置
func (c *Comm[Req, Res, P]) SetRelay(ctx context.Context, rc RelayConfig) error {
	reply := make(chan error, 1)
	r, err := call(ctx, c, swarm.SetRelay{Config: rc, Reply: reply}, reply)
	if err != nil {
		return err
	}
	return r
}

// ConfigureFirewall 应用防火墙规则
func (c *Comm[Req, Res, P]) ConfigureFirewall(ctx context.Context, rule FirewallRule) error {
	reply := make(chan struct{}, 1)
	_, err := call(ctx, c, swarm.ConfigureFirewall{Rule: rule, Reply: reply}, reply)
	return err
}

func (c *Comm[Req, Res, P]) checkRunning() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateIdle:
		return ErrNotStarted
	case stateClosed:
		return ErrClosed
	}
	return nil
}

// call 提交命令并等待应答
func call[T any, Req types.Request[P], Res any, P types.PermissionKind](
	ctx context.Context,
	c *Comm[Req, Res, P],
	cmd swarm.Command,
	reply chan T,
) (T, error) {
	var zero T
	if err := c.checkRunning(); err != nil {
		return zero, err
	}
	if err := c.swarm.Submit(ctx, cmd); err != nil {
		return zero, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-c.swarm.Done():
		// 引擎可能在退出前已写入应答
		select {
		case v := <-reply:
			return v, nil
		default:
		}
		return zero, ErrShutdown
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
