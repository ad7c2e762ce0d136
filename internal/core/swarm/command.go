package swarm

import (
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Command 控制命令
//
// 每条命令携带自己的应答通道。引擎以非阻塞方式发送结果：
// 通道为 nil 或已满时结果被丢弃，因此调用方应使用容量至少为 1 的通道。
type Command interface {
	// Name 命令名称，用于日志与指标
	Name() string
}

// RequestMsg 向对端发送请求
type RequestMsg[Req, Res any] struct {
	Peer    types.PeerID
	Request Req
	Reply   chan<- RequestResult[Res]
}

// RequestResult 请求结果
type RequestResult[Res any] struct {
	Response Res
	Err      error
}

// SetClientRef 替换本地请求处理方
type SetClientRef[Req, Res any] struct {
	Client pkgif.ClientRef[Req, Res]
	Reply  chan<- struct{}
}

// EstablishConnection 建立连接并设置保活策略
type EstablishConnection struct {
	Peer      types.PeerID
	Addr      types.Multiaddr
	KeepAlive types.KeepAlive
	Reply     chan<- ConnectResult
}

// ConnectResult 连接结果
type ConnectResult struct {
	Peer types.PeerID
	Err  error
}

// CloseConnection 移除连接记录并断开对端
type CloseConnection struct {
	Peer  types.PeerID
	Reply chan<- struct{}
}

// CheckConnection 查询网络层是否与对端连接
type CheckConnection struct {
	Peer  types.PeerID
	Reply chan<- bool
}

// GetSwarmInfo 查询本地状态
type GetSwarmInfo struct {
	Reply chan<- SwarmInfo
}

// SwarmInfo 本地状态
type SwarmInfo struct {
	PeerID      types.PeerID
	Listeners   []types.Multiaddr
	Connections []types.ConnectionInfo
	Relay       types.RelayConfig
}

// StartListening 启动监听，Addr 为空时使用默认地址
type StartListening struct {
	Addr  types.Multiaddr
	Reply chan<- ListenResult
}

// ListenResult 监听结果
type ListenResult struct {
	Addr types.Multiaddr
	Err  error
}

// RemoveListener 关闭当前监听器
type RemoveListener struct {
	Reply chan<- error
}

// BanPeer 封禁对端
type BanPeer struct {
	Peer  types.PeerID
	Reply chan<- types.PeerID
}

// UnbanPeer 解除封禁
type UnbanPeer struct {
	Peer  types.PeerID
	Reply chan<- types.PeerID
}

// SetRelay 替换中继配置
type SetRelay struct {
	Config types.RelayConfig
	Reply  chan<- error
}

// ConfigureFirewall 修改防火墙规则，总是成功
type ConfigureFirewall struct {
	Rule  firewall.Rule
	Reply chan<- struct{}
}

// Shutdown 停止引擎，没有应答
type Shutdown struct{}

// Name 实现 Command
func (RequestMsg[Req, Res]) Name() string { return "request" }

// Name 实现 Command
func (SetClientRef[Req, Res]) Name() string { return "set_client" }

// Name 实现 Command
func (EstablishConnection) Name() string { return "establish_connection" }

// Name 实现 Command
func (CloseConnection) Name() string { return "close_connection" }

// Name 实现 Command
func (CheckConnection) Name() string { return "check_connection" }

// Name 实现 Command
func (GetSwarmInfo) Name() string { return "swarm_info" }

// Name 实现 Command
func (StartListening) Name() string { return "start_listening" }

// Name 实现 Command
func (RemoveListener) Name() string { return "remove_listener" }

// Name 实现 Command
func (BanPeer) Name() string { return "ban_peer" }

// Name 实现 Command
func (UnbanPeer) Name() string { return "unban_peer" }

// Name 实现 Command
func (SetRelay) Name() string { return "set_relay" }

// Name 实现 Command
func (ConfigureFirewall) Name() string { return "configure_firewall" }

// Name 实现 Command
func (Shutdown) Name() string { return "shutdown" }

// reply 非阻塞地发送结果
func reply[T any](ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
		log.Debug("应答通道已满，丢弃结果")
	}
}
