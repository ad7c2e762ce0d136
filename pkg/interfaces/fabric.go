package interfaces

import (
	"errors"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// ErrNoAddresses 网络层不知道对端的任何地址
//
// 引擎收到该错误时改为按调用方给出的地址拨号。
var ErrNoAddresses = errors.New("no known addresses for peer")

// ErrFabricClosed 网络层已关闭
var ErrFabricClosed = errors.New("fabric closed")

// Fabric 网络层
//
// 引擎独占一个 Fabric。除 Events() 外，所有方法只在引擎的单一
// goroutine 中调用；事件按发生顺序通过 Events() 发出。
//
// 异步操作（拨号、请求）的结果以事件形式返回：
//   - Dial/DialAddr 成功 → EvtConnectionEstablished，失败 → EvtDialFailure
//   - SendRequest → EvtResponse / EvtOutboundFailure
//   - Listen → EvtNewListenAddr
type Fabric[Req, Res any] interface {
	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID

	// Dial 使用已知地址拨号对端，未知任何地址时返回 ErrNoAddresses
	Dial(peer types.PeerID) error

	// DialAddr 按地址拨号
	DialAddr(addr types.Multiaddr) error

	// Listen 在地址上启动监听器
	Listen(addr types.Multiaddr) (types.ListenerID, error)

	// RemoveListener 关闭监听器，不存在时返回 false
	RemoveListener(id types.ListenerID) bool

	// ListenAddrs 返回所有监听器实际绑定的地址
	ListenAddrs() []types.Multiaddr

	// IsConnected 是否与对端存在至少一条连接
	IsConnected(peer types.PeerID) bool

	// Disconnect 断开与对端的所有连接
	Disconnect(peer types.PeerID) error

	// BanPeer 封禁对端：断开现有连接并拒绝后续连接
	BanPeer(peer types.PeerID)

	// UnbanPeer 解除封禁
	UnbanPeer(peer types.PeerID)

	// SendRequest 向 peer 发送请求信封，返回网络层分配的请求 ID
	SendRequest(peer types.PeerID, env types.RequestEnvelope[Req]) types.RequestID

	// SendResponse 回复入站请求
	SendResponse(id types.RequestID, res Res) error

	// Events 返回事件通道，Close 后通道关闭
	Events() <-chan types.Event

	// Close 关闭网络层
	Close() error
}
