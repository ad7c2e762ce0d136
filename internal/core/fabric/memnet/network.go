package memnet

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/fabric"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("fabric/memnet")

const firstPort = 40000

// Network 进程内网络
type Network[Req, Res any] struct {
	mu sync.Mutex

	nodes       map[types.PeerID]*Node[Req, Res]
	listeners   map[types.Multiaddr]*listener[Req, Res]
	unreachable map[types.Multiaddr]struct{}

	nextPort     int
	nextName     int
	nextListener uint64
}

type listener[Req, Res any] struct {
	id   types.ListenerID
	node *Node[Req, Res]
	addr types.Multiaddr
}

// link 两个节点之间的一条连接
type link[Req, Res any] struct {
	dialer   *Node[Req, Res]
	listener *Node[Req, Res]

	// addr 拨号方使用的地址
	addr types.Multiaddr
	// remoteAddr 监听方看到的拨号方地址
	remoteAddr types.Multiaddr
}

// NewNetwork 创建空网络
func NewNetwork[Req, Res any]() *Network[Req, Res] {
	return &Network[Req, Res]{
		nodes:       make(map[types.PeerID]*Node[Req, Res]),
		listeners:   make(map[types.Multiaddr]*listener[Req, Res]),
		unreachable: make(map[types.Multiaddr]struct{}),
		nextPort:    firstPort,
	}
}

// NewNode 以随机 ID 加入一个节点
func (n *Network[Req, Res]) NewNode() *Node[Req, Res] {
	for {
		node, err := n.AddNode(types.RandomPeerID(), nil)
		if err == nil {
			return node
		}
	}
}

// AddNode 以指定 ID 加入节点，gater 为 nil 时新建
func (n *Network[Req, Res]) AddNode(id types.PeerID, gater *connmgr.Gater) (*Node[Req, Res], error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.nodes[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePeer, id.ShortString())
	}
	if gater == nil {
		gater = connmgr.NewGater()
	}

	node := &Node[Req, Res]{
		net:       n,
		id:        id,
		gater:     gater,
		events:    fabric.NewQueue(),
		listeners: make(map[types.ListenerID]types.Multiaddr),
		links:     make(map[types.PeerID][]*link[Req, Res]),
		addrs:     make(map[types.PeerID]types.Multiaddr),
		pending:   make(map[types.RequestID]pendingResponse[Req, Res]),
		failures:  make(map[types.PeerID]types.OutboundFailure),
	}
	n.nodes[id] = node
	log.Debug("节点加入网络", "peer", id.ShortString())
	return node, nil
}

// SetUnreachable 设置地址是否不可达
//
// 不可达地址上的拨号以 ErrUnreachable 失败，已有连接不受影响。
func (n *Network[Req, Res]) SetUnreachable(addr types.Multiaddr, unreachable bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if unreachable {
		n.unreachable[addr] = struct{}{}
	} else {
		delete(n.unreachable, addr)
	}
}

// Disconnect 模拟 a 与 b 之间所有连接断开，返回关闭的连接数
func (n *Network[Req, Res]) Disconnect(a, b types.PeerID) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	node, ok := n.nodes[a]
	if !ok {
		return 0
	}
	return node.closeLinksLocked(b, ErrSimulatedDrop)
}

// Node 返回节点
func (n *Network[Req, Res]) Node(id types.PeerID) (*Node[Req, Res], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	node, ok := n.nodes[id]
	return node, ok
}

// bindLocked 解析监听地址，为通配名称和端口 0 分配唯一值
func (n *Network[Req, Res]) bindLocked(addr types.Multiaddr) (types.Multiaddr, error) {
	switch addr.Transport() {
	case types.TransportMemory:
		if name := addr.MemoryName(); name == "0" {
			n.nextName++
			addr = types.Multiaddr(fmt.Sprintf("/memory/mem-%d", n.nextName))
		}
	case types.TransportTCP, types.TransportQUIC:
		host, port, err := addr.HostPort()
		if err != nil {
			return "", err
		}
		if port == 0 {
			port = n.nextPort
			n.nextPort++
		}
		if host == "0.0.0.0" {
			host = "127.0.0.1"
		}
		bound, err := types.FromHostPort(host, port, addr.Transport())
		if err != nil {
			return "", err
		}
		addr = bound
	default:
		return "", fmt.Errorf("%w: %s", types.ErrInvalidMultiaddr, addr)
	}

	if _, taken := n.listeners[addr]; taken {
		return "", fmt.Errorf("%w: %s", ErrAddrInUse, addr)
	}
	return addr, nil
}
