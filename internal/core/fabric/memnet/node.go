package memnet

import (
	"fmt"
	"sort"

	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/fabric"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// DialAttempt 一次拨号尝试
//
// Dial(peer) 记录 Peer，DialAddr(addr) 只记录 Addr。
type DialAttempt struct {
	Peer types.PeerID
	Addr types.Multiaddr
}

// SentRequest 一次 SendRequest 调用
type SentRequest[Req any] struct {
	Peer      types.PeerID
	RequestID types.RequestID
	Envelope  types.RequestEnvelope[Req]
}

// SentResponse 一次 SendResponse 调用
type SentResponse[Res any] struct {
	RequestID types.RequestID
	Response  Res
}

type pendingResponse[Req, Res any] struct {
	origin   *Node[Req, Res]
	originID types.RequestID
	// via 发起方实际发往的节点（直连时为目标，经中继时为中继）
	via types.PeerID
}

// Node 进程内网络中的一个节点，实现 interfaces.Fabric
type Node[Req, Res any] struct {
	net    *Network[Req, Res]
	id     types.PeerID
	gater  *connmgr.Gater
	events *fabric.Queue

	// 以下字段由 net.mu 保护
	listeners map[types.ListenerID]types.Multiaddr
	links     map[types.PeerID][]*link[Req, Res]
	addrs     map[types.PeerID]types.Multiaddr
	pending   map[types.RequestID]pendingResponse[Req, Res]
	failures  map[types.PeerID]types.OutboundFailure
	relay     bool
	closed    bool

	dials     []DialAttempt
	sent      []SentRequest[Req]
	responses []SentResponse[Res]
}

var _ pkgif.Fabric[struct{}, struct{}] = (*Node[struct{}, struct{}])(nil)

// LocalPeer 实现 Fabric
func (n *Node[Req, Res]) LocalPeer() types.PeerID {
	return n.id
}

// Dial 实现 Fabric
func (n *Node[Req, Res]) Dial(peer types.PeerID) error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if n.closed {
		return pkgif.ErrFabricClosed
	}
	n.dials = append(n.dials, DialAttempt{Peer: peer, Addr: n.addrs[peer]})

	if !n.gater.InterceptPeerDial(peer) {
		return connmgr.ErrPeerBlocked
	}
	addr, ok := n.addrs[peer]
	if !ok {
		return pkgif.ErrNoAddresses
	}
	_ = n.connectLocked(peer, addr)
	return nil
}

// DialAddr 实现 Fabric
func (n *Node[Req, Res]) DialAddr(addr types.Multiaddr) error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if n.closed {
		return pkgif.ErrFabricClosed
	}
	n.dials = append(n.dials, DialAttempt{Addr: addr})

	if addr.Transport() == "" {
		return fmt.Errorf("%w: %s", types.ErrInvalidMultiaddr, addr)
	}
	if !n.gater.InterceptAddrDial(addr) {
		return connmgr.ErrAddrBlocked
	}
	_ = n.connectLocked(types.EmptyPeerID, addr)
	return nil
}

// connectLocked 建立到 addr 的连接，失败时发出 EvtDialFailure
func (n *Node[Req, Res]) connectLocked(expect types.PeerID, addr types.Multiaddr) error {
	fail := func(err error) error {
		n.emit(types.EvtDialFailure{Peer: expect, Addr: addr, Err: err})
		return err
	}

	if _, ok := n.net.unreachable[addr]; ok {
		return fail(ErrUnreachable)
	}
	l, ok := n.net.listeners[addr]
	if !ok {
		return fail(ErrConnectionRefused)
	}
	remote := l.node
	if remote == n {
		return fail(ErrDialSelf)
	}
	if !expect.IsEmpty() && remote.id != expect {
		return fail(ErrPeerIDMismatch)
	}

	remoteAddr := n.publicAddrLocked()
	if !remote.gater.InterceptAccept(remoteAddr) || !remote.gater.InterceptSecured(n.id) {
		return fail(ErrConnectionRejected)
	}

	lk := &link[Req, Res]{dialer: n, listener: remote, addr: addr, remoteAddr: remoteAddr}
	n.links[remote.id] = append(n.links[remote.id], lk)
	remote.links[n.id] = append(remote.links[n.id], lk)
	n.addrs[remote.id] = addr

	n.emit(types.EvtConnectionEstablished{
		Peer:           remote.id,
		Endpoint:       types.DialerEndpoint(addr),
		NumEstablished: len(n.links[remote.id]),
	})
	remote.emit(types.EvtConnectionEstablished{
		Peer:           n.id,
		Endpoint:       types.ListenerEndpoint(remoteAddr),
		NumEstablished: len(remote.links[n.id]),
	})
	return nil
}

// publicAddrLocked 对端看到的本节点地址
func (n *Node[Req, Res]) publicAddrLocked() types.Multiaddr {
	if addrs := n.listenAddrsLocked(); len(addrs) > 0 {
		return addrs[0]
	}
	return types.Multiaddr("/memory/" + n.id.String())
}

// Listen 实现 Fabric
func (n *Node[Req, Res]) Listen(addr types.Multiaddr) (types.ListenerID, error) {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if n.closed {
		return 0, pkgif.ErrFabricClosed
	}
	bound, err := n.net.bindLocked(addr)
	if err != nil {
		return 0, err
	}

	n.net.nextListener++
	id := types.ListenerID(n.net.nextListener)
	n.listeners[id] = bound
	n.net.listeners[bound] = &listener[Req, Res]{id: id, node: n, addr: bound}

	n.emit(types.EvtNewListenAddr{Listener: id, Addr: bound})
	return id, nil
}

// RemoveListener 实现 Fabric
func (n *Node[Req, Res]) RemoveListener(id types.ListenerID) bool {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.removeListenerLocked(id)
}

func (n *Node[Req, Res]) removeListenerLocked(id types.ListenerID) bool {
	addr, ok := n.listeners[id]
	if !ok {
		return false
	}
	delete(n.listeners, id)
	delete(n.net.listeners, addr)

	n.emit(types.EvtListenerClosed{Listener: id, Addrs: []types.Multiaddr{addr}})
	return true
}

// ListenAddrs 实现 Fabric
func (n *Node[Req, Res]) ListenAddrs() []types.Multiaddr {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return n.listenAddrsLocked()
}

func (n *Node[Req, Res]) listenAddrsLocked() []types.Multiaddr {
	addrs := make([]types.Multiaddr, 0, len(n.listeners))
	for _, a := range n.listeners {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// IsConnected 实现 Fabric
func (n *Node[Req, Res]) IsConnected(peer types.PeerID) bool {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return len(n.links[peer]) > 0
}

// Disconnect 实现 Fabric
func (n *Node[Req, Res]) Disconnect(peer types.PeerID) error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.closeLinksLocked(peer, nil)
	return nil
}

// closeLinksLocked 关闭与 peer 的所有连接，两端各收到 EvtConnectionClosed
func (n *Node[Req, Res]) closeLinksLocked(peer types.PeerID, cause error) int {
	links := n.links[peer]
	for i := len(links) - 1; i >= 0; i-- {
		lk := links[i]
		remote := lk.listener
		if remote == n {
			remote = lk.dialer
		}
		n.links[peer] = removeLink(n.links[peer], lk)
		remote.links[n.id] = removeLink(remote.links[n.id], lk)

		n.emitClosedLocked(lk, peer, cause)
		remote.emitClosedLocked(lk, n.id, cause)
	}
	if len(n.links[peer]) == 0 {
		delete(n.links, peer)
	}
	return len(links)
}

func (n *Node[Req, Res]) emitClosedLocked(lk *link[Req, Res], peer types.PeerID, cause error) {
	endpoint := types.ListenerEndpoint(lk.remoteAddr)
	if lk.dialer == n {
		endpoint = types.DialerEndpoint(lk.addr)
	}
	n.emit(types.EvtConnectionClosed{
		Peer:           peer,
		Endpoint:       endpoint,
		NumEstablished: len(n.links[peer]),
		Cause:          cause,
	})
}

func removeLink[Req, Res any](links []*link[Req, Res], lk *link[Req, Res]) []*link[Req, Res] {
	for i, l := range links {
		if l == lk {
			return append(links[:i], links[i+1:]...)
		}
	}
	return links
}

// BanPeer 实现 Fabric
func (n *Node[Req, Res]) BanPeer(peer types.PeerID) {
	n.gater.BlockPeer(peer)

	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.closeLinksLocked(peer, connmgr.ErrPeerBlocked)
}

// UnbanPeer 实现 Fabric
func (n *Node[Req, Res]) UnbanPeer(peer types.PeerID) {
	n.gater.UnblockPeer(peer)
}

// SendRequest 实现 Fabric
//
// 未连接时按地址簿拨号；拨号失败以 OutboundDialFailure 结束请求。
func (n *Node[Req, Res]) SendRequest(peer types.PeerID, env types.RequestEnvelope[Req]) types.RequestID {
	id := types.NewRequestID()

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.sent = append(n.sent, SentRequest[Req]{Peer: peer, RequestID: id, Envelope: env})
	if n.closed {
		return id
	}

	if f, ok := n.failures[peer]; ok {
		n.emit(types.EvtOutboundFailure{Peer: peer, RequestID: id, Failure: f})
		return id
	}

	if len(n.links[peer]) == 0 && !n.dialOnDemandLocked(peer) {
		n.emit(types.EvtOutboundFailure{Peer: peer, RequestID: id, Failure: types.OutboundDialFailure})
		return id
	}

	target := n.net.nodes[peer]
	target.deliverLocked(n, env, n, id, peer)
	return id
}

func (n *Node[Req, Res]) dialOnDemandLocked(peer types.PeerID) bool {
	if !n.gater.InterceptPeerDial(peer) {
		return false
	}
	addr, ok := n.addrs[peer]
	if !ok {
		return false
	}
	n.dials = append(n.dials, DialAttempt{Peer: peer, Addr: addr})
	return n.connectLocked(peer, addr) == nil
}

// deliverLocked 把信封交给本节点；启用中继且目标不是本节点时转发
func (n *Node[Req, Res]) deliverLocked(sender *Node[Req, Res], env types.RequestEnvelope[Req],
	origin *Node[Req, Res], originID types.RequestID, via types.PeerID) {
	if n.closed {
		origin.emit(types.EvtOutboundFailure{Peer: via, RequestID: originID, Failure: types.OutboundConnectionClosed})
		return
	}

	if n.relay && !env.IsAddressedTo(n.id) {
		target, err := types.ParsePeerID(env.Target)
		if err != nil || len(n.links[target]) == 0 {
			log.Debug("中继目标不可达", "relay", n.id.ShortString(), "target", env.Target)
			origin.emit(types.EvtOutboundFailure{Peer: via, RequestID: originID, Failure: types.OutboundDialFailure})
			return
		}
		n.net.nodes[target].deliverLocked(n, env, origin, originID, via)
		return
	}

	inID := types.NewRequestID()
	n.pending[inID] = pendingResponse[Req, Res]{origin: origin, originID: originID, via: via}
	n.emit(types.EvtInboundRequest[Req]{Peer: sender.id, RequestID: inID, Envelope: env})
}

// SendResponse 实现 Fabric
func (n *Node[Req, Res]) SendResponse(id types.RequestID, res Res) error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	n.responses = append(n.responses, SentResponse[Res]{RequestID: id, Response: res})

	p, ok := n.pending[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	delete(n.pending, id)

	if p.origin.closed {
		return types.InboundConnectionClosed
	}
	p.origin.emit(types.EvtResponse[Res]{Peer: p.via, RequestID: p.originID, Response: res})
	return nil
}

// Events 实现 Fabric
func (n *Node[Req, Res]) Events() <-chan types.Event {
	return n.events.Out()
}

// Close 实现 Fabric
func (n *Node[Req, Res]) Close() error {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if n.closed {
		return nil
	}
	for id := range n.listeners {
		n.removeListenerLocked(id)
	}
	for peer := range n.links {
		n.closeLinksLocked(peer, pkgif.ErrFabricClosed)
	}
	n.closed = true
	delete(n.net.nodes, n.id)
	n.events.Close()
	return nil
}

func (n *Node[Req, Res]) emit(evt types.Event) {
	n.events.Push(evt)
}

// ============================================================================
//                              测试辅助
// ============================================================================

// Gater 返回节点的连接门控器
func (n *Node[Req, Res]) Gater() *connmgr.Gater {
	return n.gater
}

// AddAddr 向地址簿添加节点地址
func (n *Node[Req, Res]) AddAddr(peer types.PeerID, addr types.Multiaddr) {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.addrs[peer] = addr
}

// EnableRelay 设置是否转发目标不是本节点的请求
func (n *Node[Req, Res]) EnableRelay(enable bool) {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.relay = enable
}

// SetRequestFailure 让发往 peer 的请求以 f 失败
func (n *Node[Req, Res]) SetRequestFailure(peer types.PeerID, f types.OutboundFailure) {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	n.failures[peer] = f
}

// ClearRequestFailure 撤销 SetRequestFailure
func (n *Node[Req, Res]) ClearRequestFailure(peer types.PeerID) {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	delete(n.failures, peer)
}

// Inject 向本节点推送任意事件
func (n *Node[Req, Res]) Inject(evt types.Event) {
	n.emit(evt)
}

// Dials 返回所有拨号尝试
func (n *Node[Req, Res]) Dials() []DialAttempt {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return append([]DialAttempt(nil), n.dials...)
}

// DialCount 返回以 peer 为目标的拨号次数
func (n *Node[Req, Res]) DialCount(peer types.PeerID) int {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	count := 0
	for _, d := range n.dials {
		if d.Peer == peer {
			count++
		}
	}
	return count
}

// SentRequests 返回所有发出的请求
func (n *Node[Req, Res]) SentRequests() []SentRequest[Req] {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return append([]SentRequest[Req](nil), n.sent...)
}

// Responses 返回所有发出的响应
func (n *Node[Req, Res]) Responses() []SentResponse[Res] {
	n.net.mu.Lock()
	defer n.net.mu.Unlock()
	return append([]SentResponse[Res](nil), n.responses...)
}
