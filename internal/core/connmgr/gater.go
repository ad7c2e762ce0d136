package connmgr

import (
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// banPrefix 封禁节点在存储引擎中的键前缀
const banPrefix = "connmgr/ban/"

// Gater 连接门控器
//
// 网络层在多个 goroutine 中查询，内部加锁。
type Gater struct {
	mu         sync.RWMutex
	blocked    map[types.PeerID]struct{}
	blockedIPs map[string]struct{}
	store      pkgif.Engine

	// 统计
	interceptedDials   atomic.Int64
	interceptedAccepts atomic.Int64
}

// NewGater 创建连接门控器
func NewGater() *Gater {
	return &Gater{
		blocked:    make(map[types.PeerID]struct{}),
		blockedIPs: make(map[string]struct{}),
	}
}

// AttachStore 挂载存储引擎并加载已保存的封禁列表
func (g *Gater) AttachStore(store pkgif.Engine) error {
	if store == nil {
		return nil
	}

	loaded := make([]types.PeerID, 0)
	err := store.Scan([]byte(banPrefix), func(key, _ []byte) error {
		peer, err := types.ParsePeerID(string(key[len(banPrefix):]))
		if err != nil {
			log.Warn("忽略无效的封禁记录", "key", string(key))
			return nil
		}
		loaded = append(loaded, peer)
		return nil
	})
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.store = store
	for _, p := range loaded {
		g.blocked[p] = struct{}{}
	}
	g.mu.Unlock()

	if len(loaded) > 0 {
		log.Info("已加载封禁列表", "peers", len(loaded))
	}
	return nil
}

// BlockPeer 封禁节点
func (g *Gater) BlockPeer(peer types.PeerID) {
	g.mu.Lock()
	g.blocked[peer] = struct{}{}
	store := g.store
	g.mu.Unlock()

	if store != nil {
		if err := store.Put(banKey(peer), []byte{1}); err != nil {
			log.Warn("保存封禁记录失败", "peer", peer.ShortString(), "err", err)
		}
	}
}

// UnblockPeer 解除节点封禁
func (g *Gater) UnblockPeer(peer types.PeerID) {
	g.mu.Lock()
	delete(g.blocked, peer)
	store := g.store
	g.mu.Unlock()

	if store != nil {
		if err := store.Delete(banKey(peer)); err != nil {
			log.Warn("删除封禁记录失败", "peer", peer.ShortString(), "err", err)
		}
	}
}

// IsBlocked 节点是否被封禁
func (g *Gater) IsBlocked(peer types.PeerID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, blocked := g.blocked[peer]
	return blocked
}

// BlockedPeers 返回所有被封禁的节点，按字符串排序
func (g *Gater) BlockedPeers() []types.PeerID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	peers := make([]types.PeerID, 0, len(g.blocked))
	for p := range g.blocked {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].String() < peers[j].String() })
	return peers
}

// BlockIP 封禁 IP，作用于按地址拨号与入站接入
func (g *Gater) BlockIP(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blockedIPs[normalizeIP(ip)] = struct{}{}
}

// InterceptPeerDial 拨号前检查，返回 false 表示拒绝
func (g *Gater) InterceptPeerDial(peer types.PeerID) bool {
	if g.IsBlocked(peer) {
		g.interceptedDials.Add(1)
		return false
	}
	return true
}

// InterceptAddrDial 按地址拨号前检查
func (g *Gater) InterceptAddrDial(addr types.Multiaddr) bool {
	if g.isAddrBlocked(addr) {
		g.interceptedDials.Add(1)
		return false
	}
	return true
}

// InterceptAccept 接受连接前按远端地址检查
func (g *Gater) InterceptAccept(remote types.Multiaddr) bool {
	if g.isAddrBlocked(remote) {
		g.interceptedAccepts.Add(1)
		return false
	}
	return true
}

// InterceptSecured 握手后按对端身份检查
func (g *Gater) InterceptSecured(peer types.PeerID) bool {
	if g.IsBlocked(peer) {
		g.interceptedAccepts.Add(1)
		return false
	}
	return true
}

func (g *Gater) isAddrBlocked(addr types.Multiaddr) bool {
	host, _, err := addr.HostPort()
	if err != nil {
		return false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	_, blocked := g.blockedIPs[normalizeIP(host)]
	return blocked
}

// GaterStats 门控统计
type GaterStats struct {
	BlockedPeers       int
	BlockedIPs         int
	InterceptedDials   int64
	InterceptedAccepts int64
}

// Stats 返回统计信息
func (g *Gater) Stats() GaterStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GaterStats{
		BlockedPeers:       len(g.blocked),
		BlockedIPs:         len(g.blockedIPs),
		InterceptedDials:   g.interceptedDials.Load(),
		InterceptedAccepts: g.interceptedAccepts.Load(),
	}
}

func banKey(peer types.PeerID) []byte {
	return []byte(banPrefix + peer.String())
}

func normalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if parsed := net.ParseIP(ip); parsed != nil {
		return parsed.String()
	}
	return ip
}
