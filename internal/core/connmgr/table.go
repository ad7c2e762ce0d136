package connmgr

import (
	"sort"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("core/connmgr")

// Table 连接表
type Table struct {
	clock clock.Clock
	conns map[types.PeerID]types.ConnectionInfo
}

// NewTable 创建连接表，clk 为 nil 时使用系统时钟
func NewTable(clk clock.Clock) *Table {
	if clk == nil {
		clk = clock.New()
	}
	return &Table{
		clock: clk,
		conns: make(map[types.PeerID]types.ConnectionInfo),
	}
}

// Insert 插入或覆盖对端记录
func (t *Table) Insert(peer types.PeerID, endpoint types.Endpoint, keepAlive types.KeepAlive) {
	t.conns[peer] = types.ConnectionInfo{
		Peer:          peer,
		Endpoint:      endpoint,
		KeepAlive:     keepAlive,
		EstablishedAt: t.clock.Now(),
	}
	log.Debug("记录连接", "peer", peer.ShortString(), "endpoint", endpoint, "keepAlive", keepAlive)
}

// RemoveConnection 删除对端记录，返回被删除的记录
func (t *Table) RemoveConnection(peer types.PeerID) (types.ConnectionInfo, bool) {
	info, ok := t.conns[peer]
	if ok {
		delete(t.conns, peer)
		log.Debug("移除连接", "peer", peer.ShortString())
	}
	return info, ok
}

// IsActiveConnection 是否存在对端记录
func (t *Table) IsActiveConnection(peer types.PeerID) bool {
	_, ok := t.conns[peer]
	return ok
}

// IsKeepAlive 对端记录是否允许重连
func (t *Table) IsKeepAlive(peer types.PeerID) bool {
	info, ok := t.conns[peer]
	return ok && info.KeepAlive.Active()
}

// SetKeepAlive 修改对端保活策略，不存在记录时返回 false
func (t *Table) SetKeepAlive(peer types.PeerID, keepAlive types.KeepAlive) bool {
	info, ok := t.conns[peer]
	if !ok {
		return false
	}
	info.KeepAlive = keepAlive
	t.conns[peer] = info
	return true
}

// ConsumeKeepAlive 消耗一次重连机会
//
// 返回消耗前是否允许重连。Limited(n) 递减为 Limited(n-1)。
func (t *Table) ConsumeKeepAlive(peer types.PeerID) bool {
	info, ok := t.conns[peer]
	if !ok || !info.KeepAlive.Active() {
		return false
	}
	info.KeepAlive = info.KeepAlive.Consume()
	t.conns[peer] = info
	return true
}

// Get 返回对端记录
func (t *Table) Get(peer types.PeerID) (types.ConnectionInfo, bool) {
	info, ok := t.conns[peer]
	return info, ok
}

// CurrentConnections 返回所有记录，按节点 ID 字符串排序
func (t *Table) CurrentConnections() []types.ConnectionInfo {
	out := make([]types.ConnectionInfo, 0, len(t.conns))
	for _, info := range t.conns {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Peer.String() < out[j].Peer.String()
	})
	return out
}

// Len 记录数量
func (t *Table) Len() int {
	return len(t.conns)
}
