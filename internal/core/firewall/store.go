package firewall

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// snapshotKey 防火墙快照在存储引擎中的键
var snapshotKey = []byte("firewall/snapshot")

// Snapshot 防火墙的可序列化状态
type Snapshot struct {
	DefaultInbound  types.FirewallPermission `json:"default_inbound"`
	DefaultOutbound types.FirewallPermission `json:"default_outbound"`
	Rules           []SnapshotRule           `json:"rules"`
}

// SnapshotRule 一条显式规则
type SnapshotRule struct {
	Peer       types.PeerID             `json:"peer"`
	Direction  types.Direction          `json:"direction"`
	Permission types.FirewallPermission `json:"permission"`
}

// Snapshot 导出当前状态，规则按节点与方向排序
func (f *Firewall) Snapshot() Snapshot {
	s := Snapshot{
		DefaultInbound:  f.defaultIn,
		DefaultOutbound: f.defaultOut,
		Rules:           make([]SnapshotRule, 0, len(f.rules)),
	}
	for k, v := range f.rules {
		s.Rules = append(s.Rules, SnapshotRule{Peer: k.peer, Direction: k.dir, Permission: v})
	}
	sort.Slice(s.Rules, func(i, j int) bool {
		a, b := s.Rules[i], s.Rules[j]
		if a.Peer != b.Peer {
			return a.Peer.String() < b.Peer.String()
		}
		return a.Direction < b.Direction
	})
	return s
}

// Restore 用快照替换当前状态
func (f *Firewall) Restore(s Snapshot) {
	f.defaultIn = s.DefaultInbound
	f.defaultOut = s.DefaultOutbound
	f.rules = make(map[ruleKey]types.FirewallPermission, len(s.Rules))
	for _, r := range s.Rules {
		f.rules[ruleKey{r.Peer, r.Direction}] = r.Permission
	}
}

// Save 将快照写入存储引擎
func (f *Firewall) Save(engine pkgif.Engine) error {
	data, err := json.Marshal(f.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal firewall snapshot: %w", err)
	}
	if err := engine.Put(snapshotKey, data); err != nil {
		return fmt.Errorf("save firewall snapshot: %w", err)
	}
	return nil
}

// Load 从存储引擎恢复显式节点规则
//
// 默认规则始终以当前配置为准，快照中的默认值只用于比对。
// 没有已保存的快照时返回 false 且不修改当前状态。
func (f *Firewall) Load(engine pkgif.Engine) (bool, error) {
	data, err := engine.Get(snapshotKey)
	if errors.Is(err, pkgif.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load firewall snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return false, fmt.Errorf("decode firewall snapshot: %w", err)
	}
	if s.DefaultInbound != f.defaultIn || s.DefaultOutbound != f.defaultOut {
		log.Warn("已保存的默认规则与配置不同，使用配置值",
			"storedInbound", s.DefaultInbound, "storedOutbound", s.DefaultOutbound,
			"inbound", f.defaultIn, "outbound", f.defaultOut)
	}
	s.DefaultInbound, s.DefaultOutbound = f.defaultIn, f.defaultOut
	f.Restore(s)
	return true, nil
}
