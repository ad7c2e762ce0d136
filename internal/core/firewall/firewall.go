package firewall

import (
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("core/firewall")

type ruleKey struct {
	peer types.PeerID
	dir  types.Direction
}

// Firewall 防火墙策略
type Firewall struct {
	defaultIn  types.FirewallPermission
	defaultOut types.FirewallPermission
	rules      map[ruleKey]types.FirewallPermission
}

// New 创建防火墙
func New(defaultIn, defaultOut types.FirewallPermission) *Firewall {
	return &Firewall{
		defaultIn:  defaultIn,
		defaultOut: defaultOut,
		rules:      make(map[ruleKey]types.FirewallPermission),
	}
}

// IsPermitted 请求种类 v 是否允许在 dir 方向与 peer 交换
func (f *Firewall) IsPermitted(v uint32, peer types.PeerID, dir types.Direction) bool {
	return f.Effective(peer, dir).Permits(v)
}

// Permits 按请求的权限种类判定
func Permits[P types.PermissionKind](f *Firewall, kind P, peer types.PeerID, dir types.Direction) bool {
	return f.IsPermitted(kind.Permission(), peer, dir)
}

// Effective 返回生效规则：显式规则，否则默认规则
func (f *Firewall) Effective(peer types.PeerID, dir types.Direction) types.FirewallPermission {
	if rule, ok := f.GetRule(peer, dir); ok {
		return rule
	}
	return f.GetDefault(dir)
}

// GetRule 返回显式规则，未设置时 ok 为 false
func (f *Firewall) GetRule(peer types.PeerID, dir types.Direction) (types.FirewallPermission, bool) {
	rule, ok := f.rules[ruleKey{peer, dir}]
	return rule, ok
}

// SetRule 设置显式规则
func (f *Firewall) SetRule(peer types.PeerID, dir types.Direction, rule types.FirewallPermission) {
	f.rules[ruleKey{peer, dir}] = rule
	log.Debug("设置节点规则", "peer", peer.ShortString(), "dir", dir, "rule", rule)
}

// RemoveRule 删除显式规则
func (f *Firewall) RemoveRule(peer types.PeerID, dir types.Direction) {
	delete(f.rules, ruleKey{peer, dir})
}

// GetDefault 返回方向的默认规则
func (f *Firewall) GetDefault(dir types.Direction) types.FirewallPermission {
	if dir == types.DirOutbound {
		return f.defaultOut
	}
	return f.defaultIn
}

// SetDefault 替换方向的默认规则，不影响显式规则
func (f *Firewall) SetDefault(dir types.Direction, rule types.FirewallPermission) {
	if dir == types.DirOutbound {
		f.defaultOut = rule
	} else {
		f.defaultIn = rule
	}
	log.Debug("设置默认规则", "dir", dir, "rule", rule)
}

// RuleCount 显式规则数量
func (f *Firewall) RuleCount() int {
	return len(f.rules)
}
