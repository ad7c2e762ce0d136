package firewall

import (
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// RuleDirection 规则作用方向
type RuleDirection int

const (
	// RuleInbound 仅入站
	RuleInbound RuleDirection = iota
	// RuleOutbound 仅出站
	RuleOutbound
	// RuleBoth 入站与出站
	RuleBoth
)

func (d RuleDirection) directions() []types.Direction {
	switch d {
	case RuleInbound:
		return []types.Direction{types.DirInbound}
	case RuleOutbound:
		return []types.Direction{types.DirOutbound}
	default:
		return types.Directions()
	}
}

// String 返回方向的字符串表示
func (d RuleDirection) String() string {
	switch d {
	case RuleInbound:
		return "inbound"
	case RuleOutbound:
		return "outbound"
	default:
		return "both"
	}
}

// Rule 防火墙配置命令
//
// Apply 总是成功；防火墙配置没有错误路径。
type Rule interface {
	Apply(f *Firewall)
}

// SetRules 为节点设置固定权限，可选同时替换默认规则
type SetRules struct {
	Direction  RuleDirection
	Peers      []types.PeerID
	SetDefault bool
	Permission types.FirewallPermission
}

// Apply 实现 Rule
func (r SetRules) Apply(f *Firewall) {
	for _, dir := range r.Direction.directions() {
		for _, peer := range r.Peers {
			f.SetRule(peer, dir, r.Permission)
		}
		if r.SetDefault {
			f.SetDefault(dir, r.Permission)
		}
	}
}

// AddPermissions 在生效规则基础上授予请求种类
//
// 每个节点以其生效规则为种子折叠，结果写为显式规则。
// ChangeDefault 时以旧默认规则为种子折叠并只替换默认规则。
type AddPermissions[P types.PermissionKind] struct {
	Direction     RuleDirection
	Peers         []types.PeerID
	ChangeDefault bool
	Permissions   []P
}

// Apply 实现 Rule
func (r AddPermissions[P]) Apply(f *Firewall) {
	add := func(acc types.FirewallPermission, kind P) types.FirewallPermission {
		return acc.AddPermission(kind.Permission())
	}
	applyFold(f, r.Direction, r.Peers, r.ChangeDefault, r.Permissions, add)
}

// RemovePermissions 在生效规则基础上撤销请求种类
type RemovePermissions[P types.PermissionKind] struct {
	Direction     RuleDirection
	Peers         []types.PeerID
	ChangeDefault bool
	Permissions   []P
}

// Apply 实现 Rule
func (r RemovePermissions[P]) Apply(f *Firewall) {
	remove := func(acc types.FirewallPermission, kind P) types.FirewallPermission {
		return acc.RemovePermission(kind.Permission())
	}
	applyFold(f, r.Direction, r.Peers, r.ChangeDefault, r.Permissions, remove)
}

// RemoveRule 删除节点显式规则，之后回落到默认规则
type RemoveRule struct {
	Direction RuleDirection
	Peers     []types.PeerID
}

// Apply 实现 Rule
func (r RemoveRule) Apply(f *Firewall) {
	for _, dir := range r.Direction.directions() {
		for _, peer := range r.Peers {
			f.RemoveRule(peer, dir)
		}
	}
}

func applyFold[P types.PermissionKind](
	f *Firewall,
	direction RuleDirection,
	peers []types.PeerID,
	changeDefault bool,
	kinds []P,
	step func(types.FirewallPermission, P) types.FirewallPermission,
) {
	fold := func(seed types.FirewallPermission) types.FirewallPermission {
		for _, kind := range kinds {
			seed = step(seed, kind)
		}
		return seed
	}

	for _, dir := range direction.directions() {
		for _, peer := range peers {
			f.SetRule(peer, dir, fold(f.Effective(peer, dir)))
		}
		if changeDefault {
			f.SetDefault(dir, fold(f.GetDefault(dir)))
		}
	}
}
