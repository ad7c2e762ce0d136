package p2pcomm

import (
	"github.com/dep2p/go-p2pcomm/internal/core/firewall"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// FirewallRule 防火墙配置命令，由 ConfigureFirewall 应用
type FirewallRule = firewall.Rule

// RuleDirection 规则作用方向
type RuleDirection = firewall.RuleDirection

// 规则方向
const (
	RuleInbound  = firewall.RuleInbound
	RuleOutbound = firewall.RuleOutbound
	RuleBoth     = firewall.RuleBoth
)

// SetRules 为 peers 设置固定权限
func SetRules(dir RuleDirection, perm FirewallPermission, peers ...PeerID) FirewallRule {
	return firewall.SetRules{Direction: dir, Peers: peers, Permission: perm}
}

// SetDefaultRule 替换默认规则，同时为 peers 设置相同的显式规则
func SetDefaultRule(dir RuleDirection, perm FirewallPermission, peers ...PeerID) FirewallRule {
	return firewall.SetRules{Direction: dir, Peers: peers, SetDefault: true, Permission: perm}
}

// AddPermissions 在 peers 的生效规则上授予请求种类
//
// 每个节点以其当前生效规则为种子，结果写为显式规则；
// changeDefault 为 true 时默认规则也以同样方式修改。
func AddPermissions[P types.PermissionKind](dir RuleDirection, changeDefault bool, peers []PeerID, kinds ...P) FirewallRule {
	return firewall.AddPermissions[P]{Direction: dir, Peers: peers, ChangeDefault: changeDefault, Permissions: kinds}
}

// RemovePermissions 在 peers 的生效规则上撤销请求种类
func RemovePermissions[P types.PermissionKind](dir RuleDirection, changeDefault bool, peers []PeerID, kinds ...P) FirewallRule {
	return firewall.RemovePermissions[P]{Direction: dir, Peers: peers, ChangeDefault: changeDefault, Permissions: kinds}
}

// RemoveRule 删除 peers 的显式规则，使其回落到默认规则
func RemoveRule(dir RuleDirection, peers ...PeerID) FirewallRule {
	return firewall.RemoveRule{Direction: dir, Peers: peers}
}
