package connmgr

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// Module 返回 Fx 模块
//
// 提供 *Gater；存在存储引擎时加载并持久化封禁列表，
// 存在统一配置时应用 Firewall.BlockedIPs。
func Module() fx.Option {
	return fx.Module("connmgr",
		fx.Provide(ProvideGater),
	)
}

type gaterInput struct {
	fx.In

	Store  pkgif.Engine   `optional:"true"`
	Config *config.Config `optional:"true"`
}

// ProvideGater 提供连接门控器
func ProvideGater(in gaterInput) (*Gater, error) {
	g := NewGater()
	if err := g.AttachStore(in.Store); err != nil {
		return nil, err
	}
	if in.Config != nil {
		for _, ip := range in.Config.Firewall.BlockedIPs {
			g.BlockIP(ip)
		}
		if n := len(in.Config.Firewall.BlockedIPs); n > 0 {
			log.Info("已封禁 IP", "count", n)
		}
	}
	return g, nil
}
