package netfabric

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/metrics"
	"github.com/dep2p/go-p2pcomm/internal/core/relay"
	"github.com/dep2p/go-p2pcomm/internal/core/transport"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// Params 网络层依赖
type Params[Req, Res any] struct {
	fx.In

	Transports *transport.Manager
	Codec      pkgif.Codec[Req, Res] `optional:"true"`
	Gater      *connmgr.Gater        `optional:"true"`
	Reporter   metrics.Reporter      `optional:"true"`
	UnifiedCfg *config.Config        `optional:"true"`
}

// Result 网络层输出
type Result[Req, Res any] struct {
	fx.Out

	Fabric pkgif.Fabric[Req, Res]
	Node   *Node[Req, Res]
}

// Module 返回网络层 Fx 模块
//
// 同时提供 interfaces.Fabric 与具体的 *Node，停止时关闭网络层。
func Module[Req, Res any]() fx.Option {
	return fx.Module("netfabric",
		fx.Provide(ProvideFabric[Req, Res]),
	)
}

// ProvideFabric 创建网络层
func ProvideFabric[Req, Res any](lc fx.Lifecycle, p Params[Req, Res]) (Result[Req, Res], error) {
	n, err := New(p.Transports, p.Codec,
		WithConfig(ConfigFromUnified(p.UnifiedCfg)),
		WithGater(p.Gater),
		WithReporter(p.Reporter),
		WithLimiter(relay.NewLimiter(relay.LimiterConfigFromUnified(p.UnifiedCfg))),
	)
	if err != nil {
		return Result[Req, Res]{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return n.Close()
		},
	})
	return Result[Req, Res]{Fabric: n, Node: n}, nil
}
