package swarm

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Params 引擎依赖参数
type Params[Req, Res any] struct {
	fx.In

	Fabric     pkgif.Fabric[Req, Res]
	Client     pkgif.ClientRef[Req, Res] `optional:"true"`
	UnifiedCfg *config.Config            `optional:"true"`
	Clock      clock.Clock               `optional:"true"`
	Metrics    pkgif.Metrics             `optional:"true"`
	Store      pkgif.Engine              `optional:"true"`
}

// Module 返回引擎 Fx 模块
//
// 启动时在后台运行事件循环，停止时发送 Shutdown 并等待退出。
func Module[Req types.Request[P], Res any, P types.PermissionKind]() fx.Option {
	return fx.Module("swarm",
		fx.Provide(NewFromParams[Req, Res, P]),
		fx.Invoke(registerLifecycle[Req, Res, P]),
	)
}

// NewFromParams 从参数创建引擎
func NewFromParams[Req types.Request[P], Res any, P types.PermissionKind](p Params[Req, Res]) (*Swarm[Req, Res, P], error) {
	return New[Req, Res, P](p.Fabric, p.Client,
		WithConfig(ConfigFromUnified(p.UnifiedCfg)),
		WithClock(p.Clock),
		WithMetrics(p.Metrics),
		WithStore(p.Store),
	)
}

func registerLifecycle[Req types.Request[P], Res any, P types.PermissionKind](lc fx.Lifecycle, s *Swarm[Req, Res, P]) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go s.Run(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer cancel()
			return s.Stop(ctx)
		},
	})
}
