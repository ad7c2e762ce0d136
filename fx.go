package p2pcomm

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/connmgr"
	"github.com/dep2p/go-p2pcomm/internal/core/fabric/netfabric"
	"github.com/dep2p/go-p2pcomm/internal/core/identity"
	"github.com/dep2p/go-p2pcomm/internal/core/metrics"
	"github.com/dep2p/go-p2pcomm/internal/core/storage"
	"github.com/dep2p/go-p2pcomm/internal/core/swarm"
	"github.com/dep2p/go-p2pcomm/internal/core/transport"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var fxLogger = logger.Logger("p2pcomm/fx")

// assembled buildFxApp 填充的组件
type assembled[Req types.Request[P], Res any, P types.PermissionKind] struct {
	swarm *swarm.Swarm[Req, Res, P]
}

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置、存储、指标
//  2. 网络层：Identity → Transport → Gater → netfabric，或 WithFabric 提供的外部网络层
//  3. 引擎
//
// 停止时按相反顺序：引擎先退出，随后关闭网络层与存储。
func buildFxApp[Req types.Request[P], Res any, P types.PermissionKind](
	o *options,
	cfg *config.Config,
	client pkgif.ClientRef[Req, Res],
	out *assembled[Req, Res, P],
) (*fx.App, error) {
	modules := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: fxLogger}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Supply(cfg),
		metrics.Module(),
	}

	// 存储
	if o.store != nil {
		store := o.store
		modules = append(modules, fx.Provide(func() pkgif.Engine { return store }))
	} else {
		modules = append(modules, storage.Module())
	}

	// 网络层
	if o.fabric != nil {
		fab, ok := o.fabric.(pkgif.Fabric[Req, Res])
		if !ok {
			return nil, ErrFabricType
		}
		modules = append(modules, fx.Provide(func() pkgif.Fabric[Req, Res] { return fab }))
	} else {
		if o.privateKey != nil {
			priv := o.privateKey
			modules = append(modules, fx.Provide(func() (*identity.Identity, error) {
				return identity.FromPrivateKey(priv)
			}))
		} else {
			modules = append(modules, identity.Module())
		}
		if o.codec != nil {
			codec, ok := o.codec.(pkgif.Codec[Req, Res])
			if !ok {
				return nil, ErrFabricType
			}
			modules = append(modules, fx.Provide(func() pkgif.Codec[Req, Res] { return codec }))
		}
		modules = append(modules,
			transport.Module(),
			connmgr.Module(),
			netfabric.Module[Req, Res](),
		)
	}

	// 可选注入
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if client != nil {
		modules = append(modules, fx.Provide(func() pkgif.ClientRef[Req, Res] { return client }))
	}

	modules = append(modules,
		swarm.Module[Req, Res, P](),
		fx.Populate(&out.swarm),
	)
	modules = append(modules, o.fxOptions...)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
