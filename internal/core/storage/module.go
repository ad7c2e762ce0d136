package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// Params 存储模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 存储模块输出
//
// 未启用持久化时 Engine 为 nil。
type Result struct {
	fx.Out

	Engine pkgif.Engine
}

// Module 返回存储 Fx 模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideStorage),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStorage 按统一配置打开数据库
func ProvideStorage(p Params) (Result, error) {
	if p.UnifiedCfg == nil || !p.UnifiedCfg.Storage.Enable {
		return Result{}, nil
	}

	db, err := Open(ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return Result{}, err
	}
	return Result{Engine: db}, nil
}

func registerLifecycle(lc fx.Lifecycle, eng pkgif.Engine) {
	if eng == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			log.Info("正在关闭存储引擎")
			return eng.Close()
		},
	})
}
