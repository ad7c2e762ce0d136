package transport

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/core/identity"
)

// Params 传输模块依赖
type Params struct {
	fx.In

	Identity   *identity.Identity
	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回传输 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideManager),
	)
}

// ProvideManager 创建传输管理器，停止时关闭所有传输
func ProvideManager(lc fx.Lifecycle, p Params) (*Manager, error) {
	m, err := NewManager(ConfigFromUnified(p.UnifiedCfg), p.Identity)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
	return m, nil
}
