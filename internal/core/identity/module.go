package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
)

var log = logger.Logger("core/identity")

// Params 身份模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回身份 Fx 模块
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideIdentity),
	)
}

// ProvideIdentity 按配置加载或生成身份
func ProvideIdentity(p Params) (*Identity, error) {
	if p.UnifiedCfg == nil {
		return Generate()
	}
	cfg := p.UnifiedCfg.Identity
	return LoadOrGenerate(cfg.KeyFile, cfg.AutoGenerate)
}
