package metrics

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

var log = logger.Logger("core/metrics")

// Config 指标配置
type Config struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool

	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "p2pcomm",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enable,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params 指标模块依赖
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// Result 指标模块输出
type Result struct {
	fx.Out

	Metrics  pkgif.Metrics
	Reporter Reporter
}

// Module 返回指标 Fx 模块
//
// 未启用时 Metrics 为 Nop，Reporter 仍统计带宽。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建指标收集器并注册到 Registerer
func ProvideMetrics(lc fx.Lifecycle, p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	bw := NewBandwidthCounter(p.Clock)

	if !cfg.Enabled {
		return Result{Metrics: Nop(), Reporter: bw}, nil
	}

	c := NewCollector(cfg.Namespace, bw)
	if p.Registerer != nil {
		if err := c.Register(p.Registerer); err != nil {
			return Result{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				c.Unregister(p.Registerer)
				return nil
			},
		})
		log.Debug("已注册 Prometheus 指标", "namespace", cfg.Namespace)
	}
	return Result{Metrics: c, Reporter: c}, nil
}
