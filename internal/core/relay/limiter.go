package relay

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// LimiterConfig 转发限流配置
type LimiterConfig struct {
	// Rate 每个来源节点每秒允许的转发数（0 = 不限制）
	Rate float64

	// Burst 突发上限
	Burst int

	// MaxCircuits 总并发转发数（0 = 不限制）
	MaxCircuits int

	// MaxCircuitsPerPeer 单个来源节点并发转发数（0 = 不限制）
	MaxCircuitsPerPeer int
}

// DefaultLimiterConfig 返回默认限流配置
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Rate:               50,
		Burst:              100,
		MaxCircuits:        1024,
		MaxCircuitsPerPeer: 32,
	}
}

// Limiter 中继转发限流器
type Limiter struct {
	config LimiterConfig

	mu       sync.Mutex
	rates    map[types.PeerID]*rate.Limiter
	circuits map[types.PeerID]int
	total    int
}

// NewLimiter 创建转发限流器
func NewLimiter(config LimiterConfig) *Limiter {
	return &Limiter{
		config:   config,
		rates:    make(map[types.PeerID]*rate.Limiter),
		circuits: make(map[types.PeerID]int),
	}
}

// AllowCircuit 为来源节点申请一次转发，成功后必须调用 ReleaseCircuit
func (l *Limiter) AllowCircuit(src types.PeerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.config.Rate > 0 && !l.rateFor(src).Allow() {
		return ErrRateLimited
	}
	if l.config.MaxCircuits > 0 && l.total >= l.config.MaxCircuits {
		return ErrResourceLimitExceeded
	}
	if l.config.MaxCircuitsPerPeer > 0 && l.circuits[src] >= l.config.MaxCircuitsPerPeer {
		return ErrTooManyCircuits
	}

	l.circuits[src]++
	l.total++
	return nil
}

// ReleaseCircuit 释放一次转发
func (l *Limiter) ReleaseCircuit(src types.PeerID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.circuits[src] == 0 {
		return
	}
	l.circuits[src]--
	l.total--
	if l.circuits[src] == 0 {
		delete(l.circuits, src)
	}
}

// Forget 丢弃来源节点的速率状态（节点断开后调用）
func (l *Limiter) Forget(src types.PeerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rates, src)
}

func (l *Limiter) rateFor(src types.PeerID) *rate.Limiter {
	lim, ok := l.rates[src]
	if !ok {
		burst := l.config.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(l.config.Rate), burst)
		l.rates[src] = lim
	}
	return lim
}

// LimiterStats 限流器统计
type LimiterStats struct {
	TotalCircuits int
	UniquePeers   int
}

// Stats 返回限流器统计
func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStats{TotalCircuits: l.total, UniquePeers: len(l.circuits)}
}

// LimiterConfigFromUnified 从统一配置创建限流配置
func LimiterConfigFromUnified(cfg *config.Config) LimiterConfig {
	if cfg == nil {
		return DefaultLimiterConfig()
	}
	return LimiterConfig{
		Rate:               cfg.Relay.ServiceRate,
		Burst:              cfg.Relay.ServiceBurst,
		MaxCircuits:        cfg.Relay.MaxCircuits,
		MaxCircuitsPerPeer: cfg.Relay.MaxCircuitsPerPeer,
	}
}
