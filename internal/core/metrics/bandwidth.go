package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Stats 带宽统计快照
type Stats struct {
	TotalIn  int64   // 总入站字节
	TotalOut int64   // 总出站字节
	RateIn   float64 // 入站速率（字节/秒）
	RateOut  float64 // 出站速率（字节/秒）
}

type peerMeter struct {
	in, out         atomic.Int64
	inRate, outRate *RateMeter
}

// BandwidthCounter 按节点统计载荷字节
type BandwidthCounter struct {
	clock clock.Clock

	totalIn, totalOut atomic.Int64
	inRate, outRate   *RateMeter

	mu    sync.RWMutex
	peers map[types.PeerID]*peerMeter
}

// NewBandwidthCounter 创建带宽计数器
func NewBandwidthCounter(clk clock.Clock) *BandwidthCounter {
	if clk == nil {
		clk = clock.New()
	}
	return &BandwidthCounter{
		clock:   clk,
		inRate:  NewRateMeter(clk),
		outRate: NewRateMeter(clk),
		peers:   make(map[types.PeerID]*peerMeter),
	}
}

// LogSentMessage 记录发往 p 的字节
func (b *BandwidthCounter) LogSentMessage(size int64, p types.PeerID) {
	b.totalOut.Add(size)
	b.outRate.Add(size)
	m := b.meter(p)
	m.out.Add(size)
	m.outRate.Add(size)
}

// LogRecvMessage 记录来自 p 的字节
func (b *BandwidthCounter) LogRecvMessage(size int64, p types.PeerID) {
	b.totalIn.Add(size)
	b.inRate.Add(size)
	m := b.meter(p)
	m.in.Add(size)
	m.inRate.Add(size)
}

// GetBandwidthTotals 返回总带宽统计
func (b *BandwidthCounter) GetBandwidthTotals() Stats {
	return Stats{
		TotalIn:  b.totalIn.Load(),
		TotalOut: b.totalOut.Load(),
		RateIn:   b.inRate.Rate(),
		RateOut:  b.outRate.Rate(),
	}
}

// GetBandwidthForPeer 返回节点带宽统计
func (b *BandwidthCounter) GetBandwidthForPeer(p types.PeerID) Stats {
	b.mu.RLock()
	m := b.peers[p]
	b.mu.RUnlock()

	if m == nil {
		return Stats{}
	}
	return Stats{
		TotalIn:  m.in.Load(),
		TotalOut: m.out.Load(),
		RateIn:   m.inRate.Rate(),
		RateOut:  m.outRate.Rate(),
	}
}

// TrimIdle 清理 since 之后没有流量的节点
func (b *BandwidthCounter) TrimIdle(since time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p, m := range b.peers {
		if m.inRate.LastUpdate().Before(since) && m.outRate.LastUpdate().Before(since) {
			delete(b.peers, p)
		}
	}
}

func (b *BandwidthCounter) meter(p types.PeerID) *peerMeter {
	b.mu.RLock()
	m := b.peers[p]
	b.mu.RUnlock()
	if m != nil {
		return m
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if m = b.peers[p]; m == nil {
		m = &peerMeter{inRate: NewRateMeter(b.clock), outRate: NewRateMeter(b.clock)}
		b.peers[p] = m
	}
	return m
}
