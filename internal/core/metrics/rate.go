package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const rateWindow = 60

// RateMeter 基于 60 个 1 秒桶的滑动窗口速率
type RateMeter struct {
	clock clock.Clock

	mu       sync.Mutex
	buckets  [rateWindow]int64
	idx      int
	lastTick time.Time
}

// NewRateMeter 创建速率计算器
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateMeter{clock: clk, lastTick: clk.Now()}
}

// Add 累加到当前桶
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked()
	r.buckets[r.idx] += n
}

// Rate 返回最近 60 秒的平均速率（每秒）
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked()
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return float64(total) / rateWindow
}

// LastUpdate 返回最后一次推进桶的时间
func (r *RateMeter) LastUpdate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTick
}

// advanceLocked 按流逝的整秒数清空并推进桶
func (r *RateMeter) advanceLocked() {
	now := r.clock.Now()
	seconds := int(now.Sub(r.lastTick) / time.Second)
	if seconds <= 0 {
		return
	}

	if seconds >= rateWindow {
		r.buckets = [rateWindow]int64{}
		r.idx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.idx = (r.idx + 1) % rateWindow
			r.buckets[r.idx] = 0
		}
	}
	r.lastTick = r.lastTick.Add(time.Duration(seconds) * time.Second)
}
