package fabric

import (
	"sync"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Queue 无界事件队列
//
// Push 不阻塞；后台 goroutine 按 FIFO 顺序把事件送入 Out()。
// Close 后丢弃未送出的事件并关闭 Out()。
type Queue struct {
	mu     sync.Mutex
	items  []types.Event
	closed bool

	signal    chan struct{}
	out       chan types.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue 创建事件队列
func NewQueue() *Queue {
	q := &Queue{
		signal: make(chan struct{}, 1),
		out:    make(chan types.Event),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Push 追加事件，队列已关闭时返回 false
func (q *Queue) Push(evt types.Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, evt)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Out 返回事件通道
func (q *Queue) Out() <-chan types.Event {
	return q.out
}

// Len 返回尚未送出的事件数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close 关闭队列，可多次调用
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.items = nil
		q.mu.Unlock()
		close(q.done)
	})
}

func (q *Queue) run() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.signal:
				continue
			case <-q.done:
				return
			}
		}
		evt := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- evt:
		case <-q.done:
			return
		}
	}
}
