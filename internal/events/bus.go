package events

import (
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 256

// subscription は購読者1人分のチャネルと種別フィルタ
type subscription struct {
	ch    chan Event
	types map[EventType]bool // 空なら全種別
}

func (s *subscription) wants(t EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// Bus は推定イベントを購読者に配る
// Publish はブロックしない。バッファが埋まった購読者への配信は捨てて数える
type Bus struct {
	mu         sync.RWMutex
	subs       map[<-chan Event]*subscription
	bufferSize int
	dropped    atomic.Uint64
}

// NewBus は新しいバスを作成する
func NewBus() *Bus {
	return NewBusWithBuffer(defaultBufferSize)
}

// NewBusWithBuffer は購読チャネルのバッファ長を指定してバスを作成する
func NewBusWithBuffer(size int) *Bus {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Bus{
		subs:       make(map[<-chan Event]*subscription),
		bufferSize: size,
	}
}

// Subscribe は指定した種別のイベントを受け取るチャネルを返す
// 種別を省略すると全イベントを受け取る
func (b *Bus) Subscribe(types ...EventType) <-chan Event {
	sub := &subscription{ch: make(chan Event, b.bufferSize)}
	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.ch] = sub
	return sub.ch
}

// Unsubscribe は購読を解除してチャネルを閉じる
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(sub.ch)
	}
}

// Publish は購読者にイベントを配る
// nil の Bus への Publish は何もしない
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped はバッファ溢れで捨てた配信数を返す
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// SubscriberCount は購読者数を返す
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close は全購読チャネルを閉じる
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, ch)
	}
}
