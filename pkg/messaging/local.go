package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type localBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Message
}

// NewLocalBus는 프로세스 내부에서만 동작하는 메시지 버스를 생성합니다.
// Redis 가 설정되지 않은 환경과 테스트에서 사용합니다.
func NewLocalBus() Bus {
	return &localBus{subscribers: make(map[string][]chan Message)}
}

// Publish 메시지 발행. 구독자가 없거나 느리면 메시지는 버려집니다.
func (b *localBus) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	msg := Message{Channel: channel, Payload: payload, Time: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// 버퍼가 가득 찬 구독자는 건너뜁니다.
		}
	}
	return nil
}

// Subscribe 채널 구독. ctx 가 끝나면 반환된 채널이 닫힙니다.
func (b *localBus) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	ch := make(chan Message, 16)

	b.mu.Lock()
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[channel]
		for i, c := range subs {
			if c == ch {
				b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}
