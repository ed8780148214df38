// Package messaging은 Redis pub/sub 위에 JSON 메시지 발행과 구독을 제공합니다.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher 메시지 발행 인터페이스
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Bus 발행과 구독을 모두 지원하는 메시지 버스
type Bus interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan Message, error)
}

// Message 수신한 메시지
type Message struct {
	Channel string
	Payload []byte
	Time    time.Time
}

// Decode는 JSON 페이로드를 out 으로 디코딩합니다.
func (m Message) Decode(out interface{}) error {
	if err := json.Unmarshal(m.Payload, out); err != nil {
		return fmt.Errorf("메시지 역직렬화 실패(%s): %w", m.Channel, err)
	}
	return nil
}

type redisBus struct {
	client redis.UniversalClient
}

// NewRedisBus는 이미 연결된 클라이언트로 메시지 버스를 생성합니다.
// 클라이언트 종료는 호출자가 담당합니다.
func NewRedisBus(client redis.UniversalClient) Bus {
	return &redisBus{client: client}
}

// Publish 메시지 발행
func (r *redisBus) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("메시지 발행 실패(%s): %w", channel, err)
	}
	return nil
}

// Subscribe 채널 구독. ctx 가 끝나면 반환된 채널이 닫힙니다.
func (r *redisBus) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	pubsub := r.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("채널 구독 실패: %w", err)
	}

	messageCh := make(chan Message)
	go func() {
		defer close(messageCh)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case messageCh <- Message{Channel: msg.Channel, Payload: []byte(msg.Payload), Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return messageCh, nil
}
