package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 入札ページの再読み込み通知用（Pub/Sub）
type RedisPublisher struct {
	client redis.Cmdable
}

func NewRedisPublisher(client redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func Channel(productID string) string {
	return fmt.Sprintf("product:%s:bidding", productID)
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(e.ProductID), string(data)).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
