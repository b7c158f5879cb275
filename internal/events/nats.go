package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	StreamName    = "BIDDING_EVENTS"
	subjectPrefix = "bidding.events."
)

// jetstream.JetStream のうち Publish だけ使う
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// ストリームがなければ作る（あれば設定を合わせる）
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "bidding outcome events",
		Subjects:    []string{subjectPrefix + "*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("create/update stream %s: %w", StreamName, err)
	}
	return nil
}

// JetStreamへ流す。サーバーのackを待つ
type NATSPublisher struct {
	js     streamPublisher
	logger *zap.Logger
}

func NewNATSPublisher(js streamPublisher, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{js: js, logger: logger}
}

func Subject(productID string) string {
	return subjectPrefix + productID
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 同じイベントの再送はJetStream側で重複排除
	ack, err := p.js.Publish(ctx, Subject(e.ProductID), data, jetstream.WithMsgID(e.ID))
	if err != nil {
		return fmt.Errorf("publish to jetstream: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("subject", Subject(e.ProductID)),
		zap.String("type", string(e.Type)),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}
