package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

// PubSubReceiptPublisher publishes completed order receipts to a Pub/Sub topic.
type PubSubReceiptPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
	retry   gax.Retryer
}

// NewPubSubReceiptPublisher constructs a Pub/Sub backed order receipt publisher.
func NewPubSubReceiptPublisher(topic *pubsub.Topic) (*PubSubReceiptPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub receipt publisher: topic is required")
	}
	return &PubSubReceiptPublisher{
		topic:   topic,
		marshal: json.Marshal,
		retry: gax.OnCodes([]codes.Code{
			codes.Unavailable,
			codes.DeadlineExceeded,
			codes.ResourceExhausted,
		}, gax.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2,
		}),
	}, nil
}

// PublishReceipt enqueues an order receipt message on the configured topic.
func (p *PubSubReceiptPublisher) PublishReceipt(ctx context.Context, message services.OrderReceiptMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub receipt publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal order receipt: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "orderId", message.OrderID)
	setAttr(attrs, "orderNumber", message.OrderNumber)
	setAttr(attrs, "sessionId", message.SessionID)
	setAttr(attrs, "paymentMethod", message.PaymentMethod)
	attrs["total"] = strconv.FormatInt(message.Total, 10)

	var id string
	err = gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		result := p.topic.Publish(ctx, &pubsub.Message{
			Data:       data,
			Attributes: attrs,
		})
		var publishErr error
		id, publishErr = result.Get(ctx)
		return publishErr
	}, gax.WithRetry(func() gax.Retryer { return p.retry }))
	if err != nil {
		return "", fmt.Errorf("publish order receipt: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
