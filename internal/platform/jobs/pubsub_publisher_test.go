package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

func TestPubSubReceiptPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-receipts")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubReceiptPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubReceiptPublisher: %v", err)
	}

	completedAt := time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)
	msg := services.OrderReceiptMessage{
		OrderID:       "ord_test",
		OrderNumber:   "SO-000042",
		SessionID:     "pos-7",
		Subtotal:      2500000,
		Discount:      250000,
		Total:         2250000,
		PaymentMethod: "cash",
		CompletedAt:   completedAt,
	}

	if _, err := publisher.PublishReceipt(ctx, msg); err != nil {
		t.Fatalf("PublishReceipt: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.OrderReceiptMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != msg.OrderID || payload.OrderNumber != msg.OrderNumber {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["orderNumber"]; attr != "SO-000042" {
		t.Fatalf("expected order number attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["total"]; attr != "2250000" {
		t.Fatalf("expected total attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["voucherCode"]; ok {
		t.Fatalf("voucher code attribute should not be present")
	}
}

func TestNewPubSubReceiptPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubReceiptPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
