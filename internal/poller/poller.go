package poller

import (
	"context"
	"encoding/json"

	"github.com/namamy/cart-service/internal/cart"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// orderConfirmedEvent mirrors the payload the order service publishes
// when an order is placed successfully.
type orderConfirmedEvent struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

// Poller consumes order confirmations and clears the matching cart,
// completing the cart lifecycle without the storefront having to call
// back in.
type Poller struct {
	manager *cart.Manager
	reader  *kafka.Reader
	logger  *zap.Logger
}

func NewPoller(manager *cart.Manager, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "cart-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{manager: manager, reader: reader, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("error reading message", zap.Error(err))
			}
			continue
		}

		p.handleMessage(ctx, m.Value)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (p *Poller) handleMessage(ctx context.Context, value []byte) {
	var event orderConfirmedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		p.logger.Warn("error parsing order event", zap.Error(err))
		return
	}
	if event.SessionID == "" {
		p.logger.Warn("order event missing session_id")
		return
	}

	if _, err := p.manager.Get(event.SessionID).Clear(ctx); err != nil {
		p.logger.Warn("failed to clear cart after order",
			zap.String("session_id", event.SessionID), zap.Error(err))
		return
	}

	p.logger.Info("cleared cart after order confirmation",
		zap.String("session_id", event.SessionID), zap.String("order_id", event.OrderID))
}
