package mq

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tableCarrier lets the otel propagator write into amqp headers.
type tableCarrier amqp.Table

func (c tableCarrier) Get(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (c tableCarrier) Set(key, value string) { c[key] = value }

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Dial opens a connection, upgrading to amqps when TLS is requested.
func Dial(cfg *config.Config) (*amqp.Connection, error) {
	url := cfg.RabbitMQ.URL
	if cfg.RabbitMQ.EnableTLS || strings.HasPrefix(url, "amqps://") {
		if strings.HasPrefix(url, "amqp://") {
			url = "amqps://" + strings.TrimPrefix(url, "amqp://")
		}
		return amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	}
	return amqp.Dial(url)
}

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher emits live session lifecycle events to a topic exchange.
type Publisher struct {
	ch       channel
	exchange string
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewPublisher(conn *amqp.Connection, log *zap.Logger, cfg *config.Config) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return newPublisher(ch, log, cfg)
}

func newPublisher(ch channel, log *zap.Logger, cfg *config.Config) (*Publisher, error) {
	exchange := cfg.RabbitMQ.ExchangeName.LiveSession
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		log:      log,
		tracer:   otel.Tracer(cfg.App.Name),
	}, nil
}

func (p *Publisher) Close() error { return p.ch.Close() }

func (p *Publisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	b, err := sonic.Marshal(body)
	if err != nil {
		return err
	}

	ctx, span := p.tracer.Start(ctx, "rabbitmq.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", exchangeName),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.Int("messaging.message.body.size", len(b)),
		))
	defer span.End()

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier(headers))

	err = p.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
		Headers:      headers,
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// OnLifecycle publishes ev with routing key "live_session.<op>". Failures are
// logged and never reach the caller.
func (p *Publisher) OnLifecycle(ctx context.Context, ev model.LiveSessionEvent) {
	if err := p.PublishJSON(ctx, p.exchange, ev.Event, ev); err != nil {
		p.log.Warn("publish live session event failed",
			zap.String("event", ev.Event),
			zap.String("live_session_id", ev.LiveSessionID.String()),
			zap.Error(err))
	}
}
