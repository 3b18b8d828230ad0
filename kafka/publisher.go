package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishMovementRecorded publishes a stock movement event with tracing
func (p *Publisher) PublishMovementRecorded(ctx context.Context, movement domain.InventoryMovement) error {
	event := StockMovementEvent{
		EventID:      fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		EventType:    EventTypeStockMovement,
		MovementID:   movement.ID,
		MovementType: string(movement.Type),
		ProductID:    movement.ProductID,
		Quantity:     movement.Quantity,
		SlotID:       movement.SlotID,
		FromSlotID:   movement.FromSlotID,
		ToSlotID:     movement.ToSlotID,
		OrderID:      movement.OrderID,
		TotalCbm:     movement.TotalCbm,
		Actor:        movement.Actor,
		Timestamp:    time.Now(),
	}

	attrs := []attribute.KeyValue{
		attribute.String("movement.type", event.MovementType),
		attribute.Int64("product.id", int64(event.ProductID)),
		attribute.Int("movement.quantity", event.Quantity),
	}
	key := fmt.Sprintf("product_%d", event.ProductID)

	partition, offset, err := p.publish(ctx, TopicStockMovements, event.EventType, event.EventID, key, event, attrs)
	if err != nil {
		return err
	}

	logger.Logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("topic", TopicStockMovements).
		Int32("partition", partition).
		Int64("offset", offset).
		Uint("movement_id", event.MovementID).
		Str("movement_type", event.MovementType).
		Msg("Stock movement event published")

	return nil
}

// PublishOrderStockFinalized publishes an order stock finalized event
func (p *Publisher) PublishOrderStockFinalized(ctx context.Context, orderID uint, actor string, movements int) error {
	event := OrderStockFinalizedEvent{
		EventID:   fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		EventType: EventTypeOrderStockFinalized,
		OrderID:   orderID,
		Actor:     actor,
		Movements: movements,
		Timestamp: time.Now(),
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("order.id", int64(orderID)),
		attribute.Int("order.movements", movements),
	}
	key := fmt.Sprintf("order_%d", orderID)

	partition, offset, err := p.publish(ctx, TopicOrderStockFinalized, event.EventType, event.EventID, key, event, attrs)
	if err != nil {
		return err
	}

	logger.Logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("topic", TopicOrderStockFinalized).
		Int32("partition", partition).
		Int64("offset", offset).
		Uint("order_id", orderID).
		Msg("Order stock finalized event published")

	return nil
}

// publish marshals the event, injects trace context into Kafka headers
// and sends the message
func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, event interface{}, attrs []attribute.KeyValue) (int32, int64, error) {
	tracer := otel.Tracer("kafka-publisher")
	spanAttrs := append([]attribute.KeyValue{
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.destination_kind", "topic"),
		attribute.String("event.type", eventType),
		attribute.String("event.id", eventID),
	}, attrs...)
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(spanAttrs...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return 0, 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{
			Key:   []byte("event_type"),
			Value: []byte(eventType),
		},
		{
			Key:   []byte("event_id"),
			Value: []byte(eventID),
		},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Msg("Failed to publish event")
		return 0, 0, fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	return partition, offset, nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
