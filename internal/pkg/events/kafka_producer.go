package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var jsonMarshal = json.Marshal

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *slog.Logger
	closeChan chan struct{}
	wg        sync.WaitGroup
	timeout   time.Duration
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", slog.Any("error", err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return newProducer(writer, logger, 1000), nil
}

func newProducer(writer KafkaWriter, logger *slog.Logger, buffer int) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.With(slog.String("component", "kafka_producer")),
		closeChan: make(chan struct{}),
		timeout:   10 * time.Second,
	}
	p.wg.Add(1)
	go p.eventLoop()
	return p
}

func (p *Producer) Publish(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("kafka producer queue full, dropping event",
			slog.String("event_type", string(event.Type)),
			slog.String("key", event.Key),
		)
	}
}

func (p *Producer) eventLoop() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.events:
			p.sendEvent(event)
		case <-p.closeChan:
			// drain what was queued before Close
			for {
				select {
				case event := <-p.events:
					p.sendEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("failed to serialize event",
			slog.Any("error", err),
			slog.String("event_type", string(event.Type)),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error("failed to produce event",
			slog.Any("error", err),
			slog.String("event_type", string(event.Type)),
			slog.String("key", event.Key),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	p.wg.Wait()
	if err := p.writer.Close(); err != nil {
		p.logger.Error("failed to close kafka writer", slog.Any("error", err))
	}
}
