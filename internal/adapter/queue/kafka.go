package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaQueue maps subjects to topics, with one writer and one reader per topic.
type KafkaQueue struct {
	brokers []string
	groupID string
	log     *zap.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafkaQueue(brokers []string, groupID string, log *zap.Logger) (*KafkaQueue, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if groupID == "" {
		groupID = "sigec-insights"
	}

	ctx, cancel := context.WithCancel(context.Background())
	log.Info("Kafka queue configured", zap.Strings("brokers", brokers), zap.String("group", groupID))
	return &KafkaQueue{
		brokers: brokers,
		groupID: groupID,
		log:     log,
		writers: make(map[string]*kafka.Writer),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(q.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           250 * time.Millisecond,
			BatchSize:              1,
			AllowAutoTopicCreation: true,
		}
		q.writers[topic] = w
	}
	return w
}

func (q *KafkaQueue) Publish(subject string, data []byte) error {
	ctx, cancel := context.WithTimeout(q.ctx, 10*time.Second)
	defer cancel()

	if err := q.writer(subject).WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return fmt.Errorf("kafka: publish: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Subscribe(subject string, handler func(data []byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        q.brokers,
		Topic:          subject,
		GroupID:        q.groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		MaxWait:        time.Second,
	})

	q.mu.Lock()
	q.readers = append(q.readers, reader)
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			msg, err := reader.ReadMessage(q.ctx)
			if err != nil {
				if q.ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				q.log.Error("Failed to read Kafka message", zap.String("topic", subject), zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if err := handler(msg.Value); err != nil {
				q.log.Error("Error processing Kafka message",
					zap.String("topic", subject),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}()

	q.log.Info("Subscribed to Kafka topic", zap.String("topic", subject))
	return nil
}

func (q *KafkaQueue) Close() error {
	q.cancel()
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	var errs []error
	for _, r := range q.readers {
		errs = append(errs, r.Close())
	}
	for _, w := range q.writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
