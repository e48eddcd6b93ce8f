package queue

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQQueue publishes each subject on a fanout exchange of the same name.
// Every subscriber gets its own exclusive queue, re-bound after a reconnect.
type RabbitMQQueue struct {
	url  string
	wait time.Duration
	log  *zap.Logger

	mu       sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
	subs     map[string]func(data []byte) error
	closed   bool
}

func NewRabbitMQQueue(cfg Config, log *zap.Logger) (*RabbitMQQueue, error) {
	q := &RabbitMQQueue{
		url:      cfg.URL,
		wait:     cfg.ReconnectWait,
		log:      log,
		declared: make(map[string]bool),
		subs:     make(map[string]func(data []byte) error),
	}
	if q.wait <= 0 {
		q.wait = 5 * time.Second
	}

	if err := q.dial(); err != nil {
		return nil, err
	}
	go q.watch()

	log.Info("Connected to RabbitMQ", zap.String("url", redactURL(cfg.URL)))
	return q, nil
}

func (q *RabbitMQQueue) dial() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	q.mu.Lock()
	q.conn, q.channel = conn, ch
	q.declared = make(map[string]bool)
	q.mu.Unlock()
	return nil
}

// exchange declares the subject's exchange once per channel. Callers hold mu.
func (q *RabbitMQQueue) exchange(subject string) error {
	if q.declared[subject] {
		return nil
	}
	if err := q.channel.ExchangeDeclare(subject, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare exchange %s: %w", subject, err)
	}
	q.declared[subject] = true
	return nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.exchange(subject); err != nil {
		return err
	}

	err := q.channel.Publish(subject, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish to %s: %w", subject, err)
	}
	return nil
}

func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.bind(subject, handler); err != nil {
		return err
	}
	q.subs[subject] = handler
	q.log.Info("Subscribed to RabbitMQ exchange", zap.String("exchange", subject))
	return nil
}

// bind attaches an exclusive auto-delete queue to the exchange. Callers hold mu.
func (q *RabbitMQQueue) bind(subject string, handler func(data []byte) error) error {
	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.exchange(subject); err != nil {
		return err
	}

	queue, err := q.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := q.channel.QueueBind(queue.Name, "", subject, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue to %s: %w", subject, err)
	}
	deliveries, err := q.channel.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume %s: %w", subject, err)
	}

	go func() {
		for d := range deliveries {
			if err := handler(d.Body); err != nil {
				q.log.Error("Error processing RabbitMQ message",
					zap.String("exchange", subject),
					zap.Error(err),
				)
			}
		}
	}()
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func (q *RabbitMQQueue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// watch redials after a broker-side close and restores every subscription,
// so cache invalidation keeps flowing across broker restarts.
func (q *RabbitMQQueue) watch() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok || reason == nil || q.isClosed() {
			return
		}
		q.log.Warn("RabbitMQ connection lost, reconnecting", zap.String("reason", reason.Reason))

		for !q.isClosed() {
			time.Sleep(q.wait)
			if err := q.dial(); err != nil {
				q.log.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
				continue
			}
			q.resubscribe()
			q.log.Info("Reconnected to RabbitMQ")
			break
		}
	}
}

func (q *RabbitMQQueue) resubscribe() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, handler := range q.subs {
		if err := q.bind(subject, handler); err != nil {
			q.log.Error("Failed to restore RabbitMQ subscription", zap.String("exchange", subject), zap.Error(err))
		}
	}
}
