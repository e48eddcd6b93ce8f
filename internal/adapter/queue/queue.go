package queue

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// SubjectDocumentsChanged carries DocumentsChanged events from the writers
// of the document store.
const SubjectDocumentsChanged = "documents.changed"

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// DocumentsChanged announces that a collection was written to.
type DocumentsChanged struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at,omitempty"`
}

func (e DocumentsChanged) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeDocumentsChanged(data []byte) (DocumentsChanged, error) {
	var e DocumentsChanged
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("failed to decode documents.changed event: %w", err)
	}
	if e.Collection == "" {
		return e, fmt.Errorf("documents.changed event without collection")
	}
	return e, nil
}

type Config struct {
	Driver        string // nats | rabbitmq | kafka
	URL           string
	Brokers       []string
	GroupID       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// New connects the configured driver.
func New(cfg Config, log *zap.Logger) (MessageQueue, error) {
	var (
		mq  MessageQueue
		err error
	)
	switch cfg.Driver {
	case "", "nats":
		mq, err = asQueue(NewNATSQueue(cfg, log))
	case "rabbitmq":
		mq, err = asQueue(NewRabbitMQQueue(cfg, log))
	case "kafka":
		mq, err = asQueue(NewKafkaQueue(cfg.Brokers, cfg.GroupID, log))
	default:
		return nil, fmt.Errorf("unsupported queue driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return mq, nil
}

// asQueue keeps a typed nil from turning into a non-nil interface.
func asQueue[Q MessageQueue](q Q, err error) (MessageQueue, error) {
	if err != nil {
		return nil, err
	}
	return q, nil
}

// redactURL hides the password of broker URLs before they reach the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
