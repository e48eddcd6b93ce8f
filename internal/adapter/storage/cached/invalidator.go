package cached

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/adapter/queue"
)

// Invalidator bumps cache generations when writers announce changes.
type Invalidator struct {
	source  *Source
	mq      queue.MessageQueue
	timeout time.Duration
	log     *zap.Logger
}

func NewInvalidator(source *Source, mq queue.MessageQueue, log *zap.Logger) *Invalidator {
	return &Invalidator{source: source, mq: mq, timeout: 2 * time.Second, log: log}
}

func (i *Invalidator) Start() error {
	return i.mq.Subscribe(queue.SubjectDocumentsChanged, i.handle)
}

func (i *Invalidator) handle(data []byte) error {
	event, err := queue.DecodeDocumentsChanged(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	if err := i.source.Invalidate(ctx, event.Collection); err != nil {
		return err
	}
	i.log.Info("Document cache invalidated", zap.String("collection", event.Collection))
	return nil
}
