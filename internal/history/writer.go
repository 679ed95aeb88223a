package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/session"
)

const writeTimeout = 5 * time.Second

// Appender is the durable side of the write-behind queue.
type Appender interface {
	AppendTurn(ctx context.Context, threadID string, turn session.Turn) error
	AppendAction(ctx context.Context, threadID string, action session.Action) error
}

type entry struct {
	threadID string
	turn     *session.Turn
	action   *session.Action
}

// Writer is a write-behind session.Recorder. Records are queued without
// blocking and written by a single worker in the order they were recorded.
type Writer struct {
	store  Appender
	logger *zap.Logger

	mu     sync.Mutex
	queue  []entry
	closed bool

	wake chan struct{}
	done chan struct{}
}

func NewWriter(store Appender, log *zap.Logger) *Writer {
	w := &Writer{
		store:  store,
		logger: logger.WithFields(log),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) RecordTurn(threadID string, turn session.Turn) {
	w.enqueue(entry{threadID: threadID, turn: &turn})
}

func (w *Writer) RecordAction(threadID string, action session.Action) {
	w.enqueue(entry{threadID: threadID, action: &action})
}

func (w *Writer) enqueue(e entry) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("history writer closed, dropping record", zap.String(logger.FieldThread, e.threadID))
		return
	}
	w.queue = append(w.queue, e)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

// Close flushes every queued record and stops the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()

	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for range w.wake {
		w.drain()
	}
	w.drain()
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		batch := w.queue
		w.queue = nil
		w.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			w.write(e)
		}
	}
}

func (w *Writer) write(e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch {
	case e.turn != nil:
		err = w.store.AppendTurn(ctx, e.threadID, *e.turn)
	case e.action != nil:
		err = w.store.AppendAction(ctx, e.threadID, *e.action)
	}
	if err != nil {
		w.logger.Error("persist history", zap.String(logger.FieldThread, e.threadID), zap.Error(err))
	}
}
