package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger writes one info line per event.
type Logger struct {
	logger logrus.FieldLogger
}

func NewLogger(logger logrus.FieldLogger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Publish(block uint64, events ...Event) {
	for _, e := range events {
		l.logger.WithFields(logrus.Fields{
			"block":    block,
			"proposal": e.Proposal(),
			"event":    e,
		}).Info(e.Signature())
	}
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ uint64, events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
