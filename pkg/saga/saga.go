// Package saga runs multi-step remote writes that have no transaction of
// their own. Each successful step registers a compensation; when a later step
// fails the compensations run newest first.
package saga

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Compensation undoes the effect of one completed step.
type Compensation func(ctx context.Context) error

type step struct {
	name string
	fn   Compensation
}

// Saga is the deferred cleanup list for one request. It is not safe for
// concurrent use.
type Saga struct {
	name    string
	logger  *logrus.Entry
	steps   []step
	timeout time.Duration
}

type Option func(*Saga)

// WithTimeout bounds the whole compensation pass.
func WithTimeout(d time.Duration) Option {
	return func(s *Saga) {
		s.timeout = d
	}
}

func New(name string, logger *logrus.Entry, opts ...Option) *Saga {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Saga{
		name:   name,
		logger: logger.WithField("saga", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defer registers the compensation for a step that just succeeded.
func (s *Saga) Defer(name string, fn Compensation) {
	s.steps = append(s.steps, step{name: name, fn: fn})
}

func (s *Saga) Len() int {
	return len(s.steps)
}

// Compensate runs every registered compensation in reverse registration
// order. Failures are logged and the remaining compensations still run;
// nothing is returned because the caller reports the original error.
//
// The request context may already be cancelled by the time a step fails, so
// compensations run on a context that ignores the parent's cancellation.
func (s *Saga) Compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		log := s.logger.WithField("compensation", st.name)
		if err := st.fn(ctx); err != nil {
			log.WithError(err).Error("compensation failed")
			continue
		}
		log.Info("compensation applied")
	}
	s.steps = nil
}

// Run calls fn and compensates when it returns an error. The error from fn
// is returned unchanged.
func (s *Saga) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		s.Compensate(ctx)
		return err
	}
	return nil
}
