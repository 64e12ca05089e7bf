package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// MultiSink dispatches notices to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a MultiSink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Send forwards the notice to all sinks and joins their errors.
func (m *MultiSink) Send(ctx context.Context, notice Notice) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, sink := range m.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Send(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes notices to the structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Send implements Sink.
func (s *LogSink) Send(_ context.Context, notice Notice) error {
	event := s.log.Info()
	if notice.Level == LevelError {
		event = s.log.Warn()
	}
	event.Str("notice_id", notice.ID).
		Str("level", string(notice.Level)).
		Time("at", notice.At).
		Msg(notice.Message)
	return nil
}
