package app

import (
	"context"

	"onboarding-service/internal/domain"

	"github.com/rs/zerolog"
)

// CompletionSink receives the final answers when a session is submitted.
// What happens beyond the call (e.g. sending to a backend) is up to the sink.
type CompletionSink interface {
	Complete(ctx context.Context, submission domain.Submission) error
}

// CompletionFunc adapts a function to CompletionSink.
type CompletionFunc func(ctx context.Context, submission domain.Submission) error

func (f CompletionFunc) Complete(ctx context.Context, submission domain.Submission) error {
	return f(ctx, submission)
}

// LogSink writes completed onboardings to the structured log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Complete(_ context.Context, submission domain.Submission) error {
	answers := zerolog.Dict()
	for id, a := range submission.Answers {
		if len(a.Choices) > 0 {
			display := make([]string, 0, len(a.Choices))
			for _, c := range a.Choices {
				display = append(display, c.Display())
			}
			answers.Strs(id, display)
			continue
		}
		answers.Str(id, a.Text)
	}
	s.logger.Info().
		Str("persona", string(submission.Persona)).
		Dict("answers", answers).
		Msg("onboarding completed")
	return nil
}
