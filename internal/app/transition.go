package app

import (
	"context"
	"math/rand"
	"time"

	"onboarding-service/internal/domain"
)

// TransitionConfig tunes the cosmetic screen shown between persona choice
// and the first question.
type TransitionConfig struct {
	Enabled   bool
	MinDelay  time.Duration
	MaxDelay  time.Duration
	Intervals map[domain.Persona]time.Duration
	Messages  map[domain.Persona][]string
}

// DefaultTransitionConfig shows the screen for 5-7s, rotating messages every
// 2s for creators and 3s for entrepreneurs.
func DefaultTransitionConfig() TransitionConfig {
	return TransitionConfig{
		Enabled:  true,
		MinDelay: 5 * time.Second,
		MaxDelay: 7 * time.Second,
		Intervals: map[domain.Persona]time.Duration{
			domain.PersonaCreator:      2 * time.Second,
			domain.PersonaEntrepreneur: 3 * time.Second,
		},
		Messages: map[domain.Persona][]string{
			domain.PersonaCreator: {
				"You're going to be the next big star",
				"You're going to be the next big thing",
				"They're not ready for you",
			},
			domain.PersonaEntrepreneur: {
				"You're going to be the next big thing",
				"They're not ready for you",
			},
		},
	}
}

// Transition runs the timed transition stage. It holds no session state, so
// one instance serves every session.
type Transition struct {
	cfg TransitionConfig
}

func NewTransition(cfg TransitionConfig) *Transition {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Transition{cfg: cfg}
}

func (t *Transition) Enabled() bool {
	return t.cfg.Enabled
}

// Messages returns the rotating messages for persona.
func (t *Transition) Messages(persona domain.Persona) []string {
	return t.cfg.Messages[persona]
}

// Delay picks the stage duration uniformly from [MinDelay, MaxDelay].
func (t *Transition) Delay() time.Duration {
	spread := int64(t.cfg.MaxDelay - t.cfg.MinDelay)
	if spread <= 0 {
		return t.cfg.MinDelay
	}
	return t.cfg.MinDelay + time.Duration(rand.Int63n(spread+1))
}

// First is the message shown as soon as the stage is entered.
func (t *Transition) First(persona domain.Persona) string {
	if msgs := t.Messages(persona); len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Run rotates past First on the persona's interval and returns nil once the
// delay elapses. It returns ctx.Err() if ctx is cancelled first; onMessage is
// never called after Run returns.
func (t *Transition) Run(ctx context.Context, persona domain.Persona, onMessage func(string)) error {
	msgs := t.Messages(persona)

	timer := time.NewTimer(t.Delay())
	defer timer.Stop()

	var rotate <-chan time.Time
	if interval := t.cfg.Intervals[persona]; len(msgs) > 1 && interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		rotate = ticker.C
	}

	next := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-rotate:
			next = (next + 1) % len(msgs)
			onMessage(msgs[next])
		}
	}
}
