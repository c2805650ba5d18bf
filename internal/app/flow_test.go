package app

import (
	"context"
	"errors"
	"testing"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creatorCatalog(t *testing.T) domain.Catalog {
	t.Helper()
	return catalog.Builtin()[domain.PersonaCreator]
}

func steppingFlow(t *testing.T) *Flow {
	t.Helper()
	f := NewFlow(false)
	require.NoError(t, f.ChoosePersona(creatorCatalog(t)))
	require.Equal(t, domain.StageStepping, f.Stage())
	return f
}

func TestChoosePersonaWithTransition(t *testing.T) {
	f := NewFlow(true)
	require.NoError(t, f.ChoosePersona(creatorCatalog(t)))
	assert.Equal(t, domain.StageTransitioning, f.Stage())

	// Stepping operations are not valid until the transition completes.
	assert.ErrorIs(t, f.Advance(), domain.ErrInvalidTransition)

	require.NoError(t, f.CompleteTransition())
	assert.Equal(t, domain.StageStepping, f.Stage())
	assert.Equal(t, 0, f.StepIndex())
}

func TestChoosePersonaOnlyWhileSelecting(t *testing.T) {
	f := steppingFlow(t)
	err := f.ChoosePersona(catalog.Builtin()[domain.PersonaEntrepreneur])
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.PersonaCreator, f.Persona())
}

func TestCanProceed(t *testing.T) {
	f := steppingFlow(t)

	// channelName is free text.
	assert.False(t, f.CanProceed())
	require.NoError(t, f.SetAnswer("channelName", "   "))
	assert.False(t, f.CanProceed())
	require.NoError(t, f.SetAnswer("channelName", "My Channel"))
	assert.True(t, f.CanProceed())

	// contentType is multi-choice.
	require.NoError(t, f.Advance())
	assert.False(t, f.CanProceed())
	require.NoError(t, f.ToggleChoice("contentType", "Vlogs"))
	assert.True(t, f.CanProceed())
	require.NoError(t, f.ToggleChoice("contentType", "Vlogs"))
	assert.False(t, f.CanProceed())
}

func TestAdvanceRejectedWhenUnanswered(t *testing.T) {
	f := steppingFlow(t)
	err := f.Advance()
	assert.ErrorIs(t, err, domain.ErrCannotProceed)
	assert.Equal(t, 0, f.StepIndex())
	assert.Equal(t, domain.StageStepping, f.Stage())
}

func TestRetreatFromFirstStepResetsSession(t *testing.T) {
	f := steppingFlow(t)
	require.NoError(t, f.SetAnswer("channelName", "My Channel"))
	require.NoError(t, f.Advance())
	require.NoError(t, f.ToggleChoice("contentType", "Gaming"))

	require.NoError(t, f.Retreat())
	assert.Equal(t, 0, f.StepIndex())
	require.NoError(t, f.Retreat())

	assert.Equal(t, domain.StageSelecting, f.Stage())
	assert.Empty(t, f.Persona())
	_, ok := f.Snapshot()
	assert.False(t, ok)

	require.NoError(t, f.ChoosePersona(creatorCatalog(t)))
	snap, ok := f.Snapshot()
	require.True(t, ok)
	assert.Equal(t, domain.PersonaCreator, snap.Persona)
	assert.Empty(t, snap.Answers)
}

func TestOperationsRejectedOutsideStage(t *testing.T) {
	f := NewFlow(false)
	ops := map[string]func() error{
		"advance":         f.Advance,
		"retreat":         f.Retreat,
		"setAnswer":       func() error { return f.SetAnswer("channelName", "x") },
		"toggleChoice":    func() error { return f.ToggleChoice("contentType", "Vlogs") },
		"setOtherText":    func() error { return f.SetOtherText("contentType", "x") },
		"reviewEdit":      func() error { return f.ReviewEdit("channelName", domain.TextAnswer("x")) },
		"backToQuestions": f.BackToQuestions,
		"submit":          func() error { return f.Submit(context.Background(), nopSink()) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), domain.ErrInvalidTransition)
			assert.Equal(t, domain.StageSelecting, f.Stage())
		})
	}
}

func TestAnswerOperationsCheckQuestion(t *testing.T) {
	f := steppingFlow(t)

	assert.ErrorIs(t, f.SetAnswer("businessName", "x"), domain.ErrUnknownQuestion)
	assert.ErrorIs(t, f.SetAnswer("contentType", "Vlogs"), domain.ErrKindMismatch)
	assert.ErrorIs(t, f.SetAnswer("currentSize", "Enormous"), domain.ErrUnknownOption)
	assert.ErrorIs(t, f.ToggleChoice("channelName", "Vlogs"), domain.ErrKindMismatch)
	assert.ErrorIs(t, f.ToggleChoice("contentType", "Knitting"), domain.ErrUnknownOption)
	assert.ErrorIs(t, f.SetOtherText("contentType", "x"), domain.ErrOtherNotSelected)

	// SetAnswer never moves the step.
	require.NoError(t, f.SetAnswer("currentSize", "Small (100-1K)"))
	assert.Equal(t, 0, f.StepIndex())
}

func TestOtherTextThroughFlow(t *testing.T) {
	f := steppingFlow(t)
	require.NoError(t, f.ToggleChoice("contentType", domain.OtherOption))
	require.NoError(t, f.SetOtherText("contentType", "  skateboarding  "))
	assert.Equal(t, []string{"Other: skateboarding"}, f.Answer("contentType").Display(domain.KindChips))

	require.NoError(t, f.SetOtherText("contentType", ""))
	assert.Equal(t, []string{"Other"}, f.Answer("contentType").Display(domain.KindChips))

	require.NoError(t, f.ToggleChoice("contentType", domain.OtherOption))
	assert.Empty(t, f.Answer("contentType").Choices)
}

func TestReviewRoundTrip(t *testing.T) {
	f := steppingFlow(t)
	answerAll(t, f)
	require.Equal(t, domain.StageReviewing, f.Stage())

	snap, ok := f.Snapshot()
	require.True(t, ok)
	assert.Len(t, snap.Answers, 7)

	require.NoError(t, f.ReviewEdit("currentSize", domain.TextAnswer("Large (100K-1M)")))
	require.NoError(t, f.ReviewEdit("platform", domain.ChoicesAnswer(
		domain.OptionChoice("Twitch"),
		domain.OptionChoice("Twitch"),
		domain.OtherChoice("  Kick "),
	)))
	assert.ErrorIs(t, f.ReviewEdit("platform", domain.ChoicesAnswer(domain.OtherChoice("a"), domain.OtherChoice("b"))), domain.ErrKindMismatch)
	assert.ErrorIs(t, f.ReviewEdit("currentSize", domain.ChoicesAnswer(domain.OptionChoice("Vlogs"))), domain.ErrKindMismatch)

	edited, _ := f.Snapshot()
	assert.Equal(t, "Large (100K-1M)", edited.Answers["currentSize"].Text)
	assert.Equal(t, []string{"Twitch", "Other: Kick"}, edited.Answers["platform"].Display(domain.KindChips))
	for id, a := range snap.Answers {
		if id == "currentSize" || id == "platform" {
			continue
		}
		assert.Equal(t, a, edited.Answers[id], id)
	}

	v := f.View()
	require.Len(t, v.Review, 7)
	assert.Equal(t, "channelName", v.Review[0].Question.ID)
	assert.Equal(t, []string{"Large (100K-1M)"}, v.Review[5].Display)
}

func TestBackToQuestionsLandsOnLastStep(t *testing.T) {
	f := steppingFlow(t)
	answerAll(t, f)

	require.NoError(t, f.BackToQuestions())
	assert.Equal(t, domain.StageStepping, f.Stage())
	assert.Equal(t, 6, f.StepIndex())
	assert.True(t, f.CanProceed())

	require.NoError(t, f.Advance())
	assert.Equal(t, domain.StageReviewing, f.Stage())
}

func TestSubmitCompletesOnlyWhenSinkAccepts(t *testing.T) {
	f := steppingFlow(t)
	answerAll(t, f)

	failing := CompletionFunc(func(context.Context, domain.Submission) error {
		return errors.New("sink down")
	})
	require.Error(t, f.Submit(context.Background(), failing))
	assert.Equal(t, domain.StageReviewing, f.Stage())

	var got domain.Submission
	sink := CompletionFunc(func(_ context.Context, s domain.Submission) error {
		got = s
		return nil
	})
	require.NoError(t, f.Submit(context.Background(), sink))
	assert.Equal(t, domain.StageCompleted, f.Stage())
	assert.Equal(t, domain.PersonaCreator, got.Persona)
	assert.Len(t, got.Answers, 7)

	// Nothing mutates after completion except a restart.
	assert.ErrorIs(t, f.SetAnswer("channelName", "x"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, f.Submit(context.Background(), sink), domain.ErrInvalidTransition)
	require.NotNil(t, f.View().Submission)

	f.Restart()
	assert.Equal(t, domain.StageSelecting, f.Stage())
}

func TestSubmittedAnswersAreDetached(t *testing.T) {
	f := steppingFlow(t)
	answerAll(t, f)

	var held domain.Submission
	sink := CompletionFunc(func(_ context.Context, s domain.Submission) error {
		held = s
		return nil
	})
	require.NoError(t, f.Submit(context.Background(), sink))

	// A sink keeping and editing its copy must not reach the completed flow.
	held.Answers["channelName"] = domain.TextAnswer("rewritten by sink")
	assert.Equal(t, "My Channel", f.View().Submission.Answers["channelName"].Text)

	// Nor may a view consumer.
	v := f.View()
	v.Submission.Answers["channelName"] = domain.TextAnswer("rewritten by view")
	assert.Equal(t, "My Channel", f.View().Submission.Answers["channelName"].Text)
}

func TestViewProgress(t *testing.T) {
	f := steppingFlow(t)
	v := f.View()
	assert.Equal(t, 7, v.TotalSteps)
	assert.Equal(t, 14, v.Progress)
	require.NotNil(t, v.Step)
	assert.Equal(t, "channelName", v.Step.Question.ID)
	assert.False(t, v.Step.CanProceed)
	assert.False(t, v.Step.IsLast)
}

// answerAll walks every creator question with a valid answer, ending in review.
func answerAll(t *testing.T, f *Flow) {
	t.Helper()
	for f.Stage() == domain.StageStepping {
		q, _ := f.Current()
		switch q.Kind {
		case domain.KindText:
			require.NoError(t, f.SetAnswer(q.ID, "My Channel"))
		case domain.KindDropdown:
			require.NoError(t, f.SetAnswer(q.ID, q.Options[0]))
		case domain.KindChips:
			if !f.Answer(q.ID).Answerable(q.Kind) {
				require.NoError(t, f.ToggleChoice(q.ID, q.Options[0]))
			}
		}
		require.NoError(t, f.Advance())
	}
}

func nopSink() CompletionSink {
	return CompletionFunc(func(context.Context, domain.Submission) error { return nil })
}
