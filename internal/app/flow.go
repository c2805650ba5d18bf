package app

import (
	"context"
	"fmt"
	"math"

	"onboarding-service/internal/domain"
)

// Flow is the onboarding state machine for a single session:
//
//	selecting -> (transitioning) -> stepping(i) -> reviewing -> completed
//
// with back-edges stepping(0) -> selecting and reviewing -> stepping(last).
// Rejected operations return an error and leave the flow untouched.
// Flow is not safe for concurrent use; Session serializes access.
type Flow struct {
	stage      domain.Stage
	transition bool
	catalog    domain.Catalog
	step       int
	store      *domain.AnswerStore
	submission *domain.Submission
}

// NewFlow returns a flow in the selecting stage. When withTransition is set,
// choosing a persona passes through the transitioning stage first.
func NewFlow(withTransition bool) *Flow {
	return &Flow{stage: domain.StageSelecting, transition: withTransition}
}

func (f *Flow) Stage() domain.Stage {
	return f.stage
}

func (f *Flow) Persona() domain.Persona {
	if f.store == nil {
		return ""
	}
	return f.store.Persona()
}

func (f *Flow) StepIndex() int {
	return f.step
}

// Current returns the active question while stepping.
func (f *Flow) Current() (domain.Question, bool) {
	if f.stage != domain.StageStepping {
		return domain.Question{}, false
	}
	return f.catalog.Questions[f.step], true
}

// Answer returns the stored answer for questionID.
func (f *Flow) Answer(questionID string) domain.Answer {
	if f.store == nil {
		return domain.Answer{}
	}
	return f.store.Get(questionID)
}

// CanProceed reports whether the active question satisfies its answerable predicate.
func (f *Flow) CanProceed() bool {
	q, ok := f.Current()
	if !ok {
		return false
	}
	return f.store.Get(q.ID).Answerable(q.Kind)
}

// ChoosePersona seeds a fresh answer store for the catalog's persona.
func (f *Flow) ChoosePersona(c domain.Catalog) error {
	if f.stage != domain.StageSelecting {
		return f.invalid("choosePersona")
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: %s has no questions", domain.ErrInvalidCatalog, c.Persona)
	}
	f.catalog = c.Clone()
	f.store = domain.NewAnswerStore(c.Persona)
	f.step = 0
	f.submission = nil
	if f.transition {
		f.stage = domain.StageTransitioning
	} else {
		f.stage = domain.StageStepping
	}
	return nil
}

// CompleteTransition leaves the cosmetic transition stage for the first question.
func (f *Flow) CompleteTransition() error {
	if f.stage != domain.StageTransitioning {
		return f.invalid("completeTransition")
	}
	f.stage = domain.StageStepping
	f.step = 0
	return nil
}

// Advance moves to the next question, or to review after the last one.
func (f *Flow) Advance() error {
	if f.stage != domain.StageStepping {
		return f.invalid("advance")
	}
	if !f.CanProceed() {
		return fmt.Errorf("%w: %s", domain.ErrCannotProceed, f.catalog.Questions[f.step].ID)
	}
	if f.step < len(f.catalog.Questions)-1 {
		f.step++
		return nil
	}
	f.stage = domain.StageReviewing
	return nil
}

// Retreat moves to the previous question; from the first question it returns
// to persona selection and drops every answer.
func (f *Flow) Retreat() error {
	if f.stage != domain.StageStepping {
		return f.invalid("retreat")
	}
	if f.step > 0 {
		f.step--
		return nil
	}
	f.reset()
	return nil
}

// SetAnswer overwrites a text or dropdown answer without moving the step.
func (f *Flow) SetAnswer(questionID, value string) error {
	if f.stage != domain.StageStepping && f.stage != domain.StageReviewing {
		return f.invalid("setAnswer")
	}
	q, err := f.question(questionID)
	if err != nil {
		return err
	}
	if err := checkText(q, value); err != nil {
		return err
	}
	f.store.Set(q.ID, domain.TextAnswer(value))
	return nil
}

// ToggleChoice flips an option of a chips question.
func (f *Flow) ToggleChoice(questionID, option string) error {
	if f.stage != domain.StageStepping && f.stage != domain.StageReviewing {
		return f.invalid("toggleChoice")
	}
	q, err := f.question(questionID)
	if err != nil {
		return err
	}
	if q.Kind != domain.KindChips {
		return fmt.Errorf("%w: toggle on %s question %q", domain.ErrKindMismatch, q.Kind, q.ID)
	}
	if !q.HasOption(option) {
		return fmt.Errorf("%w: %q for %q", domain.ErrUnknownOption, option, q.ID)
	}
	f.store.Set(q.ID, f.store.Get(q.ID).Toggle(option))
	return nil
}

// SetOtherText sets the custom text of a selected Other entry.
func (f *Flow) SetOtherText(questionID, text string) error {
	if f.stage != domain.StageStepping && f.stage != domain.StageReviewing {
		return f.invalid("setOtherText")
	}
	q, err := f.question(questionID)
	if err != nil {
		return err
	}
	if q.Kind != domain.KindChips {
		return fmt.Errorf("%w: other text on %s question %q", domain.ErrKindMismatch, q.Kind, q.ID)
	}
	updated, err := f.store.Get(q.ID).SetOtherText(text)
	if err != nil {
		return fmt.Errorf("%w: %q", err, q.ID)
	}
	f.store.Set(q.ID, updated)
	return nil
}

// ReviewEdit replaces a whole answer from the review screen.
func (f *Flow) ReviewEdit(questionID string, answer domain.Answer) error {
	if f.stage != domain.StageReviewing {
		return f.invalid("reviewEdit")
	}
	q, err := f.question(questionID)
	if err != nil {
		return err
	}
	normalized, err := normalizeAnswer(q, answer)
	if err != nil {
		return err
	}
	f.store.Set(q.ID, normalized)
	return nil
}

// BackToQuestions returns from review to the last question.
func (f *Flow) BackToQuestions() error {
	if f.stage != domain.StageReviewing {
		return f.invalid("backToQuestions")
	}
	f.stage = domain.StageStepping
	f.step = len(f.catalog.Questions) - 1
	return nil
}

// Submit hands the answer snapshot to sink. The flow only completes when the
// sink accepts it.
func (f *Flow) Submit(ctx context.Context, sink CompletionSink) error {
	if f.stage != domain.StageReviewing {
		return f.invalid("submit")
	}
	if err := sink.Complete(ctx, f.store.Snapshot()); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	kept := f.store.Snapshot()
	f.submission = &kept
	f.stage = domain.StageCompleted
	return nil
}

// Restart returns to persona selection from any stage.
func (f *Flow) Restart() {
	f.reset()
}

// Snapshot copies the current answers; ok is false before a persona is chosen.
func (f *Flow) Snapshot() (domain.Submission, bool) {
	if f.store == nil {
		return domain.Submission{}, false
	}
	return f.store.Snapshot(), true
}

// View projects the flow into a render model. SessionID and Message are
// filled in by the owner.
func (f *Flow) View() domain.View {
	v := domain.View{
		Stage:      f.stage,
		Persona:    f.Persona(),
		StepIndex:  f.step,
		TotalSteps: len(f.catalog.Questions),
	}
	switch f.stage {
	case domain.StageStepping:
		q := f.catalog.Questions[f.step]
		a := f.store.Get(q.ID)
		v.Progress = int(math.Round(float64(f.step+1) / float64(v.TotalSteps) * 100))
		v.Step = &domain.StepView{
			Question:   q,
			Answer:     a,
			OtherText:  a.OtherText(),
			CanProceed: a.Answerable(q.Kind),
			IsLast:     f.step == v.TotalSteps-1,
		}
	case domain.StageReviewing:
		v.Progress = 100
		v.Review = make([]domain.ReviewItem, 0, len(f.catalog.Questions))
		for _, q := range f.catalog.Questions {
			a := f.store.Get(q.ID)
			v.Review = append(v.Review, domain.ReviewItem{
				Question: q,
				Answer:   a,
				Display:  a.Display(q.Kind),
				Answered: a.Answerable(q.Kind),
			})
		}
	case domain.StageCompleted:
		v.Progress = 100
		sub := f.submission.Clone()
		v.Submission = &sub
	}
	return v
}

func (f *Flow) reset() {
	f.stage = domain.StageSelecting
	f.catalog = domain.Catalog{}
	f.store = nil
	f.step = 0
	f.submission = nil
}

func (f *Flow) question(id string) (domain.Question, error) {
	q, ok := f.catalog.Question(id)
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: %q", domain.ErrUnknownQuestion, id)
	}
	return q, nil
}

func (f *Flow) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", domain.ErrInvalidTransition, op, f.stage)
}

func checkText(q domain.Question, value string) error {
	switch q.Kind {
	case domain.KindText:
		return nil
	case domain.KindDropdown:
		if value != "" && !q.HasOption(value) {
			return fmt.Errorf("%w: %q for %q", domain.ErrUnknownOption, value, q.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: text answer for %s question %q", domain.ErrKindMismatch, q.Kind, q.ID)
	}
}

// normalizeAnswer rebuilds a client-supplied answer so the chips invariants
// hold: listed options only, no duplicates, at most one other entry.
func normalizeAnswer(q domain.Question, answer domain.Answer) (domain.Answer, error) {
	if q.Kind != domain.KindChips {
		if len(answer.Choices) > 0 {
			return domain.Answer{}, fmt.Errorf("%w: choices for %s question %q", domain.ErrKindMismatch, q.Kind, q.ID)
		}
		if err := checkText(q, answer.Text); err != nil {
			return domain.Answer{}, err
		}
		return domain.TextAnswer(answer.Text), nil
	}
	if answer.Text != "" {
		return domain.Answer{}, fmt.Errorf("%w: text for chips question %q", domain.ErrKindMismatch, q.ID)
	}
	var out domain.Answer
	for _, c := range answer.Choices {
		switch c.Kind {
		case domain.ChoiceOther:
			if !q.HasOption(domain.OtherOption) {
				return domain.Answer{}, fmt.Errorf("%w: %q for %q", domain.ErrUnknownOption, domain.OtherOption, q.ID)
			}
			if out.OtherSelected() {
				return domain.Answer{}, fmt.Errorf("%w: duplicate other entry for %q", domain.ErrKindMismatch, q.ID)
			}
			out.Choices = append(out.Choices, domain.OtherChoice(c.Text))
		case domain.ChoiceOption:
			if c.Value == domain.OtherOption || !q.HasOption(c.Value) {
				return domain.Answer{}, fmt.Errorf("%w: %q for %q", domain.ErrUnknownOption, c.Value, q.ID)
			}
			if out.Selected(c.Value) {
				continue
			}
			out.Choices = append(out.Choices, domain.OptionChoice(c.Value))
		default:
			return domain.Answer{}, fmt.Errorf("%w: choice kind %q for %q", domain.ErrKindMismatch, c.Kind, q.ID)
		}
	}
	return out, nil
}
