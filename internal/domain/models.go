package domain

import "fmt"

// Persona is the user segment picked on the selection screen.
type Persona string

const (
	PersonaCreator      Persona = "creator"
	PersonaEntrepreneur Persona = "entrepreneur"
)

// Personas lists the supported personas in selection-screen order.
func Personas() []Persona {
	return []Persona{PersonaCreator, PersonaEntrepreneur}
}

// ParsePersona maps an opaque selection token to a Persona.
func ParsePersona(raw string) (Persona, error) {
	switch p := Persona(raw); p {
	case PersonaCreator, PersonaEntrepreneur:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPersona, raw)
	}
}

// QuestionKind selects the input affordance used to answer a question.
type QuestionKind string

const (
	KindText     QuestionKind = "text"
	KindDropdown QuestionKind = "dropdown"
	KindChips    QuestionKind = "chips"
)

// IsChoice reports whether the kind picks from a list of options.
func (k QuestionKind) IsChoice() bool {
	return k == KindDropdown || k == KindChips
}

// OtherOption is the sentinel option that unlocks a free-text override.
const OtherOption = "Other"

// Question is a single catalog entry.
type Question struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Kind        QuestionKind `json:"kind" yaml:"kind"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// HasOption reports whether option is listed for the question.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Catalog is the ordered questionnaire for one persona.
type Catalog struct {
	Persona   Persona    `json:"persona" yaml:"persona"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question looks up a question by id.
func (c Catalog) Question(id string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Clone returns a copy that shares no slices with c.
func (c Catalog) Clone() Catalog {
	out := Catalog{Persona: c.Persona, Questions: make([]Question, len(c.Questions))}
	for i, q := range c.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

// Stage names a phase of the onboarding flow.
type Stage string

const (
	StageSelecting     Stage = "selecting"
	StageTransitioning Stage = "transitioning"
	StageStepping      Stage = "stepping"
	StageReviewing     Stage = "reviewing"
	StageCompleted     Stage = "completed"
)

// Submission is the final snapshot handed to the completion sink.
type Submission struct {
	Persona Persona           `json:"persona"`
	Answers map[string]Answer `json:"answers"`
}

// Clone returns a copy that shares no map or slices with s.
func (s Submission) Clone() Submission {
	answers := make(map[string]Answer, len(s.Answers))
	for id, a := range s.Answers {
		answers[id] = a.Clone()
	}
	return Submission{Persona: s.Persona, Answers: answers}
}

// ReviewItem pairs a question with its current answer on the review screen.
type ReviewItem struct {
	Question Question `json:"question"`
	Answer   Answer   `json:"answer"`
	Display  []string `json:"display"`
	Answered bool     `json:"answered"`
}

// StepView describes the active question while stepping.
type StepView struct {
	Question   Question `json:"question"`
	Answer     Answer   `json:"answer"`
	OtherText  string   `json:"otherText,omitempty"`
	CanProceed bool     `json:"canProceed"`
	IsLast     bool     `json:"isLast"`
}

// View is the render model pushed to presentation surfaces.
type View struct {
	SessionID  string       `json:"sessionId"`
	Stage      Stage        `json:"stage"`
	Persona    Persona      `json:"persona,omitempty"`
	StepIndex  int          `json:"stepIndex"`
	TotalSteps int          `json:"totalSteps"`
	Progress   int          `json:"progress"` // percent, rounded
	Step       *StepView    `json:"step,omitempty"`
	Review     []ReviewItem `json:"review,omitempty"`
	Message    string       `json:"message,omitempty"`
	Submission *Submission  `json:"submission,omitempty"`
}
