package domain

import "strings"

// ChoiceKind tags a multi-choice selection entry.
type ChoiceKind string

const (
	ChoiceOption ChoiceKind = "option"
	ChoiceOther  ChoiceKind = "other"
)

// Choice is one selected entry of a chips answer. Option choices carry the
// listed value; the other choice carries the trimmed custom text, empty when
// none has been typed yet.
type Choice struct {
	Kind  ChoiceKind `json:"kind"`
	Value string     `json:"value,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// OptionChoice builds a choice for a listed option.
func OptionChoice(value string) Choice {
	return Choice{Kind: ChoiceOption, Value: value}
}

// OtherChoice builds the Other choice with optional custom text.
func OtherChoice(text string) Choice {
	return Choice{Kind: ChoiceOther, Text: strings.TrimSpace(text)}
}

// Display renders the choice the way the review screen shows it.
func (c Choice) Display() string {
	if c.Kind == ChoiceOther {
		if c.Text == "" {
			return OtherOption
		}
		return OtherOption + ": " + c.Text
	}
	return c.Value
}

// Answer holds either a single string (text and dropdown questions) or an
// ordered set of choices (chips questions).
type Answer struct {
	Text    string   `json:"text,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// TextAnswer wraps a single string value.
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// ChoicesAnswer wraps a set of selected choices.
func ChoicesAnswer(choices ...Choice) Answer {
	return Answer{Choices: append([]Choice(nil), choices...)}
}

// Clone returns a copy that shares no slices with a.
func (a Answer) Clone() Answer {
	return Answer{Text: a.Text, Choices: append([]Choice(nil), a.Choices...)}
}

// Toggle flips membership of option. The Other sentinel adds or removes the
// single other entry; plain options never touch it.
func (a Answer) Toggle(option string) Answer {
	out := a.Clone()
	if option == OtherOption {
		if i := out.otherIndex(); i >= 0 {
			return out.without(i)
		}
		out.Choices = append(out.Choices, OtherChoice(""))
		return out
	}
	for i, c := range out.Choices {
		if c.Kind == ChoiceOption && c.Value == option {
			return out.without(i)
		}
	}
	out.Choices = append(out.Choices, OptionChoice(option))
	return out
}

// SetOtherText rewrites the custom text of the other entry in place.
func (a Answer) SetOtherText(text string) (Answer, error) {
	i := a.otherIndex()
	if i < 0 {
		return a, ErrOtherNotSelected
	}
	out := a.Clone()
	out.Choices[i] = OtherChoice(text)
	return out, nil
}

// OtherSelected reports whether the Other sentinel is part of the selection.
func (a Answer) OtherSelected() bool {
	return a.otherIndex() >= 0
}

// OtherText projects the custom text of the other entry.
func (a Answer) OtherText() string {
	if i := a.otherIndex(); i >= 0 {
		return a.Choices[i].Text
	}
	return ""
}

// Selected reports whether option is part of the selection. The Other
// sentinel matches the other entry regardless of its text.
func (a Answer) Selected(option string) bool {
	if option == OtherOption {
		return a.OtherSelected()
	}
	for _, c := range a.Choices {
		if c.Kind == ChoiceOption && c.Value == option {
			return true
		}
	}
	return false
}

// Display projects the answer into review-screen strings.
func (a Answer) Display(kind QuestionKind) []string {
	if kind != KindChips {
		if a.Text == "" {
			return nil
		}
		return []string{a.Text}
	}
	out := make([]string, 0, len(a.Choices))
	for _, c := range a.Choices {
		out = append(out, c.Display())
	}
	return out
}

// Answerable is the only validation the flow performs.
func (a Answer) Answerable(kind QuestionKind) bool {
	switch kind {
	case KindText:
		return strings.TrimSpace(a.Text) != ""
	case KindChips:
		return len(a.Choices) > 0
	default:
		return a.Text != ""
	}
}

func (a Answer) without(i int) Answer {
	a.Choices = append(a.Choices[:i], a.Choices[i+1:]...)
	if len(a.Choices) == 0 {
		a.Choices = nil
	}
	return a
}

func (a Answer) otherIndex() int {
	for i, c := range a.Choices {
		if c.Kind == ChoiceOther {
			return i
		}
	}
	return -1
}

// AnswerStore maps question ids to answers for one onboarding session.
type AnswerStore struct {
	persona Persona
	answers map[string]Answer
}

// NewAnswerStore creates a store seeded with the persona tag only.
func NewAnswerStore(persona Persona) *AnswerStore {
	return &AnswerStore{persona: persona, answers: make(map[string]Answer)}
}

func (s *AnswerStore) Persona() Persona {
	return s.persona
}

// Get returns the stored answer, or the zero answer when unanswered.
func (s *AnswerStore) Get(questionID string) Answer {
	return s.answers[questionID].Clone()
}

func (s *AnswerStore) Set(questionID string, answer Answer) {
	s.answers[questionID] = answer.Clone()
}

func (s *AnswerStore) Len() int {
	return len(s.answers)
}

// Snapshot deep-copies the store into a Submission.
func (s *AnswerStore) Snapshot() Submission {
	answers := make(map[string]Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a.Clone()
	}
	return Submission{Persona: s.persona, Answers: answers}
}
