package missions

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/validation"
)

var ErrUnknownQuestion = errors.New("unknown question")

var questionKeyPattern = regexp.MustCompile(`^question_(\d+)=?$`)

// QuestionKey is the answer key for question id.
func QuestionKey(id int64) string {
	return "question_" + strconv.FormatInt(id, 10)
}

// QuestionID extracts the question id from an accessor name such as
// "question_12" or "question_12=".
func QuestionID(name string) (int64, bool) {
	m := questionKeyPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AnswerStore maps a mission's questions to the answers recorded on one
// participation. The raw map lives on the participation and is persisted
// with it.
// Questions are read from the participation's mission on every call, so a
// mission assigned after first access is still honoured.
type AnswerStore struct {
	p *Participation
}

// Answers returns the participation's answer store.
func (p *Participation) Answers() *AnswerStore {
	if p.answers == nil {
		p.answers = &AnswerStore{p: p}
	}
	return p.answers
}

// SetAnswers bulk-assigns answers; see AnswerStore.Assign.
func (p *Participation) SetAnswers(attrs any) {
	p.Answers().Assign(attrs)
}

// Raw returns the backing map, replacing a missing or malformed value with
// an empty map.
func (a *AnswerStore) Raw() map[string]any {
	m, ok := a.p.RawAnswers.(map[string]any)
	if !ok {
		m = map[string]any{}
		a.p.RawAnswers = m
	}
	return m
}

// Needed reports whether the mission asks any questions.
func (a *AnswerStore) Needed() bool { return len(a.Questions()) > 0 }

func (a *AnswerStore) Questions() []Question {
	if a.p.Mission == nil {
		return nil
	}
	return a.p.Mission.Questions
}

// EachQuestion calls fn for every question in mission order with its key.
func (a *AnswerStore) EachQuestion(fn func(q Question, key string)) {
	for _, q := range a.Questions() {
		fn(q, QuestionKey(q.ID))
	}
}

// QuestionFor resolves an accessor name to the mission question it names.
func (a *AnswerStore) QuestionFor(name string) (Question, bool) {
	id, ok := QuestionID(name)
	if !ok {
		return Question{}, false
	}
	questions := a.Questions()
	i := slices.IndexFunc(questions, func(q Question) bool { return q.ID == id })
	if i < 0 {
		return Question{}, false
	}
	return questions[i], true
}

// Get returns the stored answer for name.
func (a *AnswerStore) Get(name string) (any, error) {
	q, ok := a.QuestionFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, name)
	}
	return a.Raw()[QuestionKey(q.ID)], nil
}

// Set normalizes value for the named question and stores it.
func (a *AnswerStore) Set(name string, value any) error {
	q, ok := a.QuestionFor(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, name)
	}
	a.Raw()[QuestionKey(q.ID)] = normalizeAnswer(q, value)
	return nil
}

// Assign bulk-sets answers from a loose map. Non-map input and keys that
// do not look like question accessors are ignored.
func (a *AnswerStore) Assign(attrs any) {
	var m map[string]any
	switch x := attrs.(type) {
	case map[string]any:
		m = x
	case map[string]string:
		m = make(map[string]any, len(x))
		for k, v := range x {
			m[k] = v
		}
	default:
		return
	}
	for k, v := range m {
		if !questionKeyPattern.MatchString(k) {
			continue
		}
		// Accessor names for questions of other missions are dropped too.
		_ = a.Set(k, v)
	}
}

// Validate records blank and invalid-choice errors keyed by question.
func (a *AnswerStore) Validate(tr *i18n.Translator) validation.Errors {
	var errs validation.Errors
	raw := a.Raw()
	a.EachQuestion(func(q Question, key string) {
		value := raw[key]
		switch {
		case validation.Blank(value) && q.Required:
			errs.Add(key, validation.CodeBlank, tr.T(i18n.KeyAnswerBlank, "is blank"))
		case !validation.Blank(value) && q.MultipleChoice():
			if !slices.Contains(q.Choices, fmt.Sprint(value)) {
				errs.Add(key, validation.CodeInvalidChoice, tr.T(i18n.KeyAnswerInvalidChoice, "is an invalid choice"))
			}
		}
	})
	return errs
}

func normalizeAnswer(q Question, value any) any {
	if q.Boolean() {
		b, ok := validation.ToBoolean(value)
		if !ok {
			return nil
		}
		return b
	}
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
