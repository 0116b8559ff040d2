package missions

import (
	"errors"
	"testing"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/validation"
)

func questionnaire() *Mission {
	return &Mission{
		ID:   1,
		Name: "Beach cleanup",
		Questions: []Question{
			{ID: 10, Text: "Can you swim?", Kind: QuestionBoolean, Required: true},
			{ID: 11, Text: "Shirt size", Kind: QuestionMultipleChoice, Choices: []string{"S", "M", "L"}},
			{ID: 12, Text: "Anything else?", Kind: QuestionString},
		},
	}
}

func TestQuestionID(t *testing.T) {
	tests := []struct {
		name   string
		want   int64
		wantOK bool
	}{
		{"question_12", 12, true},
		{"question_12=", 12, true},
		{"question_", 0, false},
		{"question_x", 0, false},
		{"questions_12", 0, false},
		{"comment", 0, false},
	}
	for _, tt := range tests {
		got, ok := QuestionID(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("QuestionID(%q) = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAnswerNormalization(t *testing.T) {
	p := NewParticipation(&User{ID: 1}, questionnaire())
	a := p.Answers()

	if err := a.Set("question_10=", "yes"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := a.Get("question_10"); got != true {
		t.Errorf("boolean answer = %#v, want true", got)
	}

	a.Set("question_10", "nope")
	if got, _ := a.Get("question_10"); got != false {
		t.Errorf("boolean answer = %#v, want false", got)
	}

	a.Set("question_10", "")
	if got, _ := a.Get("question_10"); got != nil {
		t.Errorf("blank boolean answer = %#v, want nil", got)
	}

	a.Set("question_12", 42)
	if got, _ := a.Get("question_12"); got != "42" {
		t.Errorf("string answer = %#v, want \"42\"", got)
	}

	if err := a.Set("question_99", "x"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("expected ErrUnknownQuestion, got %v", err)
	}
	if _, err := a.Get("comment"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("expected ErrUnknownQuestion, got %v", err)
	}
}

func TestAnswerAssignIgnoresJunk(t *testing.T) {
	p := NewParticipation(&User{ID: 1}, questionnaire())

	p.SetAnswers("not a map")
	p.SetAnswers(nil)
	if len(p.Answers().Raw()) != 0 {
		t.Fatalf("non-map input should be a no-op, got %v", p.Answers().Raw())
	}

	p.SetAnswers(map[string]any{
		"question_11": "M",
		"state":       "approved",
		"question_77": "other mission",
	})
	raw := p.Answers().Raw()
	if len(raw) != 1 || raw["question_11"] != "M" {
		t.Errorf("unexpected raw answers: %v", raw)
	}
	if p.State != StateCreated {
		t.Error("non-question keys must not be assigned")
	}
}

func TestAnswerRawRecoversFromMalformedBlob(t *testing.T) {
	p := NewParticipation(&User{ID: 1}, questionnaire())
	p.RawAnswers = "garbage"

	raw := p.Answers().Raw()
	if raw == nil || len(raw) != 0 {
		t.Fatalf("expected empty map, got %#v", raw)
	}
	if _, ok := p.RawAnswers.(map[string]any); !ok {
		t.Error("participation should now carry the materialized map")
	}
}

func TestAnswerValidation(t *testing.T) {
	tr := i18n.New("en")

	tests := []struct {
		name    string
		answers map[string]any
		want    map[string]string
	}{
		{
			name:    "required boolean blank",
			answers: map[string]any{},
			want:    map[string]string{"question_10": validation.CodeBlank},
		},
		{
			name:    "invalid choice",
			answers: map[string]any{"question_10": "1", "question_11": "XXL"},
			want:    map[string]string{"question_11": validation.CodeInvalidChoice},
		},
		{
			name:    "valid choice",
			answers: map[string]any{"question_10": "1", "question_11": "L"},
			want:    map[string]string{},
		},
		{
			name:    "blank choice is fine when optional",
			answers: map[string]any{"question_10": "true", "question_11": ""},
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticipation(&User{ID: 1}, questionnaire())
			p.SetAnswers(tt.answers)

			errs := p.Answers().Validate(tr)
			if len(errs) != len(tt.want) {
				t.Fatalf("got errors %v, want %v", errs, tt.want)
			}
			for key, code := range tt.want {
				if !errs.Has(key, code) {
					t.Errorf("missing %s error on %s: %v", code, key, errs)
				}
			}
		})
	}
}

func TestAnswerErrorMessages(t *testing.T) {
	p := NewParticipation(&User{ID: 1}, questionnaire())
	p.SetAnswers(map[string]any{"question_11": "XL"})

	errs := p.Answers().Validate(i18n.New("en"))
	if got := errs.On("question_10"); len(got) != 1 || got[0].Message != "is blank" {
		t.Errorf("blank message = %v", got)
	}
	if got := errs.On("question_11"); len(got) != 1 || got[0].Message != "is an invalid choice" {
		t.Errorf("invalid choice message = %v", got)
	}
}

func TestAnswersNeeded(t *testing.T) {
	withQuestions := NewParticipation(&User{ID: 1}, questionnaire())
	if !withQuestions.Answers().Needed() {
		t.Error("mission with questions should need answers")
	}

	empty := NewParticipation(&User{ID: 1}, &Mission{ID: 2})
	empty.RawAnswers = map[string]any{"question_1": "leftover"}
	if empty.Answers().Needed() {
		t.Error("mission without questions should not need answers, regardless of stored answers")
	}
}

func TestAnswersFollowLateMission(t *testing.T) {
	p := &Participation{User: &User{ID: 1}}
	store := p.Answers()
	if store.Needed() {
		t.Fatal("participation without a mission should not need answers")
	}

	p.Mission = questionnaire()
	if !store.Needed() {
		t.Error("store should pick up the mission assigned after first access")
	}
	if errs := p.Answers().Validate(i18n.New("en")); !errs.Has("question_10", validation.CodeBlank) {
		t.Errorf("errors = %v, want question_10 blank", errs)
	}
}

func TestEachQuestionOrder(t *testing.T) {
	p := NewParticipation(&User{ID: 1}, questionnaire())
	var keys []string
	p.Answers().EachQuestion(func(_ Question, key string) { keys = append(keys, key) })
	want := []string{"question_10", "question_11", "question_12"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
}
