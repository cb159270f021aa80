package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// QuestionType identifies a question's answer shape. Canonical values are
// listed below; any other value is carried through untouched.
type QuestionType string

const (
	TypeText              QuestionType = "text"
	TypeTextarea          QuestionType = "textarea"
	TypeEmail             QuestionType = "email"
	TypePhone             QuestionType = "phone"
	TypeNumber            QuestionType = "number"
	TypeRadio             QuestionType = "radio"
	TypeCheckbox          QuestionType = "checkbox"
	TypeDropdown          QuestionType = "dropdown"
	TypeRating            QuestionType = "rating"
	TypeScale             QuestionType = "scale"
	TypeNPS               QuestionType = "nps"
	TypeEmojiScale        QuestionType = "emoji_scale"
	TypeEmojiSatisfaction QuestionType = "emoji_satisfaction"
	TypeEmojiAgreement    QuestionType = "emoji_agreement"
	TypeEmojiQuality      QuestionType = "emoji_quality"
	TypeEmojiMood         QuestionType = "emoji_mood"
	TypeEmojiDifficulty   QuestionType = "emoji_difficulty"
	TypeEmojiLikelihood   QuestionType = "emoji_likelihood"
	TypeEmojiCustom       QuestionType = "emoji_custom"
	TypeYesNo             QuestionType = "yes_no"
	TypeMatrix            QuestionType = "matrix"
	TypeRanking           QuestionType = "ranking"
	TypeSlider            QuestionType = "slider"
	TypeFile              QuestionType = "file"
	TypeDate              QuestionType = "date"
	TypeTime              QuestionType = "time"
	TypeDatetime          QuestionType = "datetime"
)

// Survey lifecycle states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
)

// Question is a single survey question as authored in the form builder.
// Type may hold a legacy spelling; callers normalize before dispatching.
type Question struct {
	ID          string           `json:"id" yaml:"id" validate:"required"`
	Type        QuestionType     `json:"type" yaml:"type"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool             `json:"required" yaml:"required"`
	Options     *QuestionOptions `json:"options,omitempty" yaml:"options,omitempty"`
	MinLength   *int             `json:"minLength,omitempty" yaml:"minLength,omitempty" validate:"omitempty,gte=0"`
	MaxLength   *int             `json:"maxLength,omitempty" yaml:"maxLength,omitempty" validate:"omitempty,gte=1"`
	Min         *float64         `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64         `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64         `json:"step,omitempty" yaml:"step,omitempty" validate:"omitempty,gt=0"`
	Pattern     string           `json:"pattern,omitempty" yaml:"pattern,omitempty" validate:"omitempty,regexp"`
	Rows        []string         `json:"rows,omitempty" yaml:"rows,omitempty" validate:"omitempty,dive,required"`
	Columns     []string         `json:"columns,omitempty" yaml:"columns,omitempty" validate:"omitempty,dive,required"`
}

// QuestionOptions holds either a list of choices or numeric bounds.
// On the wire it is a JSON array of choices or an object with min/max
// (and optionally choices).
type QuestionOptions struct {
	Choices []string `validate:"omitempty,unique,dive,required"`
	Min     *float64
	Max     *float64
}

// Clone returns a deep copy of q; no pointer or slice is shared with q.
func (q Question) Clone() Question {
	q.Options = q.Options.Clone()
	q.MinLength = clonePtr(q.MinLength)
	q.MaxLength = clonePtr(q.MaxLength)
	q.Min = clonePtr(q.Min)
	q.Max = clonePtr(q.Max)
	q.Step = clonePtr(q.Step)
	q.Rows = slices.Clone(q.Rows)
	q.Columns = slices.Clone(q.Columns)
	return q
}

// Clone returns a deep copy of o. A nil receiver yields nil.
func (o *QuestionOptions) Clone() *QuestionOptions {
	if o == nil {
		return nil
	}
	return &QuestionOptions{
		Choices: slices.Clone(o.Choices),
		Min:     clonePtr(o.Min),
		Max:     clonePtr(o.Max),
	}
}

// Clone returns a deep copy of s, including every question.
func (s *Survey) Clone() *Survey {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Questions != nil {
		cp.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			cp.Questions[i] = q.Clone()
		}
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type optionsObject struct {
	Choices []string `json:"choices,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

func (o QuestionOptions) MarshalJSON() ([]byte, error) {
	if o.Min == nil && o.Max == nil {
		choices := o.Choices
		if choices == nil {
			choices = []string{}
		}
		return json.Marshal(choices)
	}
	return json.Marshal(optionsObject{Choices: o.Choices, Min: o.Min, Max: o.Max})
}

func (o *QuestionOptions) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return o.fromAny(raw)
}

func (o QuestionOptions) MarshalYAML() (any, error) {
	if o.Min == nil && o.Max == nil {
		return o.Choices, nil
	}
	return optionsObject{Choices: o.Choices, Min: o.Min, Max: o.Max}, nil
}

func (o *QuestionOptions) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return o.fromAny(raw)
}

func (o *QuestionOptions) fromAny(raw any) error {
	*o = QuestionOptions{}
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		o.Choices = make([]string, 0, len(v))
		for _, el := range v {
			o.Choices = append(o.Choices, choiceLabel(el))
		}
		return nil
	case map[string]any:
		if n, ok := toFloat(v["min"]); ok {
			o.Min = &n
		}
		if n, ok := toFloat(v["max"]); ok {
			o.Max = &n
		}
		if list, ok := v["choices"].([]any); ok {
			o.Choices = make([]string, 0, len(list))
			for _, el := range list {
				o.Choices = append(o.Choices, choiceLabel(el))
			}
		}
		return nil
	default:
		return fmt.Errorf("options: unsupported shape %T", raw)
	}
}

// choiceLabel flattens a choice element: plain values are formatted,
// objects contribute their "value" (or "label") field.
func choiceLabel(el any) string {
	switch v := el.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"value", "label", "text"} {
			if s, ok := v[key]; ok && s != nil {
				return choiceLabel(s)
			}
		}
		return ""
	case nil:
		return ""
	default:
		if n, ok := toFloat(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Survey owns an ordered list of questions.
type Survey struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	Questions   []Question `json:"questions" yaml:"questions"`
	CreatedAt   time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ResponseSet maps question ids to answers. Values are nil, strings,
// numbers, booleans, lists (multi-select) or nested maps (matrix).
type ResponseSet map[string]any

// ValidationResult is the outcome of validating a whole response set.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// ValidationSummary reports completion progress for a response set.
type ValidationSummary struct {
	TotalQuestions         int `json:"totalQuestions"`
	AnsweredQuestions      int `json:"answeredQuestions"`
	RequiredQuestions      int `json:"requiredQuestions"`
	AnsweredRequired       int `json:"answeredRequired"`
	CompletionRate         int `json:"completionRate"`
	RequiredCompletionRate int `json:"requiredCompletionRate"`
}

// SubmissionRecord is a persisted survey response.
type SubmissionRecord struct {
	ID                    string      `json:"id"`
	SurveyID              string      `json:"survey_id"`
	Responses             ResponseSet `json:"responses"`
	SessionID             string      `json:"session_id"`
	SubmittedAt           time.Time   `json:"submitted_at"`
	CompletionTime        *int        `json:"completion_time"`
	UserAgent             string      `json:"user_agent,omitempty"`
	RespondentEmail       string      `json:"respondent_email,omitempty"`
	RespondentFingerprint string      `json:"respondent_fingerprint,omitempty"`
}

// Session identifies one respondent's pass through a survey.
type Session struct {
	ID        string
	SurveyID  string
	StartedAt time.Time
}
