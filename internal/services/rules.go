package services

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// QuestionResult is the verdict for a single answer.
type QuestionResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

var valid = QuestionResult{IsValid: true}

func invalid(msg string) QuestionResult {
	return QuestionResult{IsValid: false, Error: msg}
}

// ruleSet pairs a type's emptiness predicate with its value checks. check
// only sees non-empty values and returns "" when the value passes.
type ruleSet struct {
	empty func(v any) bool
	check func(q *models.Question, field string, v any) string
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)

	// patternCache holds compiled question patterns keyed by source.
	patternCache sync.Map // map[string]*regexp.Regexp
)

var (
	dateLayouts     = []string{"2006-01-02", "01/02/2006", time.RFC3339}
	timeLayouts     = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}
	datetimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04"}
)

// legacyRules are keyed by raw spelling and take precedence over the
// canonical table: these names predate the normalizer and keep their
// original behaviour.
var legacyRules = map[string]ruleSet{
	"star_rating":     {empty: isEmptyScalar, check: checkStarRating},
	"linear_scale":    {empty: isEmptyScalar, check: checkRange(1, 10)},
	"multiple_choice": {empty: isEmptyScalar, check: checkSingleOption},
}

// rulesFor returns the rule set of a canonical type. Unknown types have
// none and are never constrained.
func rulesFor(t models.QuestionType) (ruleSet, bool) {
	switch t {
	case models.TypeText:
		return ruleSet{empty: isEmptyScalar, check: checkText}, true
	case models.TypeTextarea:
		return ruleSet{empty: isEmptyScalar, check: checkTextarea}, true
	case models.TypeEmail:
		return ruleSet{empty: isEmptyScalar, check: checkEmail}, true
	case models.TypePhone:
		return ruleSet{empty: isEmptyScalar, check: checkPhone}, true
	case models.TypeNumber:
		return ruleSet{empty: isEmptyScalar, check: checkNumber}, true
	case models.TypeRadio, models.TypeDropdown:
		return ruleSet{empty: isEmptyScalar, check: checkSingleOption}, true
	case models.TypeCheckbox, models.TypeRanking:
		return ruleSet{empty: isEmptyList, check: checkMultiOption}, true
	case models.TypeRating:
		return ruleSet{empty: isEmptyScalar, check: checkRange(1, 5)}, true
	case models.TypeNPS:
		return ruleSet{empty: isEmptyScalar, check: checkRange(0, 10)}, true
	case models.TypeScale, models.TypeSlider:
		return ruleSet{empty: isEmptyScalar, check: checkConfiguredRange}, true
	case models.TypeEmojiScale, models.TypeEmojiSatisfaction, models.TypeEmojiAgreement,
		models.TypeEmojiQuality, models.TypeEmojiMood, models.TypeEmojiDifficulty,
		models.TypeEmojiLikelihood, models.TypeEmojiCustom, models.TypeYesNo:
		return ruleSet{empty: isEmptyScalar}, true
	case models.TypeMatrix:
		return ruleSet{empty: isEmptyMap}, true
	case models.TypeFile:
		return ruleSet{empty: isEmptyAny}, true
	case models.TypeDate:
		return ruleSet{empty: isEmptyScalar, check: checkTemporal(dateLayouts, "date")}, true
	case models.TypeTime:
		return ruleSet{empty: isEmptyScalar, check: checkTemporal(timeLayouts, "time")}, true
	case models.TypeDatetime:
		return ruleSet{empty: isEmptyScalar, check: checkTemporal(datetimeLayouts, "date and time")}, true
	default:
		return ruleSet{}, false
	}
}

func lookupRules(raw models.QuestionType) (ruleSet, bool) {
	if rs, ok := legacyRules[typeKey(string(raw))]; ok {
		return rs, true
	}
	return rulesFor(Normalize(string(raw)))
}

func fieldName(q *models.Question) string {
	if title := strings.TrimSpace(q.Title); title != "" {
		return title
	}
	return "This field"
}

// ValidateQuestion decides whether value is an acceptable answer to q.
func ValidateQuestion(q *models.Question, value any) QuestionResult {
	if q == nil {
		return invalid("Invalid question")
	}
	rules, ok := lookupRules(q.Type)
	if !ok {
		return valid
	}
	field := fieldName(q)
	if rules.empty(value) {
		if q.Required {
			return invalid(msgRequired(field))
		}
		return valid
	}
	if rules.check == nil {
		return valid
	}
	if msg := rules.check(q, field, value); msg != "" {
		return invalid(msg)
	}
	return valid
}

func checkLength(q *models.Question, field, s string) string {
	n := utf8.RuneCountInString(s)
	if q.MinLength != nil && *q.MinLength > 0 && n < *q.MinLength {
		return msgMinLength(field, *q.MinLength)
	}
	if q.MaxLength != nil && *q.MaxLength > 0 && n > *q.MaxLength {
		return msgMaxLength(field, *q.MaxLength)
	}
	return ""
}

func checkText(q *models.Question, field string, v any) string {
	s, ok := asText(v)
	if !ok {
		return ""
	}
	if msg := checkLength(q, field, s); msg != "" {
		return msg
	}
	if q.Pattern != "" {
		if re := compiledPattern(q.Pattern); re != nil && !re.MatchString(s) {
			return msgFormat(field)
		}
	}
	return ""
}

func checkTextarea(q *models.Question, field string, v any) string {
	s, ok := asText(v)
	if !ok {
		return ""
	}
	return checkLength(q, field, s)
}

// compiledPattern returns nil for patterns that do not compile; those are
// rejected when the survey is authored, so evaluation treats them as absent.
func compiledPattern(src string) *regexp.Regexp {
	if cached, ok := patternCache.Load(src); ok {
		return cached.(*regexp.Regexp)
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil
	}
	patternCache.Store(src, re)
	return re
}

func checkEmail(_ *models.Question, _ string, v any) string {
	s, ok := asText(v)
	if !ok || !emailPattern.MatchString(s) {
		return msgFormat("email address")
	}
	return ""
}

func checkPhone(_ *models.Question, _ string, v any) string {
	s, ok := asText(v)
	if !ok {
		return msgFormat("phone number")
	}
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
	if !phonePattern.MatchString(stripped) {
		return msgFormat("phone number")
	}
	return ""
}

func checkNumber(q *models.Question, field string, v any) string {
	n, ok := asNumber(v)
	if !ok {
		return msgNumeric(field)
	}
	if q.Min != nil && n < *q.Min {
		return msgMin(field, *q.Min)
	}
	if q.Max != nil && n > *q.Max {
		return msgMax(field, *q.Max)
	}
	return ""
}

func optionBounds(q *models.Question) (min, max *float64) {
	if q.Options == nil {
		return nil, nil
	}
	return q.Options.Min, q.Options.Max
}

func inRange(v any, lo, hi float64) bool {
	n, ok := asNumber(v)
	return ok && n >= lo && n <= hi
}

// checkRange builds a bounded-range check whose defaults can be overridden
// through the question's options.
func checkRange(defMin, defMax float64) func(*models.Question, string, any) string {
	return func(q *models.Question, field string, v any) string {
		lo, hi := defMin, defMax
		if min, max := optionBounds(q); min != nil || max != nil {
			if min != nil {
				lo = *min
			}
			if max != nil {
				hi = *max
			}
		}
		if !inRange(v, lo, hi) {
			return msgRange(field, lo, hi)
		}
		return ""
	}
}

func checkStarRating(q *models.Question, field string, v any) string {
	hi := 5.0
	if _, max := optionBounds(q); max != nil {
		hi = *max
	}
	if !inRange(v, 1, hi) {
		return msgRange(field, 1, hi)
	}
	return ""
}

// checkConfiguredRange only enforces bounds the author actually set, either
// in options or on the question itself.
func checkConfiguredRange(q *models.Question, field string, v any) string {
	min, max := optionBounds(q)
	if min == nil {
		min = q.Min
	}
	if max == nil {
		max = q.Max
	}
	switch {
	case min != nil && max != nil:
		if !inRange(v, *min, *max) {
			return msgRange(field, *min, *max)
		}
	case min != nil:
		if n, ok := asNumber(v); !ok || n < *min {
			return msgMin(field, *min)
		}
	case max != nil:
		if n, ok := asNumber(v); !ok || n > *max {
			return msgMax(field, *max)
		}
	}
	return ""
}

func choiceSet(q *models.Question) map[string]struct{} {
	if q.Options == nil || len(q.Options.Choices) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(q.Options.Choices))
	for _, c := range q.Options.Choices {
		set[c] = struct{}{}
	}
	return set
}

func checkSingleOption(q *models.Question, field string, v any) string {
	choices := choiceSet(q)
	if choices == nil {
		return ""
	}
	s, ok := asText(v)
	if !ok {
		return msgValidOption(field)
	}
	if _, ok := choices[s]; !ok {
		return msgValidOption(field)
	}
	return ""
}

func checkMultiOption(q *models.Question, field string, v any) string {
	choices := choiceSet(q)
	if choices == nil {
		return ""
	}
	list, ok := asList(v)
	if !ok {
		return ""
	}
	for _, el := range list {
		s, ok := asText(el)
		if !ok {
			return msgValidOptions(field)
		}
		if _, ok := choices[s]; !ok {
			return msgValidOptions(field)
		}
	}
	return ""
}

func checkTemporal(layouts []string, noun string) func(*models.Question, string, any) string {
	return func(_ *models.Question, _ string, v any) string {
		s, ok := v.(string)
		if !ok {
			return msgFormat(noun)
		}
		s = strings.TrimSpace(s)
		for _, layout := range layouts {
			if _, err := time.Parse(layout, s); err == nil {
				return ""
			}
		}
		return msgFormat(noun)
	}
}
