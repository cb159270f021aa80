package services

import (
	"strings"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// aliasGroup lists every accepted spelling of one canonical type.
type aliasGroup struct {
	canonical models.QuestionType
	aliases   []string
}

// aliasGroups is the single source of truth for type spellings. Order is
// significant: AllCanonicalTypes and LegacyAliasesOf report in this order.
var aliasGroups = []aliasGroup{
	{models.TypeText, []string{"text", "short-text", "short_text"}},
	{models.TypeTextarea, []string{"textarea", "long-text", "long_text", "longtext"}},
	{models.TypeEmail, []string{"email", "email-address"}},
	{models.TypePhone, []string{"phone", "tel", "telephone"}},
	{models.TypeNumber, []string{"number", "numeric"}},
	{models.TypeRadio, []string{"radio", "single-choice", "single_choice", "singlechoice"}},
	{models.TypeCheckbox, []string{"multiple-choice", "multiple_choice", "multiplechoice", "checkbox", "checkboxes"}},
	{models.TypeDropdown, []string{"dropdown", "select", "pulldown"}},
	{models.TypeRating, []string{"rating", "star-rating", "star_rating", "stars"}},
	{models.TypeScale, []string{"scale", "likert", "likert-scale", "likert_scale"}},
	{models.TypeNPS, []string{"nps", "net-promoter-score", "net_promoter_score"}},
	{models.TypeEmojiScale, []string{"emoji-scale", "emoji_scale", "emojiscale"}},
	{models.TypeEmojiSatisfaction, []string{"emoji-satisfaction", "emoji_satisfaction", "svg-emoji-satisfaction", "svg_emoji_satisfaction"}},
	{models.TypeEmojiAgreement, []string{"emoji-agreement", "emoji_agreement"}},
	{models.TypeEmojiQuality, []string{"emoji-quality", "emoji_quality"}},
	{models.TypeEmojiMood, []string{"emoji-mood", "emoji_mood", "svg-emoji-mood", "svg_emoji_mood"}},
	{models.TypeEmojiDifficulty, []string{"emoji-difficulty", "emoji_difficulty"}},
	{models.TypeEmojiLikelihood, []string{"emoji-likelihood", "emoji_likelihood"}},
	{models.TypeEmojiCustom, []string{"emoji-custom", "emoji_custom"}},
	{models.TypeYesNo, []string{"yes-no", "yes_no", "yes/no", "yesno", "boolean", "true-false", "true_false", "thumbs"}},
	{models.TypeMatrix, []string{"matrix", "grid", "table"}},
	{models.TypeRanking, []string{"ranking", "rank", "order"}},
	{models.TypeSlider, []string{"slider", "range"}},
	{models.TypeFile, []string{"file", "upload", "file-upload", "file_upload", "image"}},
	{models.TypeDate, []string{"date", "datepicker"}},
	{models.TypeTime, []string{"time", "timepicker"}},
	{models.TypeDatetime, []string{"datetime", "date-time", "date_time"}},
}

// aliasTable is derived from aliasGroups once and never written afterwards.
var aliasTable = buildAliasTable(aliasGroups)

func buildAliasTable(groups []aliasGroup) map[string]models.QuestionType {
	table := make(map[string]models.QuestionType)
	for _, g := range groups {
		for _, alias := range g.aliases {
			table[alias] = g.canonical
		}
	}
	return table
}

func typeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Normalize maps any accepted spelling of a question type to its canonical
// value. Blank input yields text; unknown input is returned lowercased and
// trimmed so custom types survive a round trip.
func Normalize(raw string) models.QuestionType {
	key := typeKey(raw)
	if key == "" {
		return models.TypeText
	}
	if canonical, ok := aliasTable[key]; ok {
		return canonical
	}
	return models.QuestionType(key)
}

// NormalizeQuestions returns copies of questions with canonical types.
func NormalizeQuestions(questions []models.Question) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		q.Type = Normalize(string(q.Type))
		out = append(out, q)
	}
	return out
}

// NormalizeSurvey returns a copy of survey whose questions carry canonical types.
func NormalizeSurvey(survey *models.Survey) *models.Survey {
	if survey == nil {
		return nil
	}
	cp := *survey
	cp.Questions = NormalizeQuestions(survey.Questions)
	return &cp
}

// IsSameType reports whether two spellings name the same question type.
func IsSameType(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// AllCanonicalTypes lists every canonical type once.
func AllCanonicalTypes() []models.QuestionType {
	out := make([]models.QuestionType, 0, len(aliasGroups))
	seen := make(map[models.QuestionType]struct{}, len(aliasGroups))
	for _, g := range aliasGroups {
		if _, ok := seen[g.canonical]; ok {
			continue
		}
		seen[g.canonical] = struct{}{}
		out = append(out, g.canonical)
	}
	return out
}

// IsSupported reports whether raw normalizes to a canonical type.
func IsSupported(raw string) bool {
	normalized := Normalize(raw)
	for _, g := range aliasGroups {
		if g.canonical == normalized {
			return true
		}
	}
	return false
}

// LegacyAliasesOf returns every spelling that maps to canonical.
func LegacyAliasesOf(canonical models.QuestionType) []string {
	var out []string
	for _, g := range aliasGroups {
		if g.canonical == canonical {
			out = append(out, g.aliases...)
		}
	}
	return out
}
