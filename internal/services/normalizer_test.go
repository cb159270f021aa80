package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/surveyguy/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want models.QuestionType
	}{
		{"", models.TypeText},
		{"   ", models.TypeText},
		{"Short-Text", models.TypeText},
		{"long_text", models.TypeTextarea},
		{" TEL ", models.TypePhone},
		{"single-choice", models.TypeRadio},
		{"multiple_choice", models.TypeCheckbox},
		{"Checkboxes", models.TypeCheckbox},
		{"select", models.TypeDropdown},
		{"star_rating", models.TypeRating},
		{"likert", models.TypeScale},
		{"net-promoter-score", models.TypeNPS},
		{"svg_emoji_mood", models.TypeEmojiMood},
		{"yes/no", models.TypeYesNo},
		{"thumbs", models.TypeYesNo},
		{"grid", models.TypeMatrix},
		{"order", models.TypeRanking},
		{"range", models.TypeSlider},
		{"image", models.TypeFile},
		{"datepicker", models.TypeDate},
		{"date-time", models.TypeDatetime},
		{"Signature", models.QuestionType("signature")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeGarbageInput(t *testing.T) {
	inputs := []string{
		"\xff\xfe  X",
		"\x00",
		"\t\n",
		"text\x00",
		strings.Repeat("é", 512),
		"🙂 rating",
	}
	for _, raw := range inputs {
		var got models.QuestionType
		require.NotPanics(t, func() { got = Normalize(raw) }, "%q", raw)
		assert.NotEmpty(t, got, "%q", raw)
		assert.Equal(t, got, Normalize(string(got)), "%q", raw)
	}
	assert.Equal(t, models.TypeText, Normalize("\t\n"))
	assert.Equal(t, models.TypeRating, Normalize("\tRATING\n"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for alias := range aliasTable {
		once := Normalize(alias)
		assert.Equal(t, once, Normalize(string(once)), alias)
	}
	assert.Equal(t, Normalize("custom"), Normalize(string(Normalize("custom"))))
}

func TestCanonicalTypesMapToThemselves(t *testing.T) {
	for _, ct := range AllCanonicalTypes() {
		assert.Equal(t, ct, Normalize(string(ct)))
		assert.True(t, IsSupported(string(ct)))
	}
}

func TestAllCanonicalTypes(t *testing.T) {
	types := AllCanonicalTypes()
	require.Len(t, types, 27)
	assert.Equal(t, models.TypeText, types[0])
	assert.Equal(t, models.TypeDatetime, types[len(types)-1])

	seen := map[models.QuestionType]bool{}
	for _, ct := range types {
		assert.False(t, seen[ct], "duplicate %s", ct)
		seen[ct] = true
	}
}

func TestNormalizeQuestions(t *testing.T) {
	in := []models.Question{
		{ID: "q1", Type: "long-text"},
		{ID: "q2", Type: "multiple_choice"},
	}
	out := NormalizeQuestions(in)
	require.Len(t, out, 2)
	assert.Equal(t, models.TypeTextarea, out[0].Type)
	assert.Equal(t, models.TypeCheckbox, out[1].Type)
	// input is left alone
	assert.Equal(t, models.QuestionType("long-text"), in[0].Type)

	empty := NormalizeQuestions(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNormalizeSurvey(t *testing.T) {
	assert.Nil(t, NormalizeSurvey(nil))

	s := &models.Survey{ID: "s1", Questions: []models.Question{{ID: "q1", Type: "stars"}}}
	out := NormalizeSurvey(s)
	assert.Equal(t, models.TypeRating, out.Questions[0].Type)
	assert.Equal(t, models.QuestionType("stars"), s.Questions[0].Type)
}

func TestIsSameType(t *testing.T) {
	assert.True(t, IsSameType("Star-Rating", "rating"))
	assert.True(t, IsSameType("", "text"))
	assert.False(t, IsSameType("radio", "checkbox"))
	assert.True(t, IsSameType("custom", " CUSTOM "))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("Long-Text"))
	assert.True(t, IsSupported(""))
	assert.False(t, IsSupported("signature"))
}

func TestLegacyAliasesOf(t *testing.T) {
	assert.Equal(t, []string{"yes-no", "yes_no", "yes/no", "yesno", "boolean", "true-false", "true_false", "thumbs"},
		LegacyAliasesOf(models.TypeYesNo))
	assert.Nil(t, LegacyAliasesOf("signature"))

	for _, ct := range AllCanonicalTypes() {
		for _, alias := range LegacyAliasesOf(ct) {
			assert.Equal(t, ct, Normalize(alias))
		}
	}
}
