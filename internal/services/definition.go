package services

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// DefinitionResult reports authoring problems. Errors holds survey-level
// messages; QuestionErrors is keyed by question id (or index when the id is
// missing) and then by field.
type DefinitionResult struct {
	IsValid        bool                         `json:"isValid"`
	Errors         map[string]string            `json:"errors"`
	QuestionErrors map[string]map[string]string `json:"questionErrors,omitempty"`
}

var definitionValidator = newDefinitionValidator()

func newDefinitionValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Patterns are compiled again at answer time; anything that fails here
	// would silently stop constraining answers.
	if err := v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateDefinition checks a survey as authored, before it is stored.
func ValidateDefinition(survey *models.Survey) DefinitionResult {
	res := DefinitionResult{Errors: map[string]string{}, QuestionErrors: map[string]map[string]string{}}
	if survey == nil {
		res.Errors["general"] = "Survey data is required"
		return res
	}
	if strings.TrimSpace(survey.Title) == "" {
		res.Errors["title"] = "Survey title is required"
	}
	if len(survey.Questions) == 0 {
		res.Errors["questions"] = "At least one question is required"
	}

	seen := make(map[string]struct{}, len(survey.Questions))
	for i := range survey.Questions {
		q := &survey.Questions[i]
		key := q.ID
		if key == "" {
			key = strconv.Itoa(i)
		} else if _, dup := seen[key]; dup {
			res.Errors["questions"] = "Question ids must be unique"
		}
		seen[key] = struct{}{}
		if errs := validateQuestionDefinition(q); len(errs) > 0 {
			res.QuestionErrors[key] = errs
		}
	}

	res.IsValid = len(res.Errors) == 0 && len(res.QuestionErrors) == 0
	return res
}

func validateQuestionDefinition(q *models.Question) map[string]string {
	errs := map[string]string{}
	if err := definitionValidator.Struct(q); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				field, msg := tagMessage(fe)
				if _, exists := errs[field]; !exists {
					errs[field] = msg
				}
			}
		}
	}

	if strings.TrimSpace(q.Title) == "" {
		errs["title"] = "Question title is required"
	}
	if q.MinLength != nil && q.MaxLength != nil && *q.MinLength > 0 && *q.MinLength > *q.MaxLength {
		errs["minLength"] = "Minimum length cannot be greater than maximum length"
	}

	switch Normalize(string(q.Type)) {
	case models.TypeRadio, models.TypeCheckbox, models.TypeDropdown:
		checkChoices(q, errs, "At least 2 options are required")
	case models.TypeRanking:
		checkChoices(q, errs, "At least 2 options required for ranking")
	case models.TypeRating:
		if _, max := optionBounds(q); max != nil {
			if *max < 2 {
				errs["maxRating"] = "Maximum rating must be at least 2"
			} else if *max > 10 {
				errs["maxRating"] = "Maximum rating cannot exceed 10"
			}
		}
	case models.TypeNumber:
		if q.Min != nil && q.Max != nil && *q.Min >= *q.Max {
			errs["min"] = "Minimum value must be less than maximum value"
		}
	case models.TypeScale, models.TypeSlider:
		min, max := optionBounds(q)
		if min == nil {
			min = q.Min
		}
		if max == nil {
			max = q.Max
		}
		if min == nil || max == nil {
			errs["range"] = "Min and max values are required"
		} else if *min >= *max {
			errs["min"] = "Minimum value must be less than maximum value"
		}
	case models.TypeMatrix:
		checkLabels(q.Rows, errs, "rows", "At least 1 row is required", "All rows must have text")
		checkLabels(q.Columns, errs, "columns", "At least 1 column is required", "All columns must have text")
	}
	return errs
}

func checkChoices(q *models.Question, errs map[string]string, tooFew string) {
	var list []string
	if q.Options != nil {
		list = q.Options.Choices
	}
	if len(list) < 2 {
		errs["options"] = tooFew
		return
	}
	seen := make(map[string]struct{}, len(list))
	for _, c := range list {
		if strings.TrimSpace(c) == "" {
			errs["options"] = "All options must have text"
			return
		}
		if _, dup := seen[c]; dup {
			errs["options"] = "Options must be unique"
			return
		}
		seen[c] = struct{}{}
	}
}

func checkLabels(labels []string, errs map[string]string, field, missing, blank string) {
	if len(labels) == 0 {
		errs[field] = missing
		return
	}
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			errs[field] = blank
			return
		}
	}
}

// tagMessage turns a struct-tag failure into a field key and message.
func tagMessage(fe validator.FieldError) (string, string) {
	field, _, _ := strings.Cut(fe.Field(), "[")
	if field == "Choices" {
		field = "options"
	}
	switch fe.Tag() {
	case "required":
		if field == "id" {
			return field, "Question id is required"
		}
		return field, "All " + field + " must have text"
	case "regexp":
		return field, "Pattern is not a valid regular expression"
	case "unique":
		return field, "Options must be unique"
	case "gt":
		return field, "Step value must be positive"
	case "gte":
		return field, field + " must be at least " + fe.Param()
	default:
		return field, field + " is invalid"
	}
}
