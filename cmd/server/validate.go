package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/surveyguy/internal/models"
	"github.com/soaringjerry/surveyguy/internal/services"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a response set against a survey definition offline",
	Long: "Reads a survey and a response set (YAML or JSON) and prints the validation\n" +
		"result and completion summary as JSON. Exits non-zero when invalid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		surveyPath, _ := cmd.Flags().GetString("survey")
		responsesPath, _ := cmd.Flags().GetString("responses")
		sanitize, _ := cmd.Flags().GetBool("sanitize")
		checkDef, _ := cmd.Flags().GetBool("definition")

		var survey models.Survey
		if err := readYAML(surveyPath, &survey); err != nil {
			return fmt.Errorf("survey: %w", err)
		}
		var responses models.ResponseSet
		if responsesPath != "" {
			if err := readYAML(responsesPath, &responses); err != nil {
				return fmt.Errorf("responses: %w", err)
			}
		}
		report, ok := buildReport(&survey, responses, sanitize, checkDef)
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if !ok {
			return errInvalid
		}
		return nil
	},
}

var errInvalid = errors.New("validation failed")

func init() {
	validateCmd.Flags().String("survey", "", "Survey definition file (YAML or JSON)")
	validateCmd.Flags().String("responses", "", "Response set file (YAML or JSON)")
	validateCmd.Flags().Bool("sanitize", false, "Sanitize responses before validating")
	validateCmd.Flags().Bool("definition", false, "Also run authoring checks on the survey definition")
	_ = validateCmd.MarkFlagRequired("survey")
}

type validationReport struct {
	Definition *services.DefinitionResult `json:"definition,omitempty"`
	Responses  models.ResponseSet         `json:"responses,omitempty"`
	Result     models.ValidationResult    `json:"result"`
	Summary    models.ValidationSummary   `json:"summary"`
}

func buildReport(survey *models.Survey, responses models.ResponseSet, sanitize, checkDef bool) (validationReport, bool) {
	var report validationReport
	ok := true
	if checkDef {
		def := services.ValidateDefinition(survey)
		report.Definition = &def
		ok = def.IsValid
	}
	if sanitize {
		responses = services.SanitizeResponses(responses)
		report.Responses = responses
	}
	report.Result = services.ValidateSurvey(survey, responses)
	report.Summary = services.GetValidationSummary(survey, responses)
	return report, ok && report.Result.IsValid
}

// readYAML decodes path into dst. JSON files parse too since YAML is a
// superset.
func readYAML(path string, dst any) error {
	if path == "" {
		return errors.New("path is required")
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := yaml.NewDecoder(r).Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
