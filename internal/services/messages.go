package services

import "fmt"

// Respondent-facing messages. The wording is shown verbatim in the form UI.

func msgRequired(field string) string {
	return fmt.Sprintf("%s is required", field)
}

func msgMinLength(field string, min int) string {
	return fmt.Sprintf("%s must be at least %d characters", field, min)
}

func msgMaxLength(field string, max int) string {
	return fmt.Sprintf("%s must be no more than %d characters", field, max)
}

func msgFormat(field string) string {
	return fmt.Sprintf("Please enter a valid %s", field)
}

func msgNumeric(field string) string {
	return fmt.Sprintf("Please enter a valid number for %s", field)
}

func msgMin(field string, min float64) string {
	return fmt.Sprintf("%s must be at least %s", field, formatNumber(min))
}

func msgMax(field string, max float64) string {
	return fmt.Sprintf("%s must be no more than %s", field, formatNumber(max))
}

func msgRange(field string, min, max float64) string {
	return fmt.Sprintf("%s must be between %s and %s", field, formatNumber(min), formatNumber(max))
}

func msgValidOption(field string) string {
	return fmt.Sprintf("Please select a valid option for %s", field)
}

func msgValidOptions(field string) string {
	return fmt.Sprintf("Please select valid options for %s", field)
}
