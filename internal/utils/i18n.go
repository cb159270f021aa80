package utils

// Minimal server-side i18n for fixed keys.
// Respondent-facing validation messages are produced in English by the
// rule engine; only transport-level errors are translated here.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":                "ok",
		"error.bad_request":        "invalid request body",
		"error.not_found":          "not found",
		"error.survey_not_found":   "survey not found",
		"error.survey_closed":      "survey is not accepting responses",
		"error.duplicate":          "response already submitted for this session",
		"error.invalid_session":    "invalid session token",
		"error.invalid_responses":  "some answers need attention",
		"error.invalid_definition": "survey definition is invalid",
		"error.internal":           "internal error",
	},
	"zh": {
		"health.ok":                "好的",
		"error.bad_request":        "请求体无效",
		"error.not_found":          "未找到",
		"error.survey_not_found":   "问卷不存在",
		"error.survey_closed":      "问卷当前不接受回答",
		"error.duplicate":          "该会话已提交过回答",
		"error.invalid_session":    "会话令牌无效",
		"error.invalid_responses":  "部分回答需要修改",
		"error.invalid_definition": "问卷定义无效",
		"error.internal":           "服务器内部错误",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// SupportedLocales lists the locales T has tables for.
func SupportedLocales() []string {
	return []string{"en", "zh"}
}
