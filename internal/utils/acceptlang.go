package utils

import (
	"sort"
	"strconv"
	"strings"
)

// LanguageRange is one entry of an Accept-Language header.
type LanguageRange struct {
	Tag string
	Q   float64
}

// ParseAcceptLanguage splits an Accept-Language header into ranges ordered
// by descending quality. Entries with q=0 or a malformed q are dropped.
func ParseAcceptLanguage(header string) []LanguageRange {
	var out []LanguageRange
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		q := 1.0
		if key, val, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(key) == "q" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || parsed < 0 || parsed > 1 {
				continue
			}
			q = parsed
		}
		if q == 0 {
			continue
		}
		out = append(out, LanguageRange{Tag: strings.ToLower(tag), Q: q})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Q > out[j].Q })
	return out
}

// DetermineLocale picks a supported locale: the explicit query value first,
// then the best Accept-Language match (base language accepted, en-US -> en),
// then def, then the first supported locale.
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		sup[strings.ToLower(s)] = struct{}{}
	}
	match := func(tag string) (string, bool) {
		l := strings.ToLower(strings.TrimSpace(tag))
		if l == "" {
			return "", false
		}
		if _, ok := sup[l]; ok {
			return l, true
		}
		if base, _, ok := strings.Cut(l, "-"); ok {
			if _, ok := sup[base]; ok {
				return base, true
			}
		}
		return "", false
	}

	if v, ok := match(queryLang); ok {
		return v
	}
	for _, r := range ParseAcceptLanguage(acceptLang) {
		if v, ok := match(r.Tag); ok {
			return v
		}
	}
	if v, ok := match(def); ok {
		return v
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}
