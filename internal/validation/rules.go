// Package validation evaluates declarative field rules against input values.
// Rules are plain data so the same set can drive server checks and client
// forms.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Check is an additional pattern a value must match.
type Check struct {
	Pattern *regexp.Regexp
	Message string
}

// Rule describes the constraints on a single field.
type Rule struct {
	Field     string
	Required  bool
	MinLength int
	MaxLength int
	Checks    []Check

	RequiredMessage string
	MinMessage      string
	MaxMessage      string
}

// Validate applies rules to values (keyed by field) and returns one message
// per failing field. The first failing constraint wins. An empty result
// means the input is valid.
func Validate(rules []Rule, values map[string]string) map[string]string {
	errs := make(map[string]string)
	for _, rule := range rules {
		if msg, ok := rule.apply(values[rule.Field]); !ok {
			errs[rule.Field] = msg
		}
	}
	return errs
}

func (r Rule) apply(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		if r.Required {
			return r.RequiredMessage, false
		}
		return "", true
	}

	n := utf8.RuneCountInString(value)
	if r.MinLength > 0 && n < r.MinLength {
		return r.MinMessage, false
	}
	if r.MaxLength > 0 && n > r.MaxLength {
		return r.MaxMessage, false
	}
	for _, c := range r.Checks {
		if !c.Pattern.MatchString(value) {
			return c.Message, false
		}
	}
	return "", true
}
