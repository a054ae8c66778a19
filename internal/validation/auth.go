package validation

import "regexp"

var (
	emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	hasLower     = regexp.MustCompile(`[a-z]`)
	hasUpper     = regexp.MustCompile(`[A-Z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

const passwordMix = "Password must contain at least one lowercase letter, one uppercase letter, and one number"

// SignupRules are the constraints on a registration form.
var SignupRules = []Rule{
	{
		Field:           "name",
		Required:        true,
		MinLength:       2,
		MaxLength:       50,
		RequiredMessage: "Name is required",
		MinMessage:      "Name must be at least 2 characters",
		MaxMessage:      "Name must not exceed 50 characters",
	},
	{
		Field:           "email",
		Required:        true,
		MaxLength:       254,
		RequiredMessage: "Email is required",
		MaxMessage:      "Email must not exceed 254 characters",
		Checks:          []Check{{Pattern: emailPattern, Message: "Invalid email address"}},
	},
	{
		Field:           "password",
		Required:        true,
		MinLength:       6,
		MaxLength:       20,
		RequiredMessage: "Password is required",
		MinMessage:      "Password must be at least 6 characters",
		MaxMessage:      "Password must not exceed 20 characters",
		Checks: []Check{
			{Pattern: hasLower, Message: passwordMix},
			{Pattern: hasUpper, Message: passwordMix},
			{Pattern: hasDigit, Message: passwordMix},
		},
	},
}

// LoginRules only require presence; strength is never re-checked at login.
var LoginRules = []Rule{
	{Field: "email", Required: true, RequiredMessage: "Email is required"},
	{Field: "password", Required: true, RequiredMessage: "Password is required"},
}
