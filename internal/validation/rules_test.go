package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Signup(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   map[string]string
	}{
		{
			name:   "valid",
			values: map[string]string{"name": "Ann", "email": "Ann@Example.com", "password": "Abcdef1"},
			want:   map[string]string{},
		},
		{
			name:   "all missing",
			values: map[string]string{},
			want: map[string]string{
				"name":     "Name is required",
				"email":    "Email is required",
				"password": "Password is required",
			},
		},
		{
			name:   "short name and bad email",
			values: map[string]string{"name": "A", "email": "ann@", "password": "Abcdef1"},
			want: map[string]string{
				"name":  "Name must be at least 2 characters",
				"email": "Invalid email address",
			},
		},
		{
			name:   "long name",
			values: map[string]string{"name": strings.Repeat("x", 51), "email": "a@b.io", "password": "Abcdef1"},
			want:   map[string]string{"name": "Name must not exceed 50 characters"},
		},
		{
			name:   "password without digit",
			values: map[string]string{"name": "Ann", "email": "a@b.io", "password": "Abcdefg"},
			want:   map[string]string{"password": passwordMix},
		},
		{
			name:   "password without upper",
			values: map[string]string{"name": "Ann", "email": "a@b.io", "password": "abcdef1"},
			want:   map[string]string{"password": passwordMix},
		},
		{
			name:   "password too short",
			values: map[string]string{"name": "Ann", "email": "a@b.io", "password": "Ab1"},
			want:   map[string]string{"password": "Password must be at least 6 characters"},
		},
		{
			name:   "password too long",
			values: map[string]string{"name": "Ann", "email": "a@b.io", "password": "Abcdefghijklmnopqrst1"},
			want:   map[string]string{"password": "Password must not exceed 20 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(SignupRules, tt.values))
		})
	}
}

func TestValidate_OptionalEmptyFieldPasses(t *testing.T) {
	rules := []Rule{{Field: "nick", MinLength: 3, MinMessage: "too short"}}
	assert.Empty(t, Validate(rules, map[string]string{"nick": ""}))
	assert.Equal(t, map[string]string{"nick": "too short"}, Validate(rules, map[string]string{"nick": "ab"}))
}

func TestValidate_Login(t *testing.T) {
	assert.Empty(t, Validate(LoginRules, map[string]string{"email": "x", "password": "wrong"}))
	assert.Len(t, Validate(LoginRules, map[string]string{"email": " "}), 2)
}
