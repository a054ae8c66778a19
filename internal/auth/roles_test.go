package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticRoles map[string][]string

func (s staticRoles) Roles(_ context.Context, userID string) ([]string, error) {
	if userID == "broken" {
		return nil, errors.New("lookup failed")
	}
	return s[userID], nil
}

func TestRequireRoles(t *testing.T) {
	resolver := staticRoles{"admin-user": {"admin"}, "plain-user": {"reader"}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		userID string
		roles  []string
		want   int
	}{
		{"anonymous", "", []string{"admin"}, http.StatusUnauthorized},
		{"no roles required", "plain-user", nil, http.StatusOK},
		{"matching role", "admin-user", []string{"admin", "owner"}, http.StatusOK},
		{"missing role", "plain-user", []string{"admin"}, http.StatusForbidden},
		{"resolver failure", "broken", []string{"admin"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: tt.userID}))
			}
			w := httptest.NewRecorder()
			RequireRoles(resolver, tt.roles...)(ok).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
