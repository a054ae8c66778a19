package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VJYGOUR/auth-system/internal/models"
)

func TestGuard_Protect(t *testing.T) {
	user := &models.PublicUser{ID: "u-1", Name: "Ann"}
	admins := func(u models.PublicUser, role string) bool { return u.ID == "u-1" && role == "admin" }

	tests := []struct {
		name  string
		state State
		roles []string
		want  Outcome
	}{
		{
			name:  "uninitialized",
			state: State{Phase: PhaseUninitialized, IsLoading: true},
			want:  Outcome{Kind: Placeholder},
		},
		{
			name:  "checking",
			state: State{Phase: PhaseChecking, IsLoading: true},
			want:  Outcome{Kind: Placeholder},
		},
		{
			name:  "action in flight",
			state: State{Phase: PhaseReady, IsLoading: true, Pending: ActionLogout, IsAuthenticated: true, User: user},
			want:  Outcome{Kind: Placeholder},
		},
		{
			name:  "anonymous",
			state: State{Phase: PhaseReady},
			want:  Outcome{Kind: Redirect, To: "/login", From: "/dashboard"},
		},
		{
			name:  "authenticated",
			state: State{Phase: PhaseReady, IsAuthenticated: true, User: user},
			want:  Outcome{Kind: Render},
		},
		{
			name:  "role held",
			state: State{Phase: PhaseReady, IsAuthenticated: true, User: user},
			roles: []string{"editor", "admin"},
			want:  Outcome{Kind: Render},
		},
		{
			name:  "role missing",
			state: State{Phase: PhaseReady, IsAuthenticated: true, User: user},
			roles: []string{"editor"},
			want:  Outcome{Kind: Forbidden},
		},
	}

	g := Guard{HasRole: admins}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Protect(tt.state, "/dashboard", tt.roles...))
		})
	}
}

func TestRouter_Resolve(t *testing.T) {
	view := func(context.Context, *models.PublicUser) (string, error) { return "", nil }
	r := NewRouter(Guard{},
		Route{Path: "/", View: view},
		Route{Path: "/login", View: view},
		Route{Protected: true, Children: []Route{
			{Path: "/dashboard", View: view},
			{Path: "/admin", View: view, Roles: []string{"admin"}},
		}},
	)

	anonymous := State{Phase: PhaseReady}
	signedIn := State{Phase: PhaseReady, IsAuthenticated: true, User: &models.PublicUser{ID: "u-1"}}

	out := r.Resolve(anonymous, "/")
	assert.Equal(t, Render, out.Kind)
	assert.Equal(t, "/", out.Route.Path)

	out = r.Resolve(anonymous, "dashboard/")
	assert.Equal(t, Redirect, out.Kind)
	assert.Equal(t, "/dashboard", out.From)

	out = r.Resolve(signedIn, "/dashboard")
	assert.Equal(t, Render, out.Kind)
	assert.Equal(t, "/dashboard", out.Route.Path)

	assert.Equal(t, Forbidden, r.Resolve(signedIn, "/admin").Kind)
	assert.Equal(t, NotFound, r.Resolve(signedIn, "/nowhere").Kind)
	assert.Equal(t, Placeholder, r.Resolve(State{Phase: PhaseChecking, IsLoading: true}, "/dashboard").Kind)
}
