package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/VJYGOUR/auth-system/internal/models"
)

// AppRoutes returns the application's route tree: public home, login and
// signup pages and a protected dashboard.
func AppRoutes(api *Client) []Route {
	return []Route{
		{Path: "/", View: homeView},
		{Path: LoginPath, View: staticView("Log in with: login <email>")},
		{Path: "/signup", View: staticView("Create an account with: signup <name> <email>")},
		{
			Protected: true,
			Children: []Route{
				{Path: "/dashboard", View: dashboardView(api)},
				{Path: "/activity", View: activityView(api)},
			},
		},
	}
}

func homeView(_ context.Context, user *models.PublicUser) (string, error) {
	if user == nil {
		return "Welcome. Log in or sign up to continue.", nil
	}
	return fmt.Sprintf("Welcome, %s.", user.Name), nil
}

func staticView(text string) View {
	return func(context.Context, *models.PublicUser) (string, error) {
		return text, nil
	}
}

func dashboardView(api *Client) View {
	return func(ctx context.Context, _ *models.PublicUser) (string, error) {
		d, err := api.Dashboard(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s)", d.Greeting, d.User.Email), nil
	}
}

func activityView(api *Client) View {
	return func(ctx context.Context, _ *models.PublicUser) (string, error) {
		events, err := api.Events(ctx, 10)
		if err != nil {
			return "", err
		}
		if len(events) == 0 {
			return "No recent activity.", nil
		}
		var b strings.Builder
		for _, e := range events {
			fmt.Fprintf(&b, "%s  %-20s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Type, e.RemoteAddr)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
