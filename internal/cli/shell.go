package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VJYGOUR/auth-system/internal/client"
	"github.com/VJYGOUR/auth-system/internal/validation"
)

const shellHelp = `Commands:
  signup <name> <email>   create an account (prompts for password);
                          the name may contain spaces
  login <email>           log in (prompts for password)
  logout                  end the session
  whoami                  show the current user
  go <path>               open a page, e.g. go /dashboard
  help                    show this help
  quit                    exit`

// NewShellCmd creates the shell subcommand.
func NewShellCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive client for a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := client.New(server, nil)
			if err != nil {
				return err
			}
			sh := NewShell(api, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	return cmd
}

// Shell is a line-oriented client. Pages are resolved through the route
// guard exactly as a browser front end would.
type Shell struct {
	auth   *client.AuthContext
	router *client.Router
	in     *bufio.Scanner
	out    io.Writer
	stdin  io.Reader

	// returnTo is the page an anonymous visitor was redirected from.
	returnTo string
}

// NewShell creates a Shell talking to api.
func NewShell(api *client.Client, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		auth:   client.NewAuthContext(api),
		router: client.NewRouter(client.Guard{}, client.AppRoutes(api)...),
		in:     bufio.NewScanner(in),
		out:    out,
		stdin:  in,
	}
}

// Run checks the session, then reads commands until quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	s.auth.Init(ctx)
	fmt.Fprintln(s.out, "Checking session...")

	waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	state, err := s.auth.Wait(waitCtx)
	cancel()
	if err != nil {
		return err
	}
	if state.IsAuthenticated {
		fmt.Fprintf(s.out, "Logged in as %s <%s>\n", state.User.Name, state.User.Email)
	} else {
		fmt.Fprintln(s.out, "Not logged in. Type 'help' for commands.")
	}

	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		if quit := s.Exec(ctx, s.in.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return true
	case "whoami":
		s.whoami()
	case "signup":
		s.signup(ctx, args)
	case "login":
		s.login(ctx, args)
	case "logout":
		if err := s.auth.Logout(ctx); err != nil && !errors.Is(err, client.ErrActionPending) {
			fmt.Fprintln(s.out, "Logged out locally; the server could not be reached.")
			return false
		}
		fmt.Fprintln(s.out, "Logged out.")
	case "go", "open":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: go <path>")
			return false
		}
		s.open(ctx, args[0])
	default:
		fmt.Fprintf(s.out, "unknown command %q; type 'help'\n", cmd)
	}
	return false
}

func (s *Shell) whoami() {
	state := s.auth.State()
	if !state.IsAuthenticated {
		fmt.Fprintln(s.out, "Not logged in.")
		return
	}
	fmt.Fprintf(s.out, "%s <%s> (id %s)\n", state.User.Name, state.User.Email, state.User.ID)
}

func (s *Shell) signup(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: signup <name> <email>")
		return
	}
	name, email := strings.Join(args[:len(args)-1], " "), args[len(args)-1]
	password, err := s.readPassword("Password: ")
	if err != nil {
		fmt.Fprintln(s.out, "could not read password:", err)
		return
	}

	if err := s.auth.Signup(ctx, name, email, password); err != nil {
		fmt.Fprintln(s.out, client.UserMessage(client.OpSignup, err))
		s.printFields(client.FieldErrors(err))
		return
	}
	s.afterLogin(ctx)
}

func (s *Shell) login(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: login <email>")
		return
	}
	password, err := s.readPassword("Password: ")
	if err != nil {
		fmt.Fprintln(s.out, "could not read password:", err)
		return
	}

	if fields := validation.Validate(validation.LoginRules, map[string]string{
		"email":    args[0],
		"password": password,
	}); len(fields) > 0 {
		s.printFields(fields)
		return
	}

	if err := s.auth.Login(ctx, args[0], password); err != nil {
		fmt.Fprintln(s.out, client.UserMessage(client.OpLogin, err))
		return
	}
	s.afterLogin(ctx)
}

func (s *Shell) printFields(fields map[string]string) {
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	slices.Sort(names)
	for _, field := range names {
		fmt.Fprintf(s.out, "  %s: %s\n", field, fields[field])
	}
}

func (s *Shell) afterLogin(ctx context.Context) {
	user := s.auth.State().User
	fmt.Fprintf(s.out, "Welcome, %s.\n", user.Name)
	if s.returnTo != "" {
		path := s.returnTo
		s.returnTo = ""
		s.open(ctx, path)
	}
}

func (s *Shell) open(ctx context.Context, path string) {
	state := s.auth.State()
	out := s.router.Resolve(state, path)

	switch out.Kind {
	case client.Placeholder:
		fmt.Fprintln(s.out, "Loading...")
	case client.Redirect:
		s.returnTo = out.From
		fmt.Fprintf(s.out, "Please log in to view %s (now at %s).\n", out.From, out.To)
	case client.Forbidden:
		fmt.Fprintln(s.out, "You do not have access to this page.")
	case client.NotFound:
		fmt.Fprintf(s.out, "No page at %s.\n", path)
	case client.Render:
		page, err := out.Route.View(ctx, state.User)
		if err != nil {
			fmt.Fprintln(s.out, client.UserMessage(client.OpSession, err))
			return
		}
		fmt.Fprintln(s.out, page)
	}
}

// readPassword reads without echo from a terminal, or the next input line
// otherwise.
func (s *Shell) readPassword(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if f, ok := s.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.out)
		return string(raw), err
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return s.in.Text(), nil
}
