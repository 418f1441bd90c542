// Command portalctl drives the loan portal session from a terminal. The
// session is kept in a TOML file between runs (or the backend selected with
// STORAGE_BACKEND).
//
// Usage:
//
//	portalctl [--api <url>] login  [--role <role>] <email>   log in (prompts for password)
//	portalctl logout                                         clear the stored session
//	portalctl whoami                                         show the current session
//	portalctl register [--first ..] [--last ..] [--phone ..] <email>
//	portalctl profile  [--name ..] [--phone ..] [--email ..]
//	portalctl passwd                                         change password
//	portalctl forgot <email>                                 request a reset link
//	portalctl reset  <token>                                 set a new password
//	portalctl loans  [--status <status>]                     list applications
//	portalctl apply  --type .. --amount .. --term .. --purpose .. [--rate ..] [--collateral ..]
//	portalctl notifications [--unread]                       list notifications
//	portalctl read   <id>                                    mark a notification read
//	portalctl sync                                           fetch once and report status changes
//
// The API base URL can also be set via PORTAL_API_BASE.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
	"github.com/loanportal/portal-client/internal/core/service"
	"github.com/loanportal/portal-client/internal/core/state"
	"github.com/loanportal/portal-client/internal/infrastructure/config"
	"github.com/loanportal/portal-client/internal/infrastructure/kv"
	"github.com/loanportal/portal-client/internal/infrastructure/remote"
	"github.com/loanportal/portal-client/pkg/logger"
)

// app bundles what every subcommand needs.
type app struct {
	session *service.SessionService
	loans   *service.LoanService
	tracker *service.StatusTracker
}

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("portalctl", flag.ExitOnError)
	apiBase := fs.String("api", cfg.Portal.BaseURL, "portal backend base URL")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	args := fs.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Pretty: true, Service: "portalctl"})

	// An in-memory session would be gone before the next command runs.
	if cfg.Storage.Backend == config.StorageMemory {
		cfg.Storage.Backend = config.StorageFile
	}
	cfg.Portal.BaseURL = *apiBase

	ctx := context.Background()
	a, closeFn, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = closeFn() }()

	if err := run(ctx, a, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = closeFn()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, func() error, error) {
	storage, closeFn, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open session storage: %w", err)
	}

	client := remote.New(remote.Config{BaseURL: cfg.Portal.BaseURL, Timeout: cfg.Portal.Timeout}, logger.Component("remote"))
	sessions := service.NewSessionService(
		client,
		service.NewCredentialVault(storage),
		service.NewSessionRecordStore(storage, service.NewMarkerSigner(cfg.MarkerSecret)),
		state.NewStore(),
		logger.Component("session"),
	)
	sessions.Restore(ctx)

	loans := service.NewLoanService(client, sessions, logger.Component("loans"))
	return &app{
		session: sessions,
		loans:   loans,
		tracker: service.NewStatusTracker(loans, sessions, zerolog.Nop()),
	}, closeFn, nil
}

func run(ctx context.Context, a *app, subcmd string, args []string) error {
	switch subcmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("Logged out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "register":
		return a.cmdRegister(ctx, args)
	case "profile":
		return a.cmdProfile(ctx, args)
	case "passwd":
		return a.cmdPasswd(ctx)
	case "forgot":
		return a.cmdForgot(ctx, args)
	case "reset":
		return a.cmdReset(ctx, args)
	case "loans":
		return a.cmdLoans(ctx, args)
	case "apply":
		return a.cmdApply(ctx, args)
	case "notifications":
		return a.cmdNotifications(ctx, args)
	case "read":
		if len(args) != 1 {
			return fmt.Errorf("usage: portalctl read <id>")
		}
		if err := a.loans.MarkNotificationRead(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as read\n", args[0])
		return nil
	case "sync":
		return a.cmdSync(ctx)
	default:
		usage()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	role := fs.String("role", "", "expected role: customer, officer or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: portalctl login [--role <role>] <email>")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	id, err := a.session.Login(ctx, ports.LoginInput{
		Email:        strings.TrimSpace(fs.Arg(0)),
		Password:     password,
		ExpectedRole: *role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", displayName(id), id.Role)
	return nil
}

func (a *app) cmdWhoami() error {
	st := a.session.State()
	if st.Identity == nil {
		fmt.Println("not logged in")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", st.Identity.ID)
	fmt.Fprintf(w, "NAME\t%s\n", st.Identity.Name)
	fmt.Fprintf(w, "EMAIL\t%s\n", st.Identity.Email)
	fmt.Fprintf(w, "ROLE\t%s\n", st.Identity.Role)
	fmt.Fprintf(w, "PHONE\t%s\n", st.Identity.Phone)
	fmt.Fprintf(w, "SINCE\t%s\n", st.Identity.CreatedAt.Format(time.DateOnly))
	return w.Flush()
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *first == "" {
		return fmt.Errorf("usage: portalctl register --first <name> [--last <name>] [--phone <phone>] <email>")
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	id, err := a.session.Register(ctx, ports.RegistrationInput{
		FirstName: *first,
		LastName:  *last,
		Email:     strings.TrimSpace(fs.Arg(0)),
		Password:  password,
		Phone:     *phone,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s; run \"portalctl login %s\" to continue\n", displayName(id), id.Email)
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	current := a.session.State().Identity
	if current == nil {
		return domain.ErrReloginProfile
	}

	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", current.Name, "display name")
	phone := fs.String("phone", current.Phone, "phone number")
	email := fs.String("email", current.Email, "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := a.session.UpdateProfile(ctx, ports.ProfileInput{Email: *email, Name: *name, Phone: *phone})
	if err != nil {
		return err
	}
	fmt.Printf("Updated profile for %s\n", displayName(id))
	return nil
}

func (a *app) cmdPasswd(ctx context.Context) error {
	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := promptNewPassword()
	if err != nil {
		return err
	}

	msg, err := a.session.ChangePassword(ctx, current, next)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdForgot(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: portalctl forgot <email>")
	}
	msg, err := a.session.ForgotPassword(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdReset(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	}
	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	msg, err := a.session.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdLoans(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("loans", flag.ExitOnError)
	status := fs.String("status", "", "only show applications with this status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := ports.ApplicationFilter{Status: *status}
	if id := a.session.State().Identity; id != nil && id.Role == domain.RoleCustomer {
		filter.UserID = id.ID
	}
	apps, err := a.loans.Applications(ctx, filter)
	if err != nil {
		return err
	}
	return printApplications(apps)
}

func (a *app) cmdApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	loanType := fs.String("type", "", "loan type, e.g. PERSONAL or HOME")
	amount := fs.Float64("amount", 0, "loan amount")
	term := fs.Int("term", 0, "term in months")
	purpose := fs.String("purpose", "", "purpose of the loan")
	rate := fs.Float64("rate", 0, "interest rate (default 8.5)")
	collateral := fs.String("collateral", "", "collateral description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *loanType == "" || *amount <= 0 || *term <= 0 || *purpose == "" {
		return fmt.Errorf("usage: portalctl apply --type <type> --amount <n> --term <months> --purpose <text>")
	}

	req := domain.LoanApplicationRequest{
		LoanType:       *loanType,
		LoanAmount:     *amount,
		InterestRate:   *rate,
		LoanTermMonths: *term,
		Purpose:        *purpose,
	}
	if *collateral != "" {
		req.Collateral = collateral
	}

	submitted, err := a.loans.Submit(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted application %s (%s)\n", submitted.ID, submitted.Status)
	return nil
}

func (a *app) cmdNotifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	unread := fs.Bool("unread", false, "only show unread notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := ports.NotificationFilter{}
	if id := a.session.State().Identity; id != nil {
		filter.UserID = id.ID
	}
	if *unread {
		f := false
		filter.Read = &f
	}

	notes, err := a.loans.Notifications(ctx, filter)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("no notifications")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREAD\tTYPE\tMESSAGE")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", n.ID, n.Read, n.Type, n.Message)
	}
	return w.Flush()
}

// cmdSync runs one status sync and prints the result.
func (a *app) cmdSync(ctx context.Context) error {
	if err := a.tracker.Sync(ctx); err != nil {
		return err
	}
	snap := a.tracker.Snapshot()
	if snap.SyncedAt.IsZero() {
		fmt.Println("not logged in; nothing to sync")
		return nil
	}
	if err := printApplications(snap.Applications); err != nil {
		return err
	}

	unread := 0
	for _, n := range snap.Notifications {
		if !n.Read {
			unread++
		}
	}
	fmt.Printf("\n%d unread notification(s), synced at %s\n", unread, snap.SyncedAt.Format(time.Kitchen))
	return nil
}

func printApplications(apps []domain.LoanApplication) error {
	if len(apps) == 0 {
		fmt.Println("no applications")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tTERM\tRATE\tSTATUS")
	for _, ap := range apps {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%.2f\t%s\n", ap.ID, ap.LoanType, ap.LoanAmount, ap.LoanTermMonths, ap.InterestRate, ap.Status)
	}
	return w.Flush()
}

func displayName(id *domain.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.Email
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func promptNewPassword() (string, error) {
	password, err := promptPassword("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  portalctl [--api <url>] [-v] <command> [args]

Commands:
  login [--role <role>] <email>          log in (prompts for password)
  logout                                 clear the stored session
  whoami                                 show the current session
  register --first <name> [--last <name>] [--phone <phone>] <email>
  profile [--name ..] [--phone ..] [--email ..]
  passwd                                 change password
  forgot <email>                         request a reset link
  reset <token>                          set a new password
  loans [--status <status>]              list applications
  apply --type .. --amount .. --term .. --purpose .. [--rate ..] [--collateral ..]
  notifications [--unread]               list notifications
  read <id>                              mark a notification read
  sync                                   fetch applications and notifications

The API base URL can also be set via PORTAL_API_BASE.
`)
}
