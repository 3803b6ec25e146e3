// Command crm is a service-inventory tracker for a domain/hosting
// reseller: clients, provisioned assets, renewal dates and upcoming
// expirations, stored as one JSON document per user.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/creasion/crm/internal/config"
	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/identity"
	"github.com/creasion/crm/internal/identity/gotrue"
	"github.com/creasion/crm/internal/identity/localauth"
	"github.com/creasion/crm/internal/inventory"
	"github.com/creasion/crm/internal/limiter"
	"github.com/creasion/crm/internal/migrate"
	"github.com/creasion/crm/internal/mirror"
	"github.com/creasion/crm/internal/repository/postgres"
	"github.com/creasion/crm/internal/syncer"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `crm - service inventory tracker
Usage:
  crm [-env file] <cmd> [args]

Commands:
  version
  setup                                      (apply store migrations)
  print-setup-sql                            (DDL for manual setup)
  register   -u <email> -p <password>
  verify     -token <challenge>              (built-in auth only)
  login      -u <email> -p <password>
  logout
  status
  list       [-q <query>]
  alerts
  save-service    (see -h for fields)
  rm-service      -id <id>
  save-plan       (see -h for fields)
  rm-plan         -id <id>
  save-credential (see -h for fields)
  rm-credential   -id <id>
  export     [-out file]
  import     -file <backup.json>
`)
	os.Exit(2)
}

// app holds the wired dependencies a command may need.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	pool  *pgxpool.Pool
	db    *postgres.DB
	gate  *identity.Gate
	local *localauth.Provider
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.DatabaseDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to store: %w", err)
		}
		a.pool = pool
		a.db = &postgres.DB{Pool: pool}
	}

	switch {
	case cfg.UsesGoTrue():
		p := gotrue.New(gotrue.Config{
			URL:       cfg.AuthURL,
			AnonKey:   cfg.AuthAnonKey,
			TokenPath: cfg.TokenPath,
		})
		a.gate = identity.NewGate(p, cfg.ApprovedEmail, log)
	case a.db != nil:
		lim := limiter.NewPG(a.pool, cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlock)
		a.local = localauth.New(postgres.NewUserRepo(a.db), lim,
			[]byte(cfg.SigningKey), cfg.AccessTTL, cfg.TokenPath)
		a.gate = identity.NewGate(a.local, cfg.ApprovedEmail, log)
	}
	// with neither an auth endpoint nor a store, the tool runs
	// local-only and ungated

	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// openController restores the session (when an auth backend exists),
// opens the mirror and loads the working document.
func (a *app) openController(ctx context.Context) (*syncer.Controller, *mirror.SQLite, error) {
	userID := uuid.Nil
	if a.gate != nil {
		s, err := a.gate.Restore(ctx)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, nil, errors.New("not signed in (run 'crm login')")
			}
			return nil, nil, err
		}
		userID = s.UserID
	}

	mir, err := mirror.OpenSQLite(ctx, a.cfg.MirrorPath)
	if err != nil {
		return nil, nil, err
	}

	var store *postgres.StateRepo
	c := syncer.New(nil, mir, userID, a.log)
	if a.db != nil {
		store = postgres.NewStateRepo(a.db)
		c = syncer.New(store, mir, userID, a.log)
	}
	if _, err := c.Load(ctx); err != nil {
		mir.Close()
		return nil, nil, err
	}
	return c, mir, nil
}

func (a *app) openManager(ctx context.Context) (*inventory.Manager, *syncer.Controller, *mirror.SQLite, error) {
	c, mir, err := a.openController(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return inventory.NewManager(c), c, mir, nil
}

// finish drains outstanding pushes and reports a degraded store.
func finish(c *syncer.Controller, mir *mirror.SQLite) {
	c.Wait()
	defer mir.Close()

	st := c.State()
	switch {
	case st.SetupRequired:
		fmt.Fprintln(os.Stderr, "warning: store schema missing; saved locally only (run 'crm setup' or 'crm print-setup-sql')")
	case st.Status == syncer.StatusError:
		fmt.Fprintln(os.Stderr, "warning: store unreachable; saved locally only")
	}
}

func main() {
	envFile := flag.String("env", "", ".env file to load")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "version":
		fmt.Printf("crm %s (%s)\n", version, buildDate)
		return
	case "print-setup-sql":
		fmt.Println(postgres.SetupSQL)
		return
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer a.Close()

	switch cmd {
	case "setup":
		if cfg.DatabaseDSN == "" {
			fail(errors.New("no store configured (CRM_DATABASE_DSN)"))
		}
		if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
			fail(err)
		}
		fmt.Println("store schema is up to date")

	case "register":
		cmdRegister(ctx, a, args)
	case "verify":
		cmdVerify(ctx, a, args)
	case "login":
		cmdLogin(ctx, a, args)
	case "logout":
		cmdLogout(ctx, a)
	case "status":
		cmdStatus(ctx, a)

	case "list":
		cmdList(ctx, a, args)
	case "alerts":
		cmdAlerts(ctx, a)
	case "save-service":
		cmdSaveService(ctx, a, args)
	case "rm-service":
		cmdRemoveByID(ctx, a, args, "service")
	case "save-plan":
		cmdSavePlan(ctx, a, args)
	case "rm-plan":
		cmdRemoveByID(ctx, a, args, "plan")
	case "save-credential":
		cmdSaveCredential(ctx, a, args)
	case "rm-credential":
		cmdRemoveByID(ctx, a, args, "credential")
	case "export":
		cmdExport(ctx, a, args)
	case "import":
		cmdImport(ctx, a, args)

	default:
		usage()
	}
}

func cmdRegister(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	u := fs.String("u", "", "email")
	p := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *u == "" || *p == "" {
		fail(errors.New("need -u and -p"))
	}
	requireGate(a)

	res, err := a.gate.SignUp(ctx, *u, *p)
	if err != nil {
		fail(err)
	}
	switch {
	case res.Challenge != "":
		fmt.Printf("verification required; run: crm verify -token %s\n", res.Challenge)
	case res.Session != nil:
		fmt.Println("registered and signed in")
	default:
		fmt.Println("registered; confirm via the email sent to you, then log in")
	}
}

func cmdVerify(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	token := fs.String("token", "", "verification challenge")
	_ = fs.Parse(args)
	if *token == "" {
		fail(errors.New("need -token"))
	}
	if a.local == nil {
		fail(errors.New("verify applies to the built-in auth provider only"))
	}
	if err := a.local.Verify(ctx, *token); err != nil {
		fail(err)
	}
	fmt.Println("verified; you can log in now")
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	u := fs.String("u", "", "email")
	p := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *u == "" || *p == "" {
		fail(errors.New("need -u and -p"))
	}
	requireGate(a)

	s, err := a.gate.SignIn(ctx, *u, *p)
	if err != nil {
		fail(err)
	}
	fmt.Printf("signed in as %s (session until %s)\n", s.Email, s.ExpiresAt.Local().Format(time.RFC822))
}

func cmdLogout(ctx context.Context, a *app) {
	requireGate(a)
	if err := a.gate.SignOut(ctx); err != nil {
		fail(err)
	}
	fmt.Println("signed out")
}

func cmdStatus(ctx context.Context, a *app) {
	if a.gate != nil {
		s, err := a.gate.Restore(ctx)
		if err != nil {
			fmt.Println("auth:  not signed in")
			return
		}
		fmt.Printf("auth:  %s\n", s.Email)
	} else {
		fmt.Println("auth:  local-only (no auth backend configured)")
	}

	c, mir, err := a.openController(ctx)
	if err != nil {
		fail(err)
	}
	defer mir.Close()

	st := c.State()
	fmt.Printf("store: %s\n", st.Status)
	if st.SetupRequired {
		fmt.Println("       schema missing: run 'crm setup', or apply 'crm print-setup-sql' manually")
	}

	d := c.Current()
	fmt.Printf("data:  %d clients, %d services, %d plans, %d credentials\n",
		len(d.Clients), len(d.Services), len(d.HostingPlans), len(d.Credentials))
}

func requireGate(a *app) {
	if a.gate == nil {
		fail(errors.New("no auth backend configured (set CRM_AUTH_URL or CRM_DATABASE_DSN)"))
	}
}

func fail(err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorizedIdentity):
		fmt.Fprintln(os.Stderr, "error: this identity is not approved for this installation")
	case errors.Is(err, errs.ErrVerificationRequired):
		fmt.Fprintln(os.Stderr, "error: account not verified yet (run 'crm verify')")
	case errors.Is(err, errs.ErrRateLimited):
		fmt.Fprintln(os.Stderr, "error: too many attempts, try again later")
	case errors.Is(err, errs.ErrSchemaMissing):
		fmt.Fprintln(os.Stderr, "error: store schema missing, run 'crm setup' or apply 'crm print-setup-sql'")
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}
