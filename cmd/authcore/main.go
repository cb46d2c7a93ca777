// Command authcore runs operator tasks against the configured account store.
//
//	authcore check
//	authcore migrate
//	authcore unlock -token <token>
//	authcore verify-email -token <token>
//	authcore audit -email <address> [-limit n]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/securekey/authcore/pkg/app"
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/auth"
	"github.com/securekey/authcore/pkg/config"
	"github.com/securekey/authcore/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "authcore:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: authcore [-env file] <command> [flags]

commands:
  check                    load config and ping every dependency
  migrate                  apply database migrations
  unlock -token T          redeem an account unlock token
  verify-email -token T    redeem an email verification token
  audit -email E [-limit N] print recent security events for an account`)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("authcore", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	envFile := global.String("env", "", "load variables from this .env file")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		return errUsage
	}

	var cfgOpts []config.Option
	if *envFile != "" {
		cfgOpts = append(cfgOpts, config.WithEnvFiles(*envFile))
	}
	cfg, err := config.Initialize(cfgOpts...)
	if err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Log, cfg.AppEnv, cfg.ServiceName)
	logger.SetAsDefault(log)

	cmd, rest := global.Arg(0), global.Args()[1:]
	ctx = logger.ContextWith(ctx, slog.String("command", cmd))
	switch cmd {
	case "check", "healthcheck":
	case "migrate":
		if cfg.Store != config.StorePostgres {
			return fmt.Errorf("migrate: STORE_DRIVER=%s has no migrations", cfg.Store)
		}
		cfg.Postgres.AutoMigrate = true
	case "unlock", "verify-email", "audit":
	default:
		return errUsage
	}

	a, err := app.New(ctx, cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	switch cmd {
	case "check", "healthcheck":
		if err := a.Healthcheck(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
	case "migrate":
		fmt.Fprintln(out, "migrations applied")
	case "unlock":
		token, err := tokenFlag(cmd, rest)
		if err != nil {
			return err
		}
		res, err := a.Auth.UnlockAccount(ctx, token)
		if err != nil {
			return errors.New(auth.UserMessage(err))
		}
		if res.AlreadyUnlocked {
			fmt.Fprintf(out, "%s is already unlocked\n", res.Email)
			return nil
		}
		fmt.Fprintf(out, "%s unlocked\n", res.Email)
	case "verify-email":
		token, err := tokenFlag(cmd, rest)
		if err != nil {
			return err
		}
		if err := a.Auth.VerifyEmail(ctx, token); err != nil {
			return errors.New(auth.UserMessage(err))
		}
		fmt.Fprintln(out, "email verified")
	case "audit":
		return printAudit(ctx, a, rest, out)
	}
	return nil
}

func printAudit(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("email", "", "account email")
	limit := fs.Int("limit", 20, "maximum number of events")
	if err := fs.Parse(args); err != nil || *addr == "" {
		return errUsage
	}
	if a.Audit == nil {
		return errors.New("audit: AUDIT_ENABLED is false")
	}

	acc, err := a.Store.FindByEmail(ctx, *addr)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	events, err := a.Audit.Query(ctx, audit.Criteria{AccountID: acc.ID, Limit: *limit})
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tRESULT\tREASON")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.Action, e.Result, e.Reason)
	}
	return tw.Flush()
}

func tokenFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("token", "", "token from the email link")
	if err := fs.Parse(args); err != nil || *token == "" {
		return "", errUsage
	}
	return *token, nil
}
