package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/salihate/backoffice/customers"
	"github.com/salihate/backoffice/dashboard"
	"github.com/salihate/backoffice/internal/config"
	"github.com/salihate/backoffice/internal/utils"
	"github.com/salihate/backoffice/salaries"
	"github.com/salihate/backoffice/session"
	"github.com/salihate/backoffice/session/storage/filestore"
	"github.com/salihate/backoffice/stock"
	"github.com/salihate/backoffice/transport"
	"github.com/salihate/backoffice/users"
	"github.com/salihate/backoffice/workers"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("salihate")
	}
}

// app is the wired client: one session store, one transport, one thin
// client per resource.
type app struct {
	session   *session.Store
	users     *users.Client
	workers   *workers.Client
	salaries  *salaries.Client
	stock     *stock.Client
	customers *customers.Client
	dashboard *dashboard.Client
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load(os.Getenv("SALIHATE_CONFIG"))
	if err != nil {
		return err
	}
	displayAppName(cfg.AppName)

	application, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !application.session.IsAuthenticated() {
		if err := promptLogin(ctx, application.session); err != nil {
			return err
		}
	}
	ident, _ := application.session.CurrentIdentity()
	log.Info().Str("user", ident.FullName()).Str("role", string(ident.Role)).Msg("signed in")

	if err := showOverview(ctx, application.dashboard); err != nil {
		log.Warn().Err(err).Msg("dashboard unavailable")
	}

	poller := dashboard.NewPoller(application.dashboard, func(notifications []dashboard.Notification) {
		unread := 0
		for _, n := range notifications {
			if !n.IsRead {
				unread++
			}
		}
		if unread > 0 {
			log.Info().Int("unread", unread).Msg("notifications")
		}
	}, dashboard.WithPollerLogger(log.Logger))
	go poller.Run(ctx)

	<-ctx.Done()
	log.Info().Msg("bye")
	return nil
}

func buildApp(cfg *config.Config) (*app, error) {
	store, err := filestore.New(cfg.State.SessionFile, filestore.WithPassphrase(cfg.State.SessionPassphrase))
	if err != nil {
		return nil, err
	}

	api, err := transport.New(cfg.API.BaseURL, store,
		transport.WithNavigator(func() {
			log.Warn().Msg("session expired, please sign in again")
		}),
		transport.WithLogger(log.Logger),
	)
	if err != nil {
		return nil, err
	}

	sess, err := session.New(store, api, session.WithLogger(log.Logger))
	if err != nil {
		return nil, err
	}

	return &app{
		session:   sess,
		users:     users.New(api),
		workers:   workers.New(api),
		salaries:  salaries.New(api, salaries.WithDownloadDir(cfg.State.DownloadDir)),
		stock:     stock.New(api),
		customers: customers.New(api, customers.WithDownloadDir(cfg.State.DownloadDir)),
		dashboard: dashboard.New(api),
	}, nil
}

func promptLogin(ctx context.Context, sess *session.Store) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return errors.Wrap(err, "read email")
	}
	fmt.Print("password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return errors.Wrap(err, "read password")
	}

	_, err = sess.Login(ctx, session.Credentials{
		Identifier: strings.TrimSpace(email),
		Secret:     strings.TrimSpace(password),
	})
	if errors.Is(err, session.ErrInvalidCredentials) {
		return errors.Wrap(err, "login refused")
	}
	return err
}

func showOverview(ctx context.Context, client *dashboard.Client) error {
	now := time.Now()
	overview, err := client.Overview(ctx, int(now.Month()), now.Year(), 10)
	if err != nil {
		return err
	}

	fmt.Printf("\nWorkers: %d (%d active)\n", overview.Stats.Workers.Total, overview.Stats.Workers.Actifs)
	fmt.Printf("Payroll: %.0f total, %.0f paid, %.0f pending\n",
		overview.Stats.Salaries.Total, overview.Stats.Salaries.Paye, overview.Stats.Salaries.EnAttente)
	fmt.Printf("Stock:   %d products, %d alerts, %d out of stock\n",
		overview.Stats.Stock.TotalProducts, overview.Stats.Stock.Alertes, overview.Stats.Stock.Ruptures)
	clientStats := utils.Value(overview.Stats.Clients)
	if clientStats.Total > 0 {
		fmt.Printf("Clients: %d contracts (%d ongoing), %.0f due\n",
			clientStats.Total, clientStats.EnCours, clientStats.TotalDu)
	}
	for _, activity := range overview.Activities {
		fmt.Printf("  - %s: %s\n", activity.Title, activity.Description)
	}
	fmt.Println()
	return nil
}

func displayAppName(appName string) {
	banner := figure.NewFigure(appName, "cybermedium", true)
	banner.Print()
	fmt.Println()
}
