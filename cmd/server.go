package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/audit"
	"github.com/ziadkadry99/knoweval/internal/config"
	"github.com/ziadkadry99/knoweval/internal/dashboard"
	"github.com/ziadkadry99/knoweval/internal/server"
	"github.com/ziadkadry99/knoweval/internal/session"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the browser dashboard",
	Long:  `Starts the knoweval dashboard: edit notes, run evaluations with live progress, and browse the evaluation history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: a.cfg.Server.AllowAllOrigins,
		}, a.db, a.log)

		registerAllRoutes(srv, a)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "knoweval dashboard %s on http://localhost:%d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Knowledge: %s\n", a.cfg.KnowledgeDir)
		fmt.Fprintf(os.Stderr, "  Model:     %s (%s)\n", a.cfg.Model, a.cfg.Provider)
		fmt.Fprintf(os.Stderr, "  Database:  %s\n", a.db.Path())

		return srv.Run(ctx)
	},
}

// registerAllRoutes wires the dashboard and the activity API.
func registerAllRoutes(srv *server.Server, a *app) {
	r := srv.Router()

	audit.RegisterRoutes(r, a.audit)

	sessions := session.NewManager(a.deps(audit.SourceDashboard))
	dash := dashboard.New(dashboard.Options{
		Sessions:     sessions,
		Store:        a.store,
		Provider:     a.cfg.Provider,
		Models:       config.Models(a.cfg.Provider),
		DefaultModel: a.cfg.Model,
		IdleTimeout:  time.Duration(a.cfg.Server.SessionIdleMinutes) * time.Minute,
		Logger:       a.log,
	})
	dash.RegisterRoutes(r)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8501, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
