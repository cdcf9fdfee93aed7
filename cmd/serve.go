package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizmind/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the session sweeper and the live leaderboard stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.LogMode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		a, err := app.New(cmd.Context(), cfg, dbPath, log, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(cmd.Context())
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Abandon active sessions idle longer than the inactivity window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			n, err := a.Service.SweepAbandoned(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Abandoned %d idle session(s).\n", n)
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides QUIZMIND_HTTP_ADDR)")
}
