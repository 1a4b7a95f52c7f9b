package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/reporter/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	Long: `Serve exposes report generation as an HTTP API:
  POST /api/report      {"language", "format", "data", "links"}
  GET  /api/languages
  GET  /health

Example:
  reporter serve --addr :8080
  REPORTER_SERVER_REQUESTS_PER_SECOND=20 reporter serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Uint64("seed", 0, "PRNG seed (0 picks a random one)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = viper.BindPFlag("generation.seed", cmd.Flags().Lookup("seed"))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Serving languages %v on %s (seed %d)\n", a.service.Languages(), a.cfg.Server.Addr, a.service.Seed())
	return server.New(a.cfg.Server, a.service, a.log).ListenAndServe(ctx)
}
