// Package cli implements the mathservice command line client. It talks to
// the platform services over HTTP and prints the JSON responses.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathservice-vn/platform/app/internal/logger"
	"github.com/mathservice-vn/platform/app/internal/version"
)

var (
	solverURL string
	adminURL  string
	token     string
	logLevel  string

	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "mathservice",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Math platform CLI client",
	Long:              `mathservice is a client for the math education platform: solve problems, validate expressions and check platform status from the terminal`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		appLogger = logger.InitLogger(logger.ParseLogLevel(logLevel), "dev")
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&solverURL, "solver-url", envOr("SOLVER_SERVICE_URL", "http://localhost:8084"), "math solver service base URL")
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", envOr("ADMIN_SERVICE_URL", "http://localhost:8085"), "admin service base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MATHSERVICE_TOKEN"), "bearer access token (or MATHSERVICE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
