package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/pkg/logging"
)

var (
	configPath  string
	catalogPath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "prodrec",
	Short:         "Content-based product recommendations",
	Long:          `Fit a feature space over a product catalog and serve "similar products" queries by cosine similarity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $PRODREC_CONFIG or ./prodrec.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog CSV, overrides catalog.path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level")

	rootCmd.AddCommand(buildCmd, recommendCmd, productsCmd, serveCmd)
}

// loadConfig 读取 .env 与配置文件，并应用命令行覆盖项。
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.Init(cfg.Log)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("prodrec failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
