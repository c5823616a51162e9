package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/config"
)

var (
	cfg     *config.Config
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "leadbio",
	Short: "Lead biography enrichment",
	Long:  "Searches for a lead's public profile, scrapes it through an async job API, looks up contact details and writes a short bio with an LLM.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use deterministic stub providers instead of live APIs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
