package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadbio-cli/internal/model"
)

var (
	leadFirst   string
	leadLast    string
	leadCompany string
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Generate a bio for a single lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "lead")
		if err != nil {
			return err
		}

		result := env.Pipeline.Run(ctx, model.Lead{
			FirstName: leadFirst,
			LastName:  leadLast,
			Company:   leadCompany,
		})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "lead: encode result")
		}
		if result.Failed() {
			return eris.Errorf("lead: %s", result.Error)
		}
		return nil
	},
}

func init() {
	leadCmd.Flags().StringVar(&leadFirst, "first", "", "lead first name")
	leadCmd.Flags().StringVar(&leadLast, "last", "", "lead last name")
	leadCmd.Flags().StringVar(&leadCompany, "company", "", "lead company")
	_ = leadCmd.MarkFlagRequired("first")
	_ = leadCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(leadCmd)
}
