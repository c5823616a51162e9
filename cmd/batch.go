package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadbio-cli/internal/batch"
)

var (
	batchFile   string
	batchOutput string
	batchFormat string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate bios for every lead in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchFormat != "json" && batchFormat != "yaml" {
			return eris.Errorf("batch: unsupported format %q (want json or yaml)", batchFormat)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}

		rows, err := batch.ReadFile(batchFile)
		if err != nil {
			return err
		}

		res, err := env.Processor.Run(ctx, rows)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := writeBatchResult(w, res, batchFormat); err != nil {
			return err
		}
		if batchOutput != "" {
			zap.L().Info("batch results written", zap.String("path", batchOutput))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "input file (.csv or .xlsx)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results to this path instead of stdout")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "output format: json or yaml")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// writeBatchResult encodes res as JSON or YAML.
func writeBatchResult(w io.Writer, res *batch.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "batch: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "batch: encode yaml")
		}
		return eris.Wrap(enc.Close(), "batch: encode yaml")
	default:
		return eris.Errorf("batch: unsupported format %q", format)
	}
}
