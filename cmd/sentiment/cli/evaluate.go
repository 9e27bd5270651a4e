package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/sentiment"
	"sentiment-analysis-service/internal/tracking"
)

func NewEvaluateCmd() *cobra.Command {
	bundleDir := "artifacts"
	dataPath := "data/processed/test.csv"
	outputPath := ""
	runID := ""
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "score a trained bundle against a labelled dataset",
		Example: `
  sentiment evaluate --bundle artifacts --data data/processed/test.csv
  sentiment evaluate --output report.json --run-id 0f8d71c2aa804f6f
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			ds, err := dataset.Load(dataPath)
			if err != nil {
				return err
			}
			predictor := sentiment.NewPredictor(cliLogger())
			if err := predictor.LoadBundle(bundleDir); err != nil {
				return err
			}
			report, err := sentiment.EvaluateDataset(ctx, predictor, ds)
			if err != nil {
				return err
			}
			renderReport(os.Stdout, report)

			if outputPath != "" {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("report written to %s\n", outputPath)
			}
			if runID == "" {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Tracking.Enabled() {
				return fmt.Errorf("--run-id requires MLFLOW_TRACKING_URI to be set")
			}
			client, err := tracking.NewClient(cfg.Tracking, cliLogger())
			if err != nil {
				return err
			}
			if err := client.LogMetrics(ctx, runID, report.Flatten(), 0); err != nil {
				return err
			}
			fmt.Printf("metrics logged to run %s\n", runID)
			return nil
		},
	}
	cmd.Flags().StringVar(&bundleDir, "bundle", bundleDir, "artifact bundle directory")
	cmd.Flags().StringVar(&dataPath, "data", dataPath, "labelled CSV to score against")
	cmd.Flags().StringVar(&outputPath, "output", outputPath, "write the full report as JSON to this path")
	cmd.Flags().StringVar(&runID, "run-id", runID, "also log the metrics to this MLflow run")
	return cmd
}
