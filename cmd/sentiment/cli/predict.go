package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/sentiment"
)

func NewPredictCmd() *cobra.Command {
	bundleDir := "artifacts"
	cmd := &cobra.Command{
		Use:   "predict [text]...",
		Short: "classify texts against a local bundle",
		Example: `
  sentiment predict "what a great day"
  sentiment predict --bundle artifacts "meh" "this is awful"
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if len(args) == 0 {
				return errors.New("at least one text is required")
			}
			predictor := sentiment.NewPredictor(cliLogger())
			if err := predictor.LoadBundle(bundleDir); err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"SENTIMENT", "CONFIDENCE", "TEXT"})
			for _, text := range args {
				pred, err := predictor.Predict(ctx, text)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{pred.Sentiment.String(), fmtMetric(pred.Confidence), pred.Text})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&bundleDir, "bundle", bundleDir, "artifact bundle directory")
	return cmd
}
