package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/sentiment"
	"sentiment-analysis-service/internal/tracking"
)

func NewRegisterCmd() *cobra.Command {
	bundleDir := "artifacts"
	name := "tweet-sentiment"
	stage := ""
	runID := ""
	archiveExisting := false
	cmd := &cobra.Command{
		Use:   "register",
		Short: "publish a bundle as a registered model version",
		Long: "Uploads the bundle artifacts under an MLflow run and creates a model " +
			"version in the registry pointing at them. With --run-id the artifacts " +
			"already logged by train are reused instead of re-uploading.",
		Example: `
  sentiment register --bundle artifacts --name tweet-sentiment
  sentiment register --run-id 0f8d71c2aa804f6f --stage Production --archive-existing
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Tracking.Enabled() {
				return fmt.Errorf("register requires MLFLOW_TRACKING_URI to be set")
			}
			client, err := tracking.NewClient(cfg.Tracking, cliLogger())
			if err != nil {
				return err
			}

			var source string
			if runID != "" {
				run, err := client.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				source = tracking.BundleRoot(run)
			} else {
				manifest, err := sentiment.ReadBundle(bundleDir)
				if err != nil {
					return err
				}
				expID, err := client.ExperimentID(ctx, cfg.Tracking.Experiment)
				if err != nil {
					return err
				}
				run, err := client.CreateRun(ctx, expID, manifest.ModelVersion, map[string]string{
					"model_version": manifest.ModelVersion,
				})
				if err != nil {
					return err
				}
				if _, err := client.UploadBundle(ctx, run, bundleDir); err != nil {
					if endErr := client.EndRun(ctx, run.ID, false); endErr != nil {
						cliLogger().WithError(endErr).Warn("could not mark run as failed")
					}
					return err
				}
				if err := client.EndRun(ctx, run.ID, true); err != nil {
					return err
				}
				source = tracking.BundleRoot(run)
				runID = run.ID
			}

			mv, err := client.RegisterModel(ctx, name, source, runID)
			if err != nil {
				return err
			}
			if stage != "" {
				mv, err = client.TransitionStage(ctx, name, mv.Version, stage, archiveExisting)
				if err != nil {
					return err
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"NAME", "VERSION", "STAGE", "RUN", "SOURCE"})
			t.AppendRow(table.Row{mv.Name, mv.Version, mv.Stage, mv.RunID, mv.Source})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&bundleDir, "bundle", bundleDir, "artifact bundle directory to upload")
	cmd.Flags().StringVar(&name, "name", name, "registered model name")
	cmd.Flags().StringVar(&stage, "stage", stage, "transition the new version to this stage (Staging, Production)")
	cmd.Flags().StringVar(&runID, "run-id", runID, "reuse the bundle already uploaded by this run")
	cmd.Flags().BoolVar(&archiveExisting, "archive-existing", archiveExisting, "archive versions already in the target stage")
	return cmd
}
