package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/features"
	"sentiment-analysis-service/internal/sentiment"
	"sentiment-analysis-service/internal/tracking"
)

func NewTrainCmd() *cobra.Command {
	trainPath := "data/processed/train.csv"
	testPath := "data/processed/test.csv"
	outDir := "artifacts"
	params := sentiment.DefaultTrainParams()
	vecOpts := features.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "fit the TF-IDF + LightGBM pipeline and write the artifact bundle",
		Long: "Fits the vectorizer and classifier on the train split, scores the " +
			"serialized artifacts on the test split, and seals everything into a " +
			"bundle. When MLFLOW_TRACKING_URI is set the run, its parameters, " +
			"metrics and artifacts are logged to the tracking server.",
		Example: `
  sentiment train --train data/processed/train.csv --test data/processed/test.csv
  sentiment train --out artifacts --iterations 300 --learning-rate 0.05
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			trainDS, err := dataset.Load(trainPath)
			if err != nil {
				return fmt.Errorf("load train split: %w", err)
			}
			testDS, err := dataset.Load(testPath)
			if err != nil {
				return fmt.Errorf("load test split: %w", err)
			}

			trainer := sentiment.NewTrainer(params, vecOpts, cliLogger())
			result, err := trainer.Train(trainDS)
			if err != nil {
				return err
			}
			if err := result.Save(outDir); err != nil {
				return err
			}

			report, err := sentiment.EvaluateArtifacts(ctx, outDir, testDS)
			if err != nil {
				return err
			}

			manifest := domain.BundleManifest{
				ModelVersion:       "v" + time.Now().UTC().Format("20060102-150405"),
				TrainedAt:          time.Now().UTC(),
				DatasetFingerprint: trainDS.Fingerprint(),
				TrainRows:          len(trainDS.Rows),
				TestRows:           len(testDS.Rows),
				Params:             params.Map(),
			}
			if err := sentiment.WriteBundle(outDir, manifest, report); err != nil {
				return err
			}

			renderReport(os.Stdout, report)
			fmt.Printf("bundle %s written to %s\n", manifest.ModelVersion, outDir)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Tracking.Enabled() {
				fmt.Println("MLFLOW_TRACKING_URI not set, skipping run tracking")
				return nil
			}
			return logTrainingRun(ctx, cfg.Tracking, manifest, report, outDir)
		},
	}
	cmd.Flags().StringVar(&trainPath, "train", trainPath, "labelled CSV to fit on")
	cmd.Flags().StringVar(&testPath, "test", testPath, "labelled CSV to score the artifacts on")
	cmd.Flags().StringVar(&outDir, "out", outDir, "directory for the artifact bundle")
	cmd.Flags().IntVar(&params.NumIterations, "iterations", params.NumIterations, "boosting rounds")
	cmd.Flags().IntVar(&params.NumLeaves, "leaves", params.NumLeaves, "max leaves per tree")
	cmd.Flags().Float64Var(&params.LearningRate, "learning-rate", params.LearningRate, "boosting learning rate")
	cmd.Flags().IntVar(&params.MaxDepth, "max-depth", params.MaxDepth, "max tree depth, -1 for unlimited")
	cmd.Flags().IntVar(&params.MinDataInLeaf, "min-data-in-leaf", params.MinDataInLeaf, "min samples per leaf")
	cmd.Flags().Int64Var(&params.Seed, "seed", params.Seed, "training seed")
	cmd.Flags().IntVar(&vecOpts.MaxFeatures, "max-features", vecOpts.MaxFeatures, "vocabulary size cap, 0 for unlimited")
	cmd.Flags().IntVar(&vecOpts.MinDocFreq, "min-df", vecOpts.MinDocFreq, "min document frequency for vocabulary terms")
	return cmd
}

// logTrainingRun records params, metrics and the bundle artifacts under a new
// MLflow run. A failure after run creation marks the run FAILED so the
// tracking UI never shows a half-logged run as finished.
func logTrainingRun(ctx context.Context, cfg config.TrackingConfig, manifest domain.BundleManifest, report domain.EvaluationReport, dir string) error {
	client, err := tracking.NewClient(cfg, cliLogger())
	if err != nil {
		return err
	}
	expID, err := client.ExperimentID(ctx, cfg.Experiment)
	if err != nil {
		return err
	}
	run, err := client.CreateRun(ctx, expID, manifest.ModelVersion, map[string]string{
		"model_version":       manifest.ModelVersion,
		"dataset_fingerprint": manifest.DatasetFingerprint,
	})
	if err != nil {
		return err
	}
	fail := func(cause error) error {
		if endErr := client.EndRun(ctx, run.ID, false); endErr != nil {
			cliLogger().WithError(endErr).Warn("could not mark run as failed")
		}
		return cause
	}

	if err := client.LogParams(ctx, run.ID, manifest.Params); err != nil {
		return fail(err)
	}
	if err := client.LogMetrics(ctx, run.ID, report.Flatten(), 0); err != nil {
		return fail(err)
	}
	root, err := client.UploadBundle(ctx, run, dir)
	if err != nil {
		return fail(err)
	}
	if err := client.EndRun(ctx, run.ID, true); err != nil {
		return err
	}
	fmt.Printf("logged run %s, artifacts at %s\n", run.ID, root)
	return nil
}
