// Package cli implements the sentiment command line: the offline stages of
// the pipeline (dataset preparation, training, evaluation, registration,
// deployment) plus a local one-off predict for smoke testing bundles.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func NewSentimentCmd() *cobra.Command {
	verbose := false
	cmd := &cobra.Command{
		Use:          "sentiment",
		Short:        "tweet sentiment analysis pipeline",
		Long:         "Train, evaluate, register and deploy the tweet sentiment model, and run local predictions against a trained bundle.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logrus.StandardLogger()
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			} else {
				logger.SetLevel(logrus.WarnLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "enable debug logging")
	cmd.AddCommand(
		NewDatasetCmd(),
		NewTrainCmd(),
		NewEvaluateCmd(),
		NewRegisterCmd(),
		NewDeployCmd(),
		NewPredictCmd(),
	)
	return cmd
}

func cliLogger() *logrus.Logger {
	return logrus.StandardLogger()
}
