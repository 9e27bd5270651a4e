package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/deploy"
	"sentiment-analysis-service/internal/tracking"
)

func NewDeployCmd() *cobra.Command {
	name := "tweet-sentiment"
	modelURI := "models:/tweet-sentiment/Production"
	labels := map[string]string{}
	remove := false
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "create or refresh the KServe InferenceService for a model",
		Long: "Resolves the model URI to its artifact storage location and points a " +
			"KServe InferenceService at it. Requires KSERVE_ENABLED=true and a " +
			"reachable cluster.",
		Example: `
  sentiment deploy --name tweet-sentiment --model-uri models:/tweet-sentiment/Production
  sentiment deploy --model-uri s3://bucket/experiments/42/run/artifacts/bundle
  sentiment deploy --name tweet-sentiment --remove
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Deploy.Enabled {
				return fmt.Errorf("deploy requires KSERVE_ENABLED=true")
			}
			client, err := deploy.New(cfg.Deploy, cliLogger())
			if err != nil {
				return err
			}

			if remove {
				if err := client.Remove(ctx, name); err != nil {
					return err
				}
				fmt.Printf("inference service %s removed\n", name)
				return nil
			}

			storageURI := modelURI
			if strings.HasPrefix(modelURI, "models:/") || strings.HasPrefix(modelURI, "runs:/") {
				if !cfg.Tracking.Enabled() {
					return fmt.Errorf("resolving %q requires MLFLOW_TRACKING_URI to be set", modelURI)
				}
				tc, err := tracking.NewClient(cfg.Tracking, cliLogger())
				if err != nil {
					return err
				}
				storageURI, err = tc.ResolveArtifactRoot(ctx, modelURI)
				if err != nil {
					return err
				}
			}

			uid, err := client.Apply(ctx, name, storageURI, labels)
			if err != nil {
				return err
			}
			status, err := client.Status(ctx, name)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"NAME", "UID", "READY", "URL", "REASON"})
			t.AppendRow(table.Row{name, uid, status.Ready, status.URL, status.Reason})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", name, "inference service name")
	cmd.Flags().StringVar(&modelURI, "model-uri", modelURI, "models:/, runs:/ or direct storage URI to serve")
	cmd.Flags().StringToStringVar(&labels, "label", labels, "extra labels for the inference service")
	cmd.Flags().BoolVar(&remove, "remove", remove, "delete the inference service instead of applying it")
	return cmd
}
