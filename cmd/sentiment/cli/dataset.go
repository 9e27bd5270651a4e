package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/domain"
)

func NewDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "dataset preparation",
	}
	cmd.AddCommand(NewDatasetPrepCmd())
	return cmd
}

func NewDatasetPrepCmd() *cobra.Command {
	input := "data/raw/tweets.csv"
	outDir := "data/processed"
	testRatio := 0.25
	seed := int64(42)
	cmd := &cobra.Command{
		Use:   "prep",
		Short: "clean a raw tweet CSV and write train/test splits",
		Example: `
  sentiment dataset prep --input data/raw/tweets.csv --out data/processed
  sentiment dataset prep --input tweets.csv --test-ratio 0.2 --seed 7
		`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(input)
			if err != nil {
				return err
			}
			train, test := ds.Split(testRatio, seed)

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			trainPath := filepath.Join(outDir, "train.csv")
			testPath := filepath.Join(outDir, "test.csv")
			if err := train.Save(trainPath); err != nil {
				return err
			}
			if err := test.Save(testPath); err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"SPLIT", "ROWS", "NEGATIVE", "NEUTRAL", "POSITIVE", "PATH"})
			t.AppendRow(splitRow("train", train, trainPath))
			t.AppendRow(splitRow("test", test, testPath))
			t.Render()
			fmt.Printf("dataset fingerprint: %s\n", ds.Fingerprint())
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", input, "raw CSV with text and label columns")
	cmd.Flags().StringVar(&outDir, "out", outDir, "directory for the processed splits")
	cmd.Flags().Float64Var(&testRatio, "test-ratio", testRatio, "fraction of rows held out for the test split")
	cmd.Flags().Int64Var(&seed, "seed", seed, "shuffle seed, fixed for reproducible splits")
	return cmd
}

func splitRow(name string, ds *dataset.Dataset, path string) table.Row {
	var counts [domain.NumClasses]int
	for _, label := range ds.Labels() {
		counts[label.ClassIndex()]++
	}
	return table.Row{name, len(ds.Rows), counts[0], counts[1], counts[2], path}
}
