package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/domain"
)

func TestSentimentCmdTree(t *testing.T) {
	cmd := NewSentimentCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"dataset", "train", "evaluate", "register", "deploy", "predict"} {
		assert.Contains(t, names, want)
	}
}

func TestDatasetPrepWritesSplits(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "raw.csv")
	raw := "clean_text,category\n" +
		"what a great day,1\n" +
		"this is awful,-1\n" +
		"the bus was on time,0\n" +
		"love this so much,1.0\n" +
		"never coming back,-1.0\n" +
		"it is a tuesday,0\n" +
		"best service ever,1\n" +
		"worst experience of my life,-1\n"
	require.NoError(t, os.WriteFile(input, []byte(raw), 0o644))

	outDir := filepath.Join(dir, "processed")
	cmd := NewDatasetPrepCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--input", input, "--out", outDir, "--test-ratio", "0.25", "--seed", "1"})
	require.NoError(t, cmd.Execute())

	train, err := dataset.Load(filepath.Join(outDir, "train.csv"))
	require.NoError(t, err)
	test, err := dataset.Load(filepath.Join(outDir, "test.csv"))
	require.NoError(t, err)
	assert.Len(t, train.Rows, 6)
	assert.Len(t, test.Rows, 2)
}

func TestDatasetPrepMissingInput(t *testing.T) {
	cmd := NewDatasetPrepCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--input", filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, cmd.Execute())
}

func TestPredictWithoutBundle(t *testing.T) {
	cmd := NewPredictCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--bundle", t.TempDir(), "hello"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBundleNotFound)
}

func TestPredictRequiresText(t *testing.T) {
	cmd := NewPredictCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--bundle", t.TempDir()})
	assert.Error(t, cmd.Execute())
}

func TestRenderReport(t *testing.T) {
	report := domain.EvaluationReport{
		Accuracy: 0.75,
		MacroF1:  0.7,
		PerClass: []domain.ClassMetrics{
			{Label: domain.SentimentNegative, Precision: 1, Recall: 0.5, F1: 2.0 / 3.0, Support: 2},
			{Label: domain.SentimentNeutral, Precision: 0.5, Recall: 1, F1: 2.0 / 3.0, Support: 2},
			{Label: domain.SentimentPositive, Precision: 1, Recall: 1, F1: 1, Support: 4},
		},
		Confusion:   [][]int{{1, 1, 0}, {0, 2, 0}, {0, 0, 4}},
		SampleCount: 8,
	}

	var buf bytes.Buffer
	renderReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "negative")
	assert.Contains(t, out, "neutral")
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "ACCURACY")
	assert.Contains(t, out, "0.7500")
	assert.Contains(t, out, "ACTUAL/PREDICTED")
}

func TestSplitRowCountsLabels(t *testing.T) {
	ds := &dataset.Dataset{Rows: []dataset.Row{
		{Text: "a", Label: domain.SentimentNegative},
		{Text: "b", Label: domain.SentimentNegative},
		{Text: "c", Label: domain.SentimentNeutral},
		{Text: "d", Label: domain.SentimentPositive},
	}}

	row := splitRow("train", ds, "train.csv")
	assert.EqualValues(t, 2, row[2])
	assert.EqualValues(t, 1, row[3])
	assert.EqualValues(t, 1, row[4])
}
