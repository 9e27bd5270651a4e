package cli

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"sentiment-analysis-service/internal/domain"
)

// renderReport prints the per-class metrics with accuracy and macro-F1 in the
// footer, then the confusion matrix with actual labels down the side.
func renderReport(w io.Writer, report domain.EvaluationReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"CLASS", "PRECISION", "RECALL", "F1", "SUPPORT"})
	for _, m := range report.PerClass {
		t.AppendRow(table.Row{m.Label.String(), fmtMetric(m.Precision), fmtMetric(m.Recall), fmtMetric(m.F1), m.Support})
	}
	t.AppendFooter(table.Row{"accuracy", "", "", fmtMetric(report.Accuracy), report.SampleCount})
	t.AppendFooter(table.Row{"macro f1", "", "", fmtMetric(report.MacroF1), ""})
	t.Render()

	c := table.NewWriter()
	c.SetOutputMirror(w)
	header := table.Row{"ACTUAL/PREDICTED"}
	for class := 0; class < domain.NumClasses; class++ {
		label, _ := domain.SentimentFromClass(class)
		header = append(header, label.String())
	}
	c.AppendHeader(header)
	for actual, counts := range report.Confusion {
		label, _ := domain.SentimentFromClass(actual)
		row := table.Row{label.String()}
		for _, n := range counts {
			row = append(row, n)
		}
		c.AppendRow(row)
	}
	c.Render()
}

func fmtMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
