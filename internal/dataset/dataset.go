// Package dataset loads and splits the labeled tweet corpus used for
// training. The expected input is a CSV with a text column and a numeric
// sentiment column holding -1, 0 or 1.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"

	"sentiment-analysis-service/internal/domain"
)

// Column names accepted for the text and label fields, in priority order.
// "clean_text"/"category" match the Twitter sentiment corpus the project
// trains on.
var (
	textColumns  = []string{"clean_text", "text", "tweet", "content"}
	labelColumns = []string{"category", "sentiment", "label"}
)

type Row struct {
	Text  string           `json:"text"`
	Label domain.Sentiment `json:"label"`
}

type Dataset struct {
	Rows []Row
}

// Load reads a CSV file from disk. See Read for parsing behavior.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV rows, dropping unusable ones: empty texts, duplicate
// texts, labels outside {-1,0,1} and rows whose label does not parse as a
// number. Dropped rows are counted, not fatal; an input with no usable rows
// at all is.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	textIdx, labelIdx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	seen := make(map[string]struct{})
	dropped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}
		if textIdx >= len(record) || labelIdx >= len(record) {
			dropped++
			continue
		}

		text := strings.TrimSpace(record[textIdx])
		label, ok := parseLabel(record[labelIdx])
		if text == "" || !ok {
			dropped++
			continue
		}
		if _, dup := seen[text]; dup {
			dropped++
			continue
		}
		seen[text] = struct{}{}
		ds.Rows = append(ds.Rows, Row{Text: text, Label: label})
	}

	if dropped > 0 {
		log.WithFields(log.Fields{"kept": len(ds.Rows), "dropped": dropped}).
			Info("dataset rows filtered")
	}
	if len(ds.Rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	return ds, nil
}

func resolveColumns(header []string) (textIdx, labelIdx int, err error) {
	textIdx, labelIdx = -1, -1
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, want := range textColumns {
		for i, h := range normalized {
			if h == want {
				textIdx = i
				break
			}
		}
		if textIdx >= 0 {
			break
		}
	}
	for _, want := range labelColumns {
		for i, h := range normalized {
			if h == want {
				labelIdx = i
				break
			}
		}
		if labelIdx >= 0 {
			break
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return 0, 0, fmt.Errorf("dataset header %v: need a text column (%s) and a label column (%s)",
			header, strings.Join(textColumns, "|"), strings.Join(labelColumns, "|"))
	}
	return textIdx, labelIdx, nil
}

// parseLabel accepts integer and float spellings ("-1", "-1.0") since the
// source corpus stores categories as floats.
func parseLabel(raw string) (domain.Sentiment, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	s, err := domain.ParseSentiment(int(f))
	if err != nil {
		return 0, false
	}
	return s, true
}

// Save writes the dataset back out as a two-column CSV.
func (d *Dataset) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"text", "label"}); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for _, row := range d.Rows {
		if err := w.Write([]string{row.Text, strconv.Itoa(int(row.Label))}); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Texts returns the text column.
func (d *Dataset) Texts() []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Text
	}
	return out
}

// Labels returns the label column.
func (d *Dataset) Labels() []domain.Sentiment {
	out := make([]domain.Sentiment, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Label
	}
	return out
}

// Fingerprint returns a stable digest of the dataset contents, recorded in
// the bundle manifest so a served model can be traced back to its data.
func (d *Dataset) Fingerprint() string {
	var sb strings.Builder
	for _, r := range d.Rows {
		sb.WriteString(r.Text)
		sb.WriteByte('\x1f')
		sb.WriteString(strconv.Itoa(int(r.Label)))
		sb.WriteByte('\n')
	}
	return digest.FromString(sb.String()).String()
}
