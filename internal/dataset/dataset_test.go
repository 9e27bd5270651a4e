package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-analysis-service/internal/domain"
)

const sampleCSV = `clean_text,category
loved every minute of it,1.0
absolutely terrible service,-1.0
it was a tuesday,0.0
loved every minute of it,1.0
,1.0
broken label row,two
out of range label,7
`

func TestRead(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// duplicate, empty, unparsable and out-of-range rows are dropped
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, Row{Text: "loved every minute of it", Label: domain.SentimentPositive}, ds.Rows[0])
	assert.Equal(t, Row{Text: "absolutely terrible service", Label: domain.SentimentNegative}, ds.Rows[1])
	assert.Equal(t, Row{Text: "it was a tuesday", Label: domain.SentimentNeutral}, ds.Rows[2])
}

func TestReadAlternateHeader(t *testing.T) {
	ds, err := Read(strings.NewReader("text,sentiment\nfine by me,0\n"))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, domain.SentimentNeutral, ds.Rows[0].Label)
}

func TestReadRejectsUnknownHeader(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\nx,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text column")
}

func TestReadEmptyDataset(t *testing.T) {
	_, err := Read(strings.NewReader("text,label\n,1\n"))
	assert.ErrorIs(t, err, domain.ErrEmptyDataset)
}

func TestSplitDeterministic(t *testing.T) {
	ds := &Dataset{}
	for i := 0; i < 100; i++ {
		ds.Rows = append(ds.Rows, Row{Text: strings.Repeat("x", i+1), Label: domain.SentimentNeutral})
	}

	train1, test1 := ds.Split(0.2, 42)
	train2, test2 := ds.Split(0.2, 42)

	assert.Equal(t, 80, len(train1.Rows))
	assert.Equal(t, 20, len(test1.Rows))
	assert.Equal(t, train1.Rows, train2.Rows)
	assert.Equal(t, test1.Rows, test2.Rows)

	_, test3 := ds.Split(0.2, 43)
	assert.NotEqual(t, test1.Rows, test3.Rows, "different seeds should shuffle differently")
}

func TestSplitClampsRatio(t *testing.T) {
	ds := &Dataset{Rows: []Row{{Text: "a", Label: 0}, {Text: "b", Label: 1}}}

	train, test := ds.Split(-0.5, 1)
	assert.Len(t, train.Rows, 2)
	assert.Len(t, test.Rows, 0)

	train, test = ds.Split(1.5, 1)
	assert.Len(t, train.Rows, 0)
	assert.Len(t, test.Rows, 2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := &Dataset{Rows: []Row{
		{Text: "saved, with comma", Label: domain.SentimentPositive},
		{Text: "second row", Label: domain.SentimentNegative},
	}}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ds.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Rows, loaded.Rows)
}

func TestFingerprintStable(t *testing.T) {
	a := &Dataset{Rows: []Row{{Text: "x", Label: 1}, {Text: "y", Label: -1}}}
	b := &Dataset{Rows: []Row{{Text: "x", Label: 1}, {Text: "y", Label: -1}}}
	c := &Dataset{Rows: []Row{{Text: "y", Label: -1}, {Text: "x", Label: 1}}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "fingerprint is order sensitive")
	assert.True(t, strings.HasPrefix(a.Fingerprint(), "sha256:"))
}
