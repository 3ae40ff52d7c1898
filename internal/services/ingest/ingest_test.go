package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeriesPulse/internal/domain/models"
)

func date(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

func TestParseCSV(t *testing.T) {
	in := strings.Join([]string{
		"date,value,comment",
		"2024-01-03,30,late",
		"2024-01-01,10",
		"not-a-date,5",
		"2024-01-02,abc",
		"",
		"2024/01/02,20",
		"2024-01-03,33",
		"2024-01-04",
	}, "\n")

	s, rep, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, date(time.January, 1), s[0].Timestamp)
	assert.Equal(t, 10.0, s[0].Value)
	assert.Equal(t, 20.0, s[1].Value)
	assert.Equal(t, 33.0, s[2].Value, "duplicate date keeps the last value")

	assert.Equal(t, models.IngestReport{Rows: 7, Accepted: 3, Rejected: 3, Duplicates: 1}, rep)
}

func TestParseCSVHeaderOnlyAndEmpty(t *testing.T) {
	s, rep, err := ParseCSV(strings.NewReader("date,value\n"))
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.Zero(t, rep.Rows)

	s, _, err = ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestParseCSVQuotedAndSpaced(t *testing.T) {
	in := "date,value\n\"2024-02-01\", 1.5\n 2024-02-02 ,\"2.5\"\n"
	s, rep, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 2.5, s[1].Value)
	assert.Zero(t, rep.Rejected)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestParseCSVReaderError(t *testing.T) {
	_, _, err := ParseCSV(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestFromPoints(t *testing.T) {
	s, rep := FromPoints([]models.PointDTO{
		{Date: "2024-05-02", Value: 2},
		{Date: "2024-05-01", Value: 1},
		{Date: "garbage", Value: 9},
		{Date: "2024-05-02", Value: 4},
	})
	require.Len(t, s, 2)
	assert.Equal(t, date(time.May, 1), s[0].Timestamp)
	assert.Equal(t, 4.0, s[1].Value)
	assert.Equal(t, models.IngestReport{Rows: 4, Accepted: 2, Rejected: 1, Duplicates: 1}, rep)
}
