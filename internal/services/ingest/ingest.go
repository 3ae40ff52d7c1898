// Package ingest turns uploaded CSV text or JSON points into an ordered, deduplicated series.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"SeriesPulse/internal/domain/models"
	"SeriesPulse/pkg/util"
)

// ParseCSV reads date,value rows. The first row is a header and is always skipped; extra
// columns are ignored and rows with an unparsable date or value are dropped. Only a failing
// reader is an error: input without valid rows yields an empty series.
func ParseCSV(r io.Reader) (models.Series, models.IngestReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var (
		rep    models.IngestReport
		points []models.TimePoint
		header = true
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, rep, fmt.Errorf("read csv: %w", err)
			}
			if header {
				header = false
				continue
			}
			rep.Rows++
			rep.Rejected++
			continue
		}
		if header {
			header = false
			continue
		}
		if blank(rec) {
			continue
		}
		rep.Rows++
		p, ok := parseRecord(rec)
		if !ok {
			rep.Rejected++
			continue
		}
		points = append(points, p)
	}
	s, dups := normalize(points)
	rep.Duplicates = dups
	rep.Accepted = len(s)
	return s, rep, nil
}

// FromPoints validates transport points with the same rules as ParseCSV, minus the header.
func FromPoints(in []models.PointDTO) (models.Series, models.IngestReport) {
	rep := models.IngestReport{Rows: len(in)}
	points := make([]models.TimePoint, 0, len(in))
	for _, dto := range in {
		ts, ok := util.ParseDate(dto.Date)
		if !ok {
			rep.Rejected++
			continue
		}
		points = append(points, models.TimePoint{Timestamp: ts, Value: dto.Value})
	}
	s, dups := normalize(points)
	rep.Duplicates = dups
	rep.Accepted = len(s)
	return s, rep
}

func parseRecord(rec []string) (models.TimePoint, bool) {
	if len(rec) < 2 {
		return models.TimePoint{}, false
	}
	ts, ok := util.ParseDate(rec[0])
	if !ok {
		return models.TimePoint{}, false
	}
	v, ok := util.ParseFloat(rec[1])
	if !ok {
		return models.TimePoint{}, false
	}
	return models.TimePoint{Timestamp: ts, Value: v}, true
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// normalize sorts by date and collapses equal dates, keeping the value that came last.
func normalize(points []models.TimePoint) (models.Series, int) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	out := make(models.Series, 0, len(points))
	dups := 0
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(p.Timestamp) {
			out[n-1] = p
			dups++
			continue
		}
		out = append(out, p)
	}
	return out, dups
}
