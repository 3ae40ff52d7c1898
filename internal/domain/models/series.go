package models

import "time"

// DateLayout is the wire format of a point's calendar date.
const DateLayout = "2006-01-02"

// TimePoint is one dated observation. Timestamps are day resolution, UTC midnight.
type TimePoint struct {
	Timestamp time.Time
	Value     float64
}

// Series is an ordered sequence of points with strictly increasing timestamps.
// Ordering and uniqueness are guaranteed by ingestion; analysis code does not re-check them.
type Series []TimePoint

func (s Series) Len() int { return len(s) }

// Values returns a fresh slice with the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Clone returns an independent copy, used before handing a series to concurrent work.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// First returns the earliest point; ok is false for an empty series.
func (s Series) First() (TimePoint, bool) {
	if len(s) == 0 {
		return TimePoint{}, false
	}
	return s[0], true
}

// Last returns the latest point; ok is false for an empty series.
func (s Series) Last() (TimePoint, bool) {
	if len(s) == 0 {
		return TimePoint{}, false
	}
	return s[len(s)-1], true
}

// DateRange returns the first and last dates formatted as YYYY-MM-DD.
func (s Series) DateRange() (from, to string) {
	if len(s) == 0 {
		return "", ""
	}
	return s[0].Timestamp.Format(DateLayout), s[len(s)-1].Timestamp.Format(DateLayout)
}

// ValueRange returns the minimum and maximum values (zeros for an empty series).
func (s Series) ValueRange() (lo, hi float64) {
	if len(s) == 0 {
		return 0, 0
	}
	lo, hi = s[0].Value, s[0].Value
	for _, p := range s[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	return lo, hi
}

// PointDTO is the transport shape of a point: {"date": "YYYY-MM-DD", "value": 1.5}.
type PointDTO struct {
	Date  string  `json:"date" validate:"required"`
	Value float64 `json:"value"`
}

// ToDTO converts the series to its transport shape.
func (s Series) ToDTO() []PointDTO {
	out := make([]PointDTO, len(s))
	for i, p := range s {
		out[i] = PointDTO{Date: p.Timestamp.Format(DateLayout), Value: p.Value}
	}
	return out
}

// IngestReport describes how raw input rows turned into a series.
type IngestReport struct {
	Rows       int `json:"rows"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
}
