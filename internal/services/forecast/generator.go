// Package forecast extrapolates a short horizon from the trailing slope of a series.
package forecast

import (
	"math"
	"math/rand/v2"
	"sync"

	"SeriesPulse/internal/domain/models"
)

const (
	// WindowSize is the maximum number of trailing points used for the rate.
	WindowSize = 10
	// JitterSpread is the total width of the multiplicative noise band (±2.5%).
	JitterSpread = 0.05
	// DefaultSteps is the horizon used when callers do not ask for one.
	DefaultSteps = 7
)

// Rand is the uniform [0,1) source behind the jitter.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Option configures a Generator.
type Option func(*Generator)

// WithRand uses r for every call. Calls are serialized on r.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		g.src = r
		g.newSrc = nil
		g.owned = true
	}
}

// WithSeed replays the same jitter sequence on every call.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.src = nil
		g.owned = false
		g.newSrc = func() Rand { return rand.New(rand.NewPCG(seed, seed)) }
	}
}

// Generator produces naive linear forecasts with bounded jitter.
type Generator struct {
	mu     sync.Mutex
	src    Rand
	newSrc func() Rand
	// owned marks a caller-supplied src; only that one is guarded by mu.
	owned bool
}

// NewGenerator defaults to the auto-seeded global source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{src: globalRand{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Rate is the per-step slope over the trailing window: (last-first)/windowLength,
// 0 when the window holds fewer than two points.
func Rate(s models.Series) float64 {
	w := min(WindowSize, s.Len())
	if w <= 1 {
		return 0
	}
	window := s[s.Len()-w:]
	return (window[w-1].Value - window[0].Value) / float64(w)
}

// Generate returns steps points on the consecutive days after the last observation.
// An empty series or a non-positive horizon yields an empty slice.
func (g *Generator) Generate(s models.Series, steps int) []models.ForecastPoint {
	last, ok := s.Last()
	if !ok || steps <= 0 {
		return []models.ForecastPoint{}
	}
	rate := Rate(s)

	src := g.src
	switch {
	case g.newSrc != nil:
		src = g.newSrc()
	case g.owned:
		g.mu.Lock()
		defer g.mu.Unlock()
	}

	out := make([]models.ForecastPoint, steps)
	for i := 1; i <= steps; i++ {
		jitter := 1 + (src.Float64()-0.5)*JitterSpread
		out[i-1] = models.ForecastPoint{
			Timestamp: last.Timestamp.AddDate(0, 0, i),
			Value:     math.Max(0, (last.Value+rate*float64(i))*jitter),
		}
	}
	return out
}
