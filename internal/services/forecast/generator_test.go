package forecast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeriesPulse/internal/domain/models"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// countingRand is not safe for concurrent use on its own.
type countingRand struct{ n int }

func (c *countingRand) Float64() float64 {
	c.n++
	return 0.5
}

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func TestGenerateSinglePoint(t *testing.T) {
	g := NewGenerator()
	s := models.Series{{Timestamp: day(1), Value: 10}}

	out := g.Generate(s, 3)
	require.Len(t, out, 3)
	for i, p := range out {
		assert.Equal(t, day(2+i), p.Timestamp)
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.InDelta(t, 10, p.Value, 10*JitterSpread/2+1e-9)
		assert.False(t, p.HasBounds())
	}
}

func TestGenerateEmpty(t *testing.T) {
	g := NewGenerator()
	assert.Empty(t, g.Generate(nil, 5))
	assert.NotNil(t, g.Generate(nil, 5))
	assert.Empty(t, g.Generate(models.Series{{Timestamp: day(1), Value: 1}}, 0))
}

func TestGenerateLinearWithoutJitter(t *testing.T) {
	var s models.Series
	for i := 0; i < 12; i++ {
		s = append(s, models.TimePoint{Timestamp: day(1 + i), Value: float64(i * 10)})
	}
	// trailing window 20..110 over 10 points
	assert.InDelta(t, 9.0, Rate(s), 1e-12)

	g := NewGenerator(WithRand(fixedRand(0.5)))
	out := g.Generate(s, 2)
	require.Len(t, out, 2)
	assert.InDelta(t, 119.0, out[0].Value, 1e-9)
	assert.InDelta(t, 128.0, out[1].Value, 1e-9)
	assert.Equal(t, day(13), out[0].Timestamp)
}

func TestGenerateClampsAtZero(t *testing.T) {
	s := models.Series{
		{Timestamp: day(1), Value: 10},
		{Timestamp: day(2), Value: 0},
	}
	out := NewGenerator(WithRand(fixedRand(0))).Generate(s, 4)
	for _, p := range out {
		assert.Zero(t, p.Value)
	}
}

func TestGenerateJitterBounds(t *testing.T) {
	s := models.Series{{Timestamp: day(1), Value: 100}}
	lo := NewGenerator(WithRand(fixedRand(0))).Generate(s, 1)[0].Value
	hi := NewGenerator(WithRand(fixedRand(0.999999))).Generate(s, 1)[0].Value
	assert.InDelta(t, 97.5, lo, 1e-9)
	assert.InDelta(t, 102.5, hi, 1e-3)
}

func TestGenerateSeededIsReproducible(t *testing.T) {
	s := models.Series{
		{Timestamp: day(1), Value: 4},
		{Timestamp: day(2), Value: 6},
		{Timestamp: day(3), Value: 5},
	}
	g := NewGenerator(WithSeed(42))
	first := g.Generate(s, 14)
	assert.Equal(t, first, g.Generate(s, 14))
	assert.Equal(t, first, NewGenerator(WithSeed(42)).Generate(s, 14))
	assert.NotEqual(t, first, NewGenerator(WithSeed(7)).Generate(s, 14))
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	s := models.Series{{Timestamp: day(1), Value: 1}, {Timestamp: day(2), Value: 3}}
	snap := s.Clone()
	NewGenerator().Generate(s, 3)
	assert.Equal(t, snap, s)
}

func TestGenerateDefaultSourceTakesNoLock(t *testing.T) {
	g := NewGenerator()
	g.mu.Lock()
	defer g.mu.Unlock()

	done := make(chan []models.ForecastPoint, 1)
	go func() { done <- g.Generate(models.Series{{Timestamp: day(1), Value: 10}}, 3) }()
	select {
	case out := <-done:
		assert.Len(t, out, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("forecast with the default source waited on the generator lock")
	}
}

func TestGenerateOwnedSourceIsSerialized(t *testing.T) {
	src := &countingRand{}
	g := NewGenerator(WithRand(src))
	s := models.Series{{Timestamp: day(1), Value: 10}, {Timestamp: day(2), Value: 12}}

	const workers, steps = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Generate(s, steps)
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*steps, src.n)
}
