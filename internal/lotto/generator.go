package lotto

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// DefaultBaseRound is the round number the oldest generated draw follows.
const DefaultBaseRound = 1000

const drawInterval = 7 * 24 * time.Hour

// Generator produces synthetic draw histories.
type Generator struct {
	src       Source
	baseRound int
	now       func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithBaseRound sets the round preceding the oldest generated draw.
func WithBaseRound(round int) GeneratorOption {
	return func(g *Generator) {
		if round >= 0 {
			g.baseRound = round
		}
	}
}

// WithClock overrides the clock used to date the newest draw.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator returns a Generator drawing randomness from src.
func NewGenerator(src Source, opts ...GeneratorOption) *Generator {
	g := &Generator{
		src:       src,
		baseRound: DefaultBaseRound,
		now:       time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// DefaultBias favours 1-10 slightly and disfavours 41-45, the way the
// classic synthetic history is skewed.
func DefaultBias() []float64 {
	w := make([]float64, domain.NumberCount)
	for i := range w {
		n := i + domain.MinNumber
		switch {
		case n <= 10:
			w[i] = 1.1
		case n >= 41:
			w[i] = 0.9
		default:
			w[i] = 1.0
		}
	}
	return w
}

// Generate returns n synthetic draws, most recent first. Main numbers are
// sampled without replacement under bias (nil means uniform) and the bonus is
// drawn uniformly from the 39 numbers left over. The newest draw is dated
// today and has round baseRound+n; each older draw is one week and one round
// earlier.
func (g *Generator) Generate(n int, bias []float64) ([]domain.Draw, error) {
	if n <= 0 {
		return nil, fmt.Errorf("lotto: generate %d draws: %w", n, domain.ErrInvalidInput)
	}
	weights := bias
	if weights == nil {
		weights = make([]float64, domain.NumberCount)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != domain.NumberCount {
		return nil, fmt.Errorf("lotto: bias has %d weights, want %d: %w", len(weights), domain.NumberCount, domain.ErrInvalidInput)
	}
	if _, err := Normalize(weights); err != nil {
		return nil, fmt.Errorf("lotto: bias: %w", err)
	}

	today := domain.CalendarDate(g.now())
	draws := make([]domain.Draw, 0, n)
	for i := 0; i < n; i++ {
		numbers, err := WeightedSample(g.src, weights, domain.PickSize)
		if err != nil {
			return nil, err
		}
		bonus := g.pickBonus(numbers)
		d, err := domain.NewDraw(g.baseRound+n-i, today.Add(-time.Duration(i)*drawInterval), numbers, bonus)
		if err != nil {
			return nil, fmt.Errorf("lotto: generate: %w", err)
		}
		draws = append(draws, d)
	}
	return draws, nil
}

func (g *Generator) pickBonus(numbers []int) int {
	var taken [domain.NumberCount]bool
	for _, n := range numbers {
		taken[n-domain.MinNumber] = true
	}
	return pickUniform(g.src, &taken) + domain.MinNumber
}
