// Package stochastic converts event probabilities between time windows and
// performs reproducible weighted trials for the leak and particle systems.
package stochastic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPrecision is the number of decimal places ScaleProbability keeps.
const DefaultPrecision = 10

// maxDecimalDigits bounds how far Roll scales a probability toward an integer.
const maxDecimalDigits = 15

var (
	// ErrProbabilityRange is returned for probabilities outside [0, 1].
	ErrProbabilityRange = errors.New("stochastic: probability must be within [0, 1]")
	// ErrInvalidWindow is returned for a non-positive source window or negative target window.
	ErrInvalidWindow = errors.New("stochastic: invalid time window")
)

func checkProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: got %v", ErrProbabilityRange, p)
	}
	return nil
}

// ScaleProbability converts pc, the probability of an event within sc
// seconds, to the probability of the same event within sn seconds, assuming
// a constant rate. The result is rounded to precision decimal places.
func ScaleProbability(pc, sc, sn float64, precision int) (float64, error) {
	if err := checkProbability(pc); err != nil {
		return 0, err
	}
	if !(sc > 0) || math.IsInf(sc, 0) {
		return 0, fmt.Errorf("%w: source window %v", ErrInvalidWindow, sc)
	}
	if !(sn >= 0) || math.IsInf(sn, 0) {
		return 0, fmt.Errorf("%w: target window %v", ErrInvalidWindow, sn)
	}
	if precision < 0 {
		precision = 0
	}

	scaled := 1 - math.Pow(1-pc, sn/sc)
	return roundTo(scaled, precision), nil
}

func roundTo(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}

// Roller performs weighted trials against a seeded source. A Roller is safe
// for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller creates a Roller whose sequence is fully determined by seed.
func NewRoller(seed uint64) *Roller {
	return &Roller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll performs a single trial that succeeds with probability p. The
// probability is scaled by powers of ten until it is integral, then compared
// against a uniform integer draw, so no float equality enters the trial.
func (r *Roller) Roll(p float64) (bool, error) {
	if err := checkProbability(p); err != nil {
		return false, err
	}

	numerator, total := toFraction(p)
	if numerator == 0 {
		return false, nil
	}
	if numerator >= total {
		return true, nil
	}

	r.mu.Lock()
	draw := r.rng.Int64N(total) + 1
	r.mu.Unlock()
	return draw <= numerator, nil
}

// toFraction writes p as numerator/10^k using the shortest decimal form that
// round-trips p, keeping at most maxDecimalDigits places.
func toFraction(p float64) (numerator, total int64) {
	digits := 0
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		digits = min(len(s)-i-1, maxDecimalDigits)
	}
	total = 1
	for range digits {
		total *= 10
	}
	return int64(math.Round(p * float64(total))), total
}

// Float64 returns a uniform value in [0, 1).
func (r *Roller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Sign returns -1 or +1 with equal probability.
func (r *Roller) Sign() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

var (
	defaultRoller     *Roller
	defaultRollerOnce sync.Once
)

// Default returns the process-wide roller, seeded from the clock on first use.
func Default() *Roller {
	defaultRollerOnce.Do(func() {
		defaultRoller = NewRoller(uint64(time.Now().UnixNano()))
	})
	return defaultRoller
}

// RollProbability performs a single trial on the process-wide roller.
func RollProbability(p float64) (bool, error) {
	return Default().Roll(p)
}
