package sensor

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"cputempwidget/internal/models"
)

// Simulation shape: a base temperature with a slow one-minute wave, a little
// noise, and an occasional short spike so threshold behavior can be exercised
// without real hardware.
const (
	simBaseC       = 48.0
	simWaveC       = 8.0
	simWavePeriod  = 60.0 // seconds
	simNoiseC      = 1.5
	simSpikeChance = 0.05
	simSpikeMinC   = 5.0
	simSpikeMaxC   = 10.0
)

// Simulator is the deterministic fallback Reader used when no hardware
// backend is available. Every sample it produces is flagged Simulated so the
// presentation layer can show a distinct indicator.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator returns a simulator seeded for reproducible output.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

func (s *Simulator) Read(ctx context.Context) models.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	phase := math.Mod(float64(now.Unix()), simWavePeriod) / simWavePeriod
	wave := simWaveC * (0.5 + 0.5*phase)
	noise := (s.rng.Float64()*2 - 1) * simNoiseC

	var spike float64
	if s.rng.Float64() < simSpikeChance {
		spike = simSpikeMinC + s.rng.Float64()*(simSpikeMaxC-simSpikeMinC)
	}

	v := math.Round((simBaseC+wave+noise+spike)*10) / 10
	return models.Sample{
		ValueC:    v,
		Valid:     true,
		Source:    "simulated",
		Simulated: true,
		TakenAt:   now,
	}
}
