package sensor

import (
	"context"
	"errors"
	"time"

	"cputempwidget/internal/logger"
	"cputempwidget/internal/models"
)

// Plausibility window for a CPU temperature. Values outside it are reported
// as IMPLAUSIBLE rather than passed through.
const (
	MinPlausibleC = -40.0
	MaxPlausibleC = 150.0
)

const probeTimeout = 3 * time.Second

// Reader returns a best-effort CPU temperature sample. Implementations never
// return an error: every failure mode is encoded in the Sample itself, so the
// polling loop can treat a read as infallible.
type Reader interface {
	Read(ctx context.Context) models.Sample
}

// Sentinel errors backends use to classify failures.
var (
	ErrPermissionDenied = errors.New("sensor backend requires elevated privileges")
	ErrNoSensor         = errors.New("no cpu temperature sensor found")
)

// backend is one concrete temperature source (hwmon, a WMI namespace, ...).
type backend interface {
	Name() string
	ReadTemp(ctx context.Context) (float64, error)
}

// New probes the platform backends once, in order of preference, and returns
// a Reader bound to the first one that produces a plausible reading. When no
// backend works the deterministic simulator is returned instead, so consumers
// always have a sample stream; its samples are flagged Simulated.
func New(ctx context.Context, log *logger.Logger) Reader {
	for _, b := range platformBackends() {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		v, err := b.ReadTemp(probeCtx)
		cancel()
		if err != nil {
			log.Debugw("sensor backend probe failed", "backend", b.Name(), "err", err)
			continue
		}
		if !plausible(v) {
			log.Debugw("sensor backend probe implausible", "backend", b.Name(), "value_c", v)
			continue
		}
		log.Infow("sensor backend selected", "backend", b.Name(), "value_c", v)
		return &backendReader{b: b}
	}
	log.Warnw("no usable temperature backend; falling back to simulated readings")
	return NewSimulator(time.Now().UnixNano())
}

func plausible(v float64) bool {
	return v >= MinPlausibleC && v <= MaxPlausibleC
}

// backendReader adapts a backend to the Reader contract: errors and
// implausible values become invalid samples with a reason code.
type backendReader struct {
	b backend
}

func (r *backendReader) Read(ctx context.Context) models.Sample {
	now := time.Now().UTC()
	v, err := r.b.ReadTemp(ctx)
	if err != nil {
		return models.Sample{
			Valid:   false,
			Reason:  reasonForError(err),
			Source:  r.b.Name(),
			TakenAt: now,
		}
	}
	if !plausible(v) {
		return models.Sample{
			Valid:   false,
			Reason:  models.FaultImplausible,
			Source:  r.b.Name(),
			TakenAt: now,
		}
	}
	return models.Sample{
		ValueC:  v,
		Valid:   true,
		Source:  r.b.Name(),
		TakenAt: now,
	}
}

func reasonForError(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return models.FaultPermissionDenied
	case errors.Is(err, ErrNoSensor):
		return models.FaultNoSensor
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.FaultBackendError
	default:
		return models.FaultBackendError
	}
}

// Bounded wraps a Reader so a stalled backend cannot stall the caller past
// the context deadline. The abandoned read finishes in the background and its
// result is discarded. A panic inside the read is contained and reported as a
// backend error sample.
func Bounded(r Reader) Reader {
	return &boundedReader{inner: r}
}

type boundedReader struct {
	inner Reader
}

func (r *boundedReader) Read(ctx context.Context) models.Sample {
	ch := make(chan models.Sample, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- models.Sample{
					Valid:   false,
					Reason:  models.FaultBackendError,
					Source:  "panic",
					TakenAt: time.Now().UTC(),
				}
			}
		}()
		ch <- r.inner.Read(ctx)
	}()
	select {
	case s := <-ch:
		return s
	case <-ctx.Done():
		return models.Sample{
			Valid:   false,
			Reason:  models.FaultBackendError,
			Source:  "timeout",
			TakenAt: time.Now().UTC(),
		}
	}
}
