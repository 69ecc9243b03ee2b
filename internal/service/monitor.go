package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cputempwidget/internal/logger"
	"cputempwidget/internal/models"
	"cputempwidget/internal/repository"
	"cputempwidget/internal/sensor"
)

// Monitor defaults and limits.
const (
	DefaultThresholdC = 70.0
	DefaultInterval   = 1 * time.Second
	DefaultDwell      = 5 * time.Second

	MinThresholdC = 40.0
	MaxThresholdC = 100.0
	MinInterval   = 100 * time.Millisecond // runaway-polling guard

	eventAppendTimeout = 2 * time.Second
)

// Event types appended to the log.
const (
	EventStart       = "START"
	EventStop        = "STOP"
	EventHot         = "HOT"
	EventHotClear    = "HOT_CLEAR"
	EventSensorFault = "SENSOR_FAULT"
	EventReconfigure = "RECONFIGURE"
)

var (
	ErrAlreadyRunning   = errors.New("monitor is already running")
	ErrInvalidThreshold = fmt.Errorf("threshold must be between %.0f and %.0f celsius", MinThresholdC, MaxThresholdC)
	ErrInvalidInterval  = fmt.Errorf("poll interval must be at least %s", MinInterval)
)

// MonitorConfig is the initial monitor configuration.
type MonitorConfig struct {
	ThresholdC float64
	Interval   time.Duration
	Dwell      time.Duration
}

// MonitorService runs the periodic poll-read-update-publish cycle and owns
// the only mutable monitor state. Only the polling tick and Reconfigure
// write; both are serialized on the same mutex. Consumers get immutable
// snapshots, published in strict tick order, latest-wins per subscriber.
type MonitorService struct {
	reader sensor.Reader
	events repository.EventRepo
	log    *logger.Logger

	mu        sync.Mutex
	running   bool
	threshold float64
	interval  time.Duration
	dwell     time.Duration
	sample    models.Sample
	highFor   time.Duration
	hot       bool
	lastTick  time.Time
	lastFault string
	current   models.Snapshot
	subs      map[int]chan models.Snapshot
	nextSub   int

	cancel context.CancelFunc
	done   chan struct{}
	kick   chan struct{}
}

// NewMonitorService builds a stopped monitor. Zero config fields fall back
// to the defaults; the interval is clamped to the minimum.
func NewMonitorService(reader sensor.Reader, events repository.EventRepo, log *logger.Logger, cfg MonitorConfig) *MonitorService {
	if cfg.ThresholdC == 0 {
		cfg.ThresholdC = DefaultThresholdC
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if cfg.Dwell == 0 {
		cfg.Dwell = DefaultDwell
	}
	m := &MonitorService{
		reader:    sensor.Bounded(reader),
		events:    events,
		log:       log,
		threshold: cfg.ThresholdC,
		interval:  cfg.Interval,
		dwell:     cfg.Dwell,
		sample:    models.Sample{Valid: false, Reason: models.FaultUnavailable},
		subs:      make(map[int]chan models.Snapshot),
	}
	m.current = m.snapshotLocked(time.Now())
	return m
}

// Start begins the polling cycle on its own goroutine. It fails only when
// the monitor is already running; sensor faults never fail Start.
func (m *MonitorService) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.kick = make(chan struct{}, 1)
	m.running = true
	m.lastTick = time.Now()
	m.lastFault = ""
	m.publishLocked(m.snapshotLocked(m.lastTick))
	interval := m.interval
	threshold := m.threshold
	done := m.done
	kick := m.kick
	m.mu.Unlock()

	m.log.Infow("monitor started", "interval", interval, "threshold_c", threshold)
	m.appendEvent(EventStart, "temperature monitor started", nil)
	go m.loop(loopCtx, done, kick)
	return nil
}

// Stop requests the loop to exit at the next safe point and blocks until it
// has, bounded by one poll interval plus the reader timeout. Stopping an
// already-stopped monitor is a no-op.
func (m *MonitorService) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	timeout := m.interval + m.interval/2 // interval + reader timeout
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		m.log.Warnw("monitor loop did not exit in time", "timeout", timeout)
	}
}

// Reconfigure applies threshold/interval changes atomically before the next
// tick. A threshold change re-evaluates the latest sample immediately;
// accumulated dwell time is retained while the sample stays at or above the
// new threshold.
func (m *MonitorService) Reconfigure(p ReconfigureParams) error {
	if p.ThresholdC == nil && p.PollInterval == nil {
		return nil
	}
	if p.ThresholdC != nil && (*p.ThresholdC < MinThresholdC || *p.ThresholdC > MaxThresholdC) {
		return ErrInvalidThreshold
	}
	if p.PollInterval != nil && *p.PollInterval < MinInterval {
		return ErrInvalidInterval
	}

	m.mu.Lock()
	meta := map[string]any{}
	if p.ThresholdC != nil {
		m.threshold = *p.ThresholdC
		meta["threshold_c"] = m.threshold
		if m.sample.Valid {
			if m.sample.ValueC < m.threshold {
				m.highFor = 0
				m.hot = false
			} else {
				m.hot = m.highFor >= m.dwell
			}
		}
	}
	intervalChanged := false
	if p.PollInterval != nil && *p.PollInterval != m.interval {
		m.interval = *p.PollInterval
		meta["poll_interval"] = m.interval.String()
		intervalChanged = true
	}
	m.publishLocked(m.snapshotLocked(time.Now()))
	running := m.running
	kick := m.kick
	m.mu.Unlock()

	if running && intervalChanged {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	m.appendEvent(EventReconfigure, "monitor reconfigured", meta)
	return nil
}

// Snapshot returns the latest published monitor state.
func (m *MonitorService) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers a latest-wins snapshot channel. The current snapshot
// is delivered immediately; a slow consumer only ever sees the newest value.
// The returned func cancels the subscription.
func (m *MonitorService) Subscribe() (<-chan models.Snapshot, func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan models.Snapshot, 1)
	ch <- m.current
	m.subs[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// loop schedules ticks relative to the previous tick's intended time so slow
// reads do not accumulate drift. Missed slots are skipped, never replayed.
func (m *MonitorService) loop(ctx context.Context, done chan struct{}, kick chan struct{}) {
	m.mu.Lock()
	interval := m.interval
	m.mu.Unlock()

	next := time.Now().Add(interval)
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.shutdown(done)
			return
		case <-kick:
			m.mu.Lock()
			interval = m.interval
			last := m.lastTick
			m.mu.Unlock()
			next = last.Add(interval)
			resetTimer(timer, time.Until(next))
		case now := <-timer.C:
			m.tick(ctx, now)
			m.mu.Lock()
			interval = m.interval
			m.mu.Unlock()
			next = next.Add(interval)
			for !next.After(time.Now()) {
				next = next.Add(interval)
			}
			resetTimer(timer, time.Until(next))
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// tick runs one poll-read-update-publish cycle. A fault inside the read is
// converted into a BACKEND_ERROR sample for this tick only; the cycle itself
// never stops because of a sensor fault.
func (m *MonitorService) tick(ctx context.Context, now time.Time) {
	m.mu.Lock()
	readTimeout := m.interval / 2
	m.mu.Unlock()

	s := m.safeRead(ctx, readTimeout, now)
	m.advance(s, now)
}

func (m *MonitorService) safeRead(ctx context.Context, timeout time.Duration, now time.Time) (s models.Sample) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("sensor read panicked", "panic", r)
			s = models.Sample{Valid: false, Reason: models.FaultBackendError, Source: "panic", TakenAt: now.UTC()}
		}
	}()
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s = m.reader.Read(readCtx)
	if s.TakenAt.IsZero() {
		s.TakenAt = now.UTC()
	}
	return s
}

// advance applies one sample to the monitor state. The dwell accumulator
// grows by the actual wall-clock time since the previous tick, so the hot
// state stays correct under jitter, missed ticks, or interval changes.
func (m *MonitorService) advance(s models.Sample, now time.Time) {
	m.mu.Lock()
	elapsed := now.Sub(m.lastTick)
	if elapsed < 0 {
		elapsed = 0
	}
	m.lastTick = now
	wasHot := m.hot
	prevFault := m.lastFault
	m.sample = s

	switch {
	case !s.Valid:
		m.highFor = 0
		m.hot = false
		m.lastFault = s.Reason
	case s.ValueC >= m.threshold:
		m.highFor += elapsed
		if m.highFor >= m.dwell {
			m.hot = true
		}
		m.lastFault = ""
	default:
		m.highFor = 0
		m.hot = false
		m.lastFault = ""
	}

	nowHot := m.hot
	snap := m.snapshotLocked(now)
	m.publishLocked(snap)
	m.mu.Unlock()

	// Log a fault once per streak, not per tick.
	if !s.Valid && s.Reason != prevFault {
		m.log.Warnw("sensor read failed", "reason", s.Reason, "source", s.Source)
		m.appendEvent(EventSensorFault, "sensor became unavailable", map[string]any{
			"reason": s.Reason,
			"source": s.Source,
		})
	}
	if !wasHot && nowHot {
		m.log.Infow("sustained high temperature", "value_c", s.ValueC, "threshold_c", snap.ThresholdC)
		m.appendEvent(EventHot, "temperature above threshold for the dwell time", map[string]any{
			"value_c":     s.ValueC,
			"threshold_c": snap.ThresholdC,
		})
	}
	if wasHot && !nowHot {
		m.appendEvent(EventHotClear, "temperature dropped below threshold", map[string]any{
			"value_c":     s.ValueC,
			"threshold_c": snap.ThresholdC,
			"valid":       s.Valid,
		})
	}
}

// shutdown releases the reader session (when long-lived), publishes the
// final stopped snapshot, and unblocks Stop. Stop is unblocked before the
// best-effort STOP event append: a slow database must not eat into Stop's
// bounded wait when the loop and reader are already released.
func (m *MonitorService) shutdown(done chan struct{}) {
	if c, ok := m.reader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.log.Warnw("closing sensor reader failed", "err", err)
		}
	}
	m.mu.Lock()
	m.running = false
	m.publishLocked(m.snapshotLocked(time.Now()))
	m.mu.Unlock()
	close(done)

	m.appendEvent(EventStop, "temperature monitor stopped", nil)
	m.log.Infow("monitor stopped")
}

// snapshotLocked builds an immutable state copy. Callers hold m.mu.
func (m *MonitorService) snapshotLocked(now time.Time) models.Snapshot {
	return models.Snapshot{
		Sample:         m.sample,
		ThresholdC:     m.threshold,
		IntervalSec:    m.interval.Seconds(),
		HighForSeconds: m.highFor.Seconds(),
		Warning:        m.sample.Valid && m.sample.ValueC >= m.threshold,
		Hot:            m.hot,
		Running:        m.running,
		UpdatedAt:      now.UTC(),
	}
}

// publishLocked fans the snapshot out to all subscribers, replacing any
// undelivered older snapshot. Callers hold m.mu.
func (m *MonitorService) publishLocked(snap models.Snapshot) {
	m.current = snap
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (m *MonitorService) appendEvent(typ, desc string, meta map[string]any) {
	if m.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventAppendTimeout)
	defer cancel()
	ev := models.WidgetEvent{Type: typ, Description: desc}
	if len(meta) > 0 {
		ev.Metadata = meta
	}
	if err := m.events.Append(ctx, ev); err != nil {
		m.log.Debugw("event append failed", "type", typ, "err", err)
	}
}
