// Package scheduler runs the periodic dependency health checks of the
// export service on a robfig/cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Probe checks one dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// Status is the last result of one probe.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

type namedProbe struct {
	name  string
	probe Probe
}

// Monitor wraps robfig/cron and keeps the latest probe results.
type Monitor struct {
	cron    *cron.Cron
	spec    string // cron spec, e.g. "@every 30s"
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.RWMutex
	probes   []namedProbe
	status   map[string]Status
	healthy  bool
	ran      bool
	onChange func(healthy bool)
}

// New returns a Monitor firing on spec. The spec is parsed up front so a
// bad schedule fails at startup.
func New(spec string, log zerolog.Logger) (*Monitor, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse health schedule %q: %w", spec, err)
	}
	log = log.With().Str("component", "scheduler").Logger()
	return &Monitor{
		cron:    cron.New(cron.WithLogger(cronLogger{log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}))),
		spec:    spec,
		timeout: 5 * time.Second,
		log:     log,
		status:  make(map[string]Status),
	}, nil
}

// Add registers a probe. Call before Start.
func (m *Monitor) Add(name string, p Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, namedProbe{name: name, probe: p})
}

// OnChange sets fn to be called whenever overall health flips, and once
// after the first check.
func (m *Monitor) OnChange(fn func(healthy bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Start registers the check job and starts the cron loop. One check runs
// immediately so status is known without waiting for the first tick.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.spec, func() { m.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	m.cron.Start()
	m.log.Info().Str("spec", m.spec).Msg("Health monitor started")

	go m.RunOnce(ctx)
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	m.log.Info().Msg("Health monitor stopped")
}

// RunOnce runs every probe sequentially and records the results.
func (m *Monitor) RunOnce(ctx context.Context) {
	m.mu.RLock()
	probes := append([]namedProbe(nil), m.probes...)
	m.mu.RUnlock()

	results := make([]Status, 0, len(probes))
	for _, p := range probes {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.probe(pctx)
		cancel()

		st := Status{Name: p.name, Healthy: err == nil, CheckedAt: time.Now().UTC()}
		if err != nil {
			st.Error = err.Error()
			m.log.Warn().Err(err).Str("probe", p.name).Msg("Health probe failed")
		}
		results = append(results, st)
	}

	m.mu.Lock()
	healthy := true
	for _, st := range results {
		m.status[st.Name] = st
		healthy = healthy && st.Healthy
	}
	changed := !m.ran || healthy != m.healthy
	m.healthy, m.ran = healthy, true
	fn := m.onChange
	m.mu.Unlock()

	if changed {
		m.log.Info().Bool("healthy", healthy).Msg("Health status changed")
		if fn != nil {
			fn(healthy)
		}
	}
}

// Healthy reports whether the last check passed. It is false before the
// first check completes.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ran && m.healthy
}

// Snapshot returns the latest probe results ordered by name.
func (m *Monitor) Snapshot() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.status))
	for _, st := range m.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron's own logging into zerolog.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
