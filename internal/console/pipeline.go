package console

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/nightowl-sec/vantage/internal/assetgraph"
	"github.com/nightowl-sec/vantage/internal/telemetry"
	"github.com/nightowl-sec/vantage/pkg/models"
	"github.com/nightowl-sec/vantage/pkg/utils"
)

// Fetcher is the slice of the gateway client the pipeline needs.
type Fetcher interface {
	ListTargets(ctx context.Context) ([]models.Target, error)
	ListScans(ctx context.Context) ([]models.Scan, error)
	ListFindings(ctx context.Context) ([]models.Finding, error)
}

// Snapshot is one consistent view of the backend's collections plus
// everything derived from them. Derivation never runs on partial data: a
// snapshot either replaces the previous one wholesale or not at all.
type Snapshot struct {
	Targets  []models.Target
	Scans    []models.Scan
	Findings []models.Finding

	Metrics models.DashboardMetrics
	Graph   *models.AssetGraph

	// Fingerprint hashes the raw collections so watch views can skip
	// re-rendering when nothing changed between polls.
	Fingerprint uint64
	FetchedAt   time.Time
}

type Pipeline struct {
	api        Fetcher
	aggregator *telemetry.Aggregator
	builder    *assetgraph.Builder
	logger     *logrus.Logger
	metrics    *utils.MetricsCollector

	mu      sync.RWMutex
	current *Snapshot
}

func NewPipeline(api Fetcher, aggregator *telemetry.Aggregator, builder *assetgraph.Builder, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		api:        api,
		aggregator: aggregator,
		builder:    builder,
		logger:     logger,
	}
}

func (p *Pipeline) SetMetrics(m *utils.MetricsCollector) {
	p.metrics = m
}

// Current returns the last successful snapshot, or nil before the first
// refresh completes.
func (p *Pipeline) Current() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Refresh fetches all three collections concurrently and joins them before
// deriving. If any fetch fails the cycle is abandoned and the previous
// snapshot stays in place, stale but consistent.
func (p *Pipeline) Refresh(ctx context.Context) (*Snapshot, error) {
	var (
		targets  []models.Target
		scans    []models.Scan
		findings []models.Finding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		targets, err = p.api.ListTargets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		scans, err = p.api.ListScans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		findings, err = p.api.ListFindings(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		if p.metrics != nil {
			p.metrics.CountStaleCycle()
		}
		p.logger.Debugf("Refresh cycle aborted: %v", err)
		return nil, err
	}

	return p.commit(targets, scans, findings), nil
}

// RefreshScans refetches only the scans collection, reusing the cached
// targets and findings; the scan-history watch view uses this lighter
// cycle. Falls back to a full refresh when no snapshot exists yet.
func (p *Pipeline) RefreshScans(ctx context.Context) (*Snapshot, error) {
	prev := p.Current()
	if prev == nil {
		return p.Refresh(ctx)
	}

	scans, err := p.api.ListScans(ctx)
	if err != nil {
		if p.metrics != nil {
			p.metrics.CountStaleCycle()
		}
		return nil, err
	}

	return p.commit(prev.Targets, scans, prev.Findings), nil
}

func (p *Pipeline) commit(targets []models.Target, scans []models.Scan, findings []models.Finding) *Snapshot {
	snap := &Snapshot{
		Targets:     targets,
		Scans:       scans,
		Findings:    findings,
		Fingerprint: fingerprint(targets, scans, findings),
		FetchedAt:   time.Now(),
	}

	derive := func() {
		snap.Metrics = p.aggregator.Aggregate(targets, scans, findings)
		snap.Graph = p.builder.Build(targets, scans)
	}
	if p.metrics != nil {
		p.metrics.TimeDerive(derive)
	} else {
		derive()
	}

	p.mu.Lock()
	p.current = snap
	p.mu.Unlock()
	return snap
}

func fingerprint(targets []models.Target, scans []models.Scan, findings []models.Finding) uint64 {
	h := xxh3.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(targets)
	_ = enc.Encode(scans)
	_ = enc.Encode(findings)
	return h.Sum64()
}
