package console

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightowl-sec/vantage/internal/assetgraph"
	"github.com/nightowl-sec/vantage/internal/telemetry"
	"github.com/nightowl-sec/vantage/pkg/models"
)

type fakeAPI struct {
	targets  []models.Target
	scans    []models.Scan
	findings []models.Finding

	failTargets  bool
	failScans    bool
	failFindings bool

	scanCalls   int64
	targetCalls int64
}

func (f *fakeAPI) ListTargets(ctx context.Context) ([]models.Target, error) {
	atomic.AddInt64(&f.targetCalls, 1)
	if f.failTargets {
		return nil, fmt.Errorf("targets unavailable")
	}
	return f.targets, nil
}

func (f *fakeAPI) ListScans(ctx context.Context) ([]models.Scan, error) {
	atomic.AddInt64(&f.scanCalls, 1)
	if f.failScans {
		return nil, fmt.Errorf("scans unavailable")
	}
	return f.scans, nil
}

func (f *fakeAPI) ListFindings(ctx context.Context) ([]models.Finding, error) {
	if f.failFindings {
		return nil, fmt.Errorf("findings unavailable")
	}
	return f.findings, nil
}

func newTestPipeline(api Fetcher) *Pipeline {
	return NewPipeline(api, telemetry.NewAggregator(0), assetgraph.NewBuilder(false, nil), nil)
}

func TestRefresh_ProducesDerivedSnapshot(t *testing.T) {
	api := &fakeAPI{
		targets: []models.Target{{ID: 1, Name: "example.com"}},
		scans: []models.Scan{
			{
				ID:       1,
				Target:   &models.TargetRef{ID: 1, Name: "example.com"},
				ScanType: "SUBDOMAIN",
				Status:   models.ScanStatusRunning,
				Result:   models.ScanResult{"subdomains": []interface{}{"api.example.com"}},
			},
		},
		findings: []models.Finding{{ID: 1, Severity: models.SeverityCritical}},
	}
	p := newTestPipeline(api)

	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, 1, snap.Metrics.TargetCount)
	assert.Equal(t, 1, snap.Metrics.ActiveScanCount)
	assert.Equal(t, models.GradeF, snap.Metrics.Grade)
	require.NotNil(t, snap.Graph)
	assert.Len(t, snap.Graph.Nodes, 2)
	assert.NotZero(t, snap.Fingerprint)
	assert.False(t, snap.FetchedAt.IsZero())

	assert.Same(t, snap, p.Current())
}

func TestRefresh_PartialFailureKeepsPreviousSnapshot(t *testing.T) {
	api := &fakeAPI{targets: []models.Target{{ID: 1, Name: "example.com"}}}
	p := newTestPipeline(api)

	first, err := p.Refresh(context.Background())
	require.NoError(t, err)

	api.failFindings = true
	snap, err := p.Refresh(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)

	assert.Same(t, first, p.Current(), "failed cycle must not replace the last good snapshot")
}

func TestRefresh_NoSnapshotBeforeFirstSuccess(t *testing.T) {
	api := &fakeAPI{failTargets: true}
	p := newTestPipeline(api)

	_, err := p.Refresh(context.Background())
	require.Error(t, err)
	assert.Nil(t, p.Current())
}

func TestRefreshScans_ReusesCachedCollections(t *testing.T) {
	api := &fakeAPI{
		targets:  []models.Target{{ID: 1, Name: "example.com"}},
		findings: []models.Finding{{ID: 1, Severity: models.SeverityHigh}},
	}
	p := newTestPipeline(api)

	_, err := p.Refresh(context.Background())
	require.NoError(t, err)
	targetCallsAfterFull := atomic.LoadInt64(&api.targetCalls)

	api.scans = []models.Scan{{ID: 2, ScanType: "DNS", Status: models.ScanStatusRunning}}
	snap, err := p.RefreshScans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, targetCallsAfterFull, atomic.LoadInt64(&api.targetCalls), "scans-only cycle must not refetch targets")
	assert.Equal(t, 1, snap.Metrics.ActiveScanCount)
	assert.Equal(t, models.GradeC, snap.Metrics.Grade, "cached findings still feed the derivation")
	assert.Len(t, snap.Scans, 1)
}

func TestRefreshScans_FallsBackToFullRefresh(t *testing.T) {
	api := &fakeAPI{targets: []models.Target{{ID: 1, Name: "example.com"}}}
	p := newTestPipeline(api)

	snap, err := p.RefreshScans(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), atomic.LoadInt64(&api.targetCalls), "no cached snapshot forces the full cycle")
}

func TestRefreshScans_FailureKeepsPreviousSnapshot(t *testing.T) {
	api := &fakeAPI{scans: []models.Scan{{ID: 1, ScanType: "DNS"}}}
	p := newTestPipeline(api)

	first, err := p.Refresh(context.Background())
	require.NoError(t, err)

	api.failScans = true
	_, err = p.RefreshScans(context.Background())
	require.Error(t, err)
	assert.Same(t, first, p.Current())
}

func TestFingerprint_StableAcrossIdenticalCycles(t *testing.T) {
	api := &fakeAPI{
		targets: []models.Target{{ID: 1, Name: "example.com"}},
		scans:   []models.Scan{{ID: 1, ScanType: "DNS", Status: models.ScanStatusCompleted}},
	}
	p := newTestPipeline(api)

	first, err := p.Refresh(context.Background())
	require.NoError(t, err)
	second, err := p.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint, "unchanged data keeps the fingerprint, so views can skip re-rendering")
}

func TestFingerprint_ChangesWithData(t *testing.T) {
	api := &fakeAPI{scans: []models.Scan{{ID: 1, ScanType: "DNS", Status: models.ScanStatusRunning}}}
	p := newTestPipeline(api)

	first, err := p.Refresh(context.Background())
	require.NoError(t, err)

	api.scans = []models.Scan{{ID: 1, ScanType: "DNS", Status: models.ScanStatusCompleted}}
	second, err := p.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}
