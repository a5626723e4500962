package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanResult_Accessors(t *testing.T) {
	var raw ScanResult
	require.NoError(t, json.Unmarshal([]byte(`{"subdomains":["a.example.com","b.example.com"],"ip":"10.0.0.5"}`), &raw))

	subs, ok := raw.Subdomains()
	require.True(t, ok)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, subs)

	ip, ok := raw.IP()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", ip)
}

func TestScanResult_AccessorsRejectBadShapes(t *testing.T) {
	cases := []ScanResult{
		nil,
		{},
		{"subdomains": "a.example.com"},
		{"subdomains": []interface{}{1, 2}},
		{"ip": 42},
		{"ip": ""},
	}
	for _, r := range cases {
		_, ok := r.Subdomains()
		assert.False(t, ok)
		_, ok = r.IP()
		assert.False(t, ok)
	}
}

func TestScanResult_Preview(t *testing.T) {
	assert.Equal(t, "...", ScanResult(nil).Preview())
	assert.Equal(t, "data captured", ScanResult{"other": 1}.Preview())
	assert.Equal(t, "https://example.com/login", ScanResult{"url": "https://example.com/login"}.Preview())

	long := strings.Repeat("x", 200)
	p := ScanResult{"raw_output": long}.Preview()
	assert.Len(t, p, 80)
	assert.True(t, strings.HasSuffix(p, "..."))

	multi := ScanResult{"raw_output": "line one\nline two"}.Preview()
	assert.Equal(t, "line one line two", multi, "newlines are flattened for single-line feeds")
}

func TestScan_IsActive(t *testing.T) {
	assert.True(t, (&Scan{Status: ScanStatusPending}).IsActive())
	assert.True(t, (&Scan{Status: ScanStatusRunning}).IsActive())
	assert.False(t, (&Scan{Status: ScanStatusCompleted}).IsActive())
	assert.False(t, (&Scan{Status: ScanStatusFailed}).IsActive())
}

func TestScan_TargetName(t *testing.T) {
	assert.Empty(t, (&Scan{}).TargetName())
	assert.Equal(t, "example.com", (&Scan{Target: &TargetRef{ID: 1, Name: "example.com"}}).TargetName())
}

func TestFinding_NormalizedSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, (&Finding{Severity: "Critical"}).NormalizedSeverity())
	assert.Equal(t, SeverityInfo, (&Finding{Severity: "critical"}).NormalizedSeverity(), "matching is exact, not case-folded")
	assert.Equal(t, SeverityInfo, (&Finding{Severity: ""}).NormalizedSeverity())
	assert.Equal(t, SeverityInfo, (&Finding{Severity: "Unknown"}).NormalizedSeverity())
}

func TestDashboardMetrics_SeverityBreakdown(t *testing.T) {
	m := DashboardMetrics{
		SeverityHistogram: map[string]int{
			SeverityInfo:     4,
			SeverityCritical: 1,
			SeverityMedium:   0,
		},
	}

	buckets := m.SeverityBreakdown()
	require.Len(t, buckets, 2, "zero buckets are omitted")
	assert.Equal(t, SeverityBucket{Severity: SeverityCritical, Count: 1}, buckets[0], "worst first")
	assert.Equal(t, SeverityBucket{Severity: SeverityInfo, Count: 4}, buckets[1])
}

func TestScanCreateRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ScanCreateRequest{TargetID: 1, ScanType: "SUBDOMAIN"}).Validate())
	assert.Error(t, (&ScanCreateRequest{TargetID: 0, ScanType: "SUBDOMAIN"}).Validate())
	assert.Error(t, (&ScanCreateRequest{TargetID: 1, ScanType: "subdomain"}).Validate())
	assert.Error(t, (&ScanCreateRequest{TargetID: 1, ScanType: ""}).Validate())
}

func TestTargetCreateRequest_Validate(t *testing.T) {
	assert.NoError(t, (&TargetCreateRequest{Name: "example.com", TargetType: TargetTypeDomain}).Validate())
	assert.NoError(t, (&TargetCreateRequest{Name: "10.0.0.1", TargetType: TargetTypeIP}).Validate())
	assert.Error(t, (&TargetCreateRequest{Name: "", TargetType: TargetTypeDomain}).Validate())
	assert.Error(t, (&TargetCreateRequest{Name: "example.com", TargetType: "url"}).Validate())
}

func TestAuthRequest_Validate(t *testing.T) {
	assert.NoError(t, (&AuthRequest{Email: "op@example.com", Password: "pw"}).Validate())
	assert.Error(t, (&AuthRequest{Email: "no-at-sign", Password: "pw"}).Validate())
	assert.Error(t, (&AuthRequest{Email: "op@example.com", Password: ""}).Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.API.BaseURL = "ftp://backend"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://backend.internal/api/v1"
	cfg.Console.RecentActivity = 7
	require.NoError(t, cfg.Save(path))

	loaded := &Config{}
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, "https://backend.internal/api/v1", loaded.API.BaseURL)
	assert.Equal(t, 7, loaded.Console.RecentActivity)
}
