package models

const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeF = "F"
)

// DashboardMetrics is everything the dashboard panel renders, derived from
// one consistent snapshot of targets, scans and findings.
type DashboardMetrics struct {
	TargetCount       int            `json:"target_count"`
	ActiveScanCount   int            `json:"active_scan_count"`
	FindingCount      int            `json:"finding_count"`
	SeverityHistogram map[string]int `json:"severity_histogram"`
	ScanTypeHistogram map[string]int `json:"scan_type_histogram"`
	Grade             string         `json:"grade"`
	RecentActivity    []Scan         `json:"recent_activity"`
}

// SeverityBreakdown projects the histogram for display: nonzero buckets
// only, worst severity first.
func (m *DashboardMetrics) SeverityBreakdown() []SeverityBucket {
	buckets := make([]SeverityBucket, 0, len(SeverityOrder))
	for _, sev := range SeverityOrder {
		if n := m.SeverityHistogram[sev]; n > 0 {
			buckets = append(buckets, SeverityBucket{Severity: sev, Count: n})
		}
	}
	return buckets
}

type SeverityBucket struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}
