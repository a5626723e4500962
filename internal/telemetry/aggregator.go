package telemetry

import (
	"github.com/nightowl-sec/vantage/pkg/models"
)

// Aggregator derives dashboard metrics from raw backend collections.
// Aggregate is pure and never fails: malformed individual records degrade
// to their defaults instead of aborting the derivation.
type Aggregator struct {
	// RecentLimit bounds the activity feed. Zero means the default of 5.
	RecentLimit int
}

const defaultRecentLimit = 5

func NewAggregator(recentLimit int) *Aggregator {
	return &Aggregator{RecentLimit: recentLimit}
}

// Aggregate expects scans in the order the backend returned them, which is
// most-recent-first; the activity feed is a plain truncation of that order.
func (a *Aggregator) Aggregate(targets []models.Target, scans []models.Scan, findings []models.Finding) models.DashboardMetrics {
	metrics := models.DashboardMetrics{
		TargetCount:       len(targets),
		FindingCount:      len(findings),
		SeverityHistogram: make(map[string]int),
		ScanTypeHistogram: make(map[string]int),
	}

	for i := range scans {
		if scans[i].IsActive() {
			metrics.ActiveScanCount++
		}
		metrics.ScanTypeHistogram[scans[i].ScanType]++
	}

	for i := range findings {
		metrics.SeverityHistogram[findings[i].NormalizedSeverity()]++
	}

	metrics.Grade = grade(metrics.SeverityHistogram)

	limit := a.RecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > len(scans) {
		limit = len(scans)
	}
	metrics.RecentActivity = append([]models.Scan(nil), scans[:limit]...)

	return metrics
}

// grade is a strict worst-first precedence chain, not a weighted score:
// one Critical finding is an F no matter what else is present. Low and
// Info findings never move the grade.
func grade(severities map[string]int) string {
	switch {
	case severities[models.SeverityCritical] > 0:
		return models.GradeF
	case severities[models.SeverityHigh] > 0:
		return models.GradeC
	case severities[models.SeverityMedium] > 0:
		return models.GradeB
	default:
		return models.GradeA
	}
}
