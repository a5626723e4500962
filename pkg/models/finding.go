package models

import "time"

const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
	SeverityInfo     = "Info"
)

// SeverityOrder is the worst-first display order used by histograms and
// the findings table.
var SeverityOrder = []string{
	SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo,
}

type Finding struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Remediation string    `json:"remediation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizedSeverity maps whatever the backend sent onto the known scale.
// Absent or unrecognized values count as Info rather than being dropped.
func (f *Finding) NormalizedSeverity() string {
	for _, s := range SeverityOrder {
		if f.Severity == s {
			return s
		}
	}
	return SeverityInfo
}
