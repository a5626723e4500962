package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	ScanStatusPending   = "pending"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanTypes lists the modules the backend can execute, in the order the
// console presents them.
var ScanTypes = []string{
	"DNS", "FUZZ", "NMAP", "SUBDOMAIN", "WEB", "WHOIS",
	"WAF", "SSL", "API", "CVE", "HONEYPOT",
}

type Scan struct {
	ID        int        `json:"id"`
	TargetID  int        `json:"target_id"`
	Target    *TargetRef `json:"target,omitempty"`
	ScanType  string     `json:"scan_type"`
	Status    string     `json:"status"`
	Result    ScanResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Scan) IsActive() bool {
	return s.Status == ScanStatusPending || s.Status == ScanStatusRunning
}

// TargetName resolves the owning target's name, or "" when the relation is
// missing. Scans without a resolvable target are expected mid-scan and are
// skipped by the graph builder.
func (s *Scan) TargetName() string {
	if s.Target == nil {
		return ""
	}
	return s.Target.Name
}

// ScanResult is the loosely typed module output. Its shape depends on the
// scan type and may be absent entirely; accessors report ok=false instead
// of failing on unexpected shapes.
type ScanResult map[string]interface{}

func (r ScanResult) Subdomains() ([]string, bool) {
	raw, ok := r["subdomains"]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	subs := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		subs = append(subs, s)
	}
	return subs, len(subs) > 0
}

func (r ScanResult) IP() (string, bool) {
	ip, ok := r["ip"].(string)
	return ip, ok && ip != ""
}

// Preview returns a one-line summary for activity feeds: the probed URL if
// present, otherwise the head of the raw output, otherwise a placeholder.
func (r ScanResult) Preview() string {
	if r == nil {
		return "..."
	}
	if u, ok := r["url"].(string); ok && u != "" {
		return u
	}
	if out, ok := r["raw_output"].(string); ok && out != "" {
		out = strings.ReplaceAll(out, "\n", " ")
		if len(out) > 80 {
			out = out[:77] + "..."
		}
		return out
	}
	return "data captured"
}

type ScanCreateRequest struct {
	TargetID int    `json:"target_id"`
	ScanType string `json:"scan_type"`
}

func (r *ScanCreateRequest) Validate() error {
	if r.TargetID <= 0 {
		return fmt.Errorf("target id is required")
	}
	for _, t := range ScanTypes {
		if r.ScanType == t {
			return nil
		}
	}
	return fmt.Errorf("unknown scan type: %s", r.ScanType)
}
