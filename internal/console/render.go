package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nightowl-sec/vantage/pkg/models"
)

const timeFormat = "2006-01-02 15:04:05"

func RenderTargets(w io.Writer, targets []models.Target) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDESCRIPTION\tCREATED")
	for _, t := range targets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, t.TargetType, t.Description, t.CreatedAt.Format(timeFormat))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d target(s)\n", len(targets))
}

func RenderScans(w io.Writer, scans []models.Scan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTARGET\tMODULE\tSTATUS\tRESULT\tCREATED")
	for i := range scans {
		s := &scans[i]
		target := s.TargetName()
		if target == "" {
			target = fmt.Sprintf("#%d", s.TargetID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, target, s.ScanType, strings.ToUpper(s.Status),
			s.Result.Preview(), s.CreatedAt.Format(timeFormat))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d scan(s)\n", len(scans))
}

func RenderFindings(w io.Writer, findings []models.Finding) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tTITLE\tREMEDIATION")
	for i := range findings {
		f := &findings[i]
		remediation := f.Remediation
		if remediation == "" {
			remediation = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.NormalizedSeverity(), f.Title, remediation)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d finding(s)\n", len(findings))
}

func RenderDashboard(w io.Writer, m models.DashboardMetrics) {
	fmt.Fprintln(w, "Command Center")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Active Targets:     %d\n", m.TargetCount)
	fmt.Fprintf(w, "Scans in Progress:  %d\n", m.ActiveScanCount)
	fmt.Fprintf(w, "Total Findings:     %d\n", m.FindingCount)
	fmt.Fprintf(w, "Security Grade:     %s\n", m.Grade)

	if breakdown := m.SeverityBreakdown(); len(breakdown) > 0 {
		fmt.Fprintln(w, "\nSeverity Distribution:")
		for _, b := range breakdown {
			fmt.Fprintf(w, "  %-10s %s (%d)\n", b.Severity, bar(b.Count), b.Count)
		}
	} else {
		fmt.Fprintln(w, "\nNo vulnerabilities detected")
	}

	if len(m.ScanTypeHistogram) > 0 {
		fmt.Fprintln(w, "\nScan Module Usage:")
		for _, st := range sortedKeys(m.ScanTypeHistogram) {
			fmt.Fprintf(w, "  %-10s %s (%d)\n", st, bar(m.ScanTypeHistogram[st]), m.ScanTypeHistogram[st])
		}
	}

	if len(m.RecentActivity) > 0 {
		fmt.Fprintln(w, "\nRecent Activity:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  TIMESTAMP\tMODULE\tSTATUS\tPREVIEW")
		for i := range m.RecentActivity {
			s := &m.RecentActivity[i]
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				s.CreatedAt.Format(timeFormat), s.ScanType,
				strings.ToUpper(s.Status), s.Result.Preview())
		}
		tw.Flush()
	}
}

// RenderGraph prints the asset graph as per-target adjacency lists, with
// duplicated edges summarized as a sighting count.
func RenderGraph(w io.Writer, g *models.AssetGraph) {
	groups := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		groups[n.ID] = n.Group
	}

	type edge struct {
		target string
		count  int
	}
	adjacency := make(map[string][]*edge)
	index := make(map[string]*edge)
	for _, l := range g.Links {
		key := l.Source + "\x00" + l.Target
		if e, ok := index[key]; ok {
			e.count++
			continue
		}
		e := &edge{target: l.Target, count: 1}
		index[key] = e
		adjacency[l.Source] = append(adjacency[l.Source], e)
	}

	fmt.Fprintf(w, "Asset Graph: %d node(s), %d link(s)\n\n", len(g.Nodes), len(g.Links))
	for _, n := range g.Nodes {
		if n.Group != models.NodeGroupTarget {
			continue
		}
		fmt.Fprintf(w, "%s [target]\n", n.ID)
		for _, e := range adjacency[n.ID] {
			suffix := ""
			if e.count > 1 {
				suffix = fmt.Sprintf(" (seen %dx)", e.count)
			}
			fmt.Fprintf(w, "  └─ %s [%s]%s\n", e.target, groups[e.target], suffix)
		}
	}

	orphans := 0
	for _, n := range g.Nodes {
		if n.Group == models.NodeGroupTarget {
			continue
		}
		if _, linked := linkedAnywhere(g, n.ID); !linked {
			orphans++
		}
	}
	if orphans > 0 {
		fmt.Fprintf(w, "\n%d unlinked asset(s)\n", orphans)
	}
}

func RenderSnapshotHeader(w io.Writer, snap *Snapshot) {
	fmt.Fprintf(w, "── refreshed %s ──\n", snap.FetchedAt.Format(time.TimeOnly))
}

func linkedAnywhere(g *models.AssetGraph, id string) (models.GraphLink, bool) {
	for _, l := range g.Links {
		if l.Source == id || l.Target == id {
			return l, true
		}
	}
	return models.GraphLink{}, false
}

func bar(n int) string {
	const maxWidth = 40
	if n > maxWidth {
		n = maxWidth
	}
	return strings.Repeat("█", n)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
