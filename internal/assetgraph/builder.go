package assetgraph

import (
	"github.com/sirupsen/logrus"

	"github.com/nightowl-sec/vantage/pkg/models"
)

// Builder derives the asset-relationship graph from a snapshot of targets
// and scans. Build is pure: the same inputs always produce the same graph,
// and nothing is carried over between calls.
type Builder struct {
	// DedupLinks collapses repeated target→asset edges reported by
	// independent scans. Off by default: duplicate links reflect discovery
	// frequency, which the graph view renders as edge weight.
	DedupLinks bool

	logger *logrus.Logger
}

func NewBuilder(dedupLinks bool, logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Builder{DedupLinks: dedupLinks, logger: logger}
}

func (b *Builder) Build(targets []models.Target, scans []models.Scan) *models.AssetGraph {
	graph := &models.AssetGraph{
		Nodes: make([]models.GraphNode, 0, len(targets)),
		Links: make([]models.GraphLink, 0),
	}
	seen := make(map[string]struct{}, len(targets))
	seenLinks := make(map[models.GraphLink]struct{})

	addNode := func(id, group string, weight int) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		graph.Nodes = append(graph.Nodes, models.GraphNode{ID: id, Group: group, Weight: weight})
	}

	addLink := func(source, target string) {
		link := models.GraphLink{Source: source, Target: target}
		if b.DedupLinks {
			if _, ok := seenLinks[link]; ok {
				return
			}
			seenLinks[link] = struct{}{}
		}
		graph.Links = append(graph.Links, link)
	}

	for _, t := range targets {
		addNode(t.Name, models.NodeGroupTarget, models.NodeWeightTarget)
	}

	for _, scan := range scans {
		targetName := scan.TargetName()
		if targetName == "" {
			// Expected for scans whose target was deleted or not yet
			// hydrated; contributes nothing.
			b.logger.Debugf("Skipping scan %d: no resolvable target", scan.ID)
			continue
		}

		addNode(targetName, models.NodeGroupTarget, models.NodeWeightTarget)

		if scan.Result == nil {
			continue
		}

		if scan.ScanType == "SUBDOMAIN" {
			if subs, ok := scan.Result.Subdomains(); ok {
				for _, sub := range subs {
					addNode(sub, models.NodeGroupSubdomain, models.NodeWeightAsset)
					addLink(targetName, sub)
				}
			}
		}

		if ip, ok := scan.Result.IP(); ok {
			addNode(ip, models.NodeGroupIP, models.NodeWeightAsset)
			addLink(targetName, ip)
		}
	}

	return graph
}
