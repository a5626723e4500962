package models

const (
	NodeGroupTarget    = "target"
	NodeGroupSubdomain = "subdomain"
	NodeGroupIP        = "ip"
)

const (
	NodeWeightTarget = 20
	NodeWeightAsset  = 10
)

// AssetGraph is a derived snapshot view; it is rebuilt from scratch on
// every refresh and never mutated incrementally.
type AssetGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type GraphNode struct {
	ID     string `json:"id"`
	Group  string `json:"group"`
	Weight int    `json:"weight"`
}

type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (g *AssetGraph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
