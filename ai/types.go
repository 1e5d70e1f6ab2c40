package ai

import "strings"

// NodeLabels defines the valid labels for extracted graph nodes.
// Extractors must map every node onto one of these categories.
var NodeLabels = []string{
	"Person",
	"Place",
	"Topic",
	"Event",
	"Book",
	"Chapter",
	"Verse",
}

// GraphNode is a single entity extracted from passage text.
type GraphNode struct {
	// Name is the entity identifier, e.g. "Moses" or "Red Sea".
	Name string

	// Label categorizes the entity and must be one of NodeLabels.
	Label string
}

// GraphEdge is a directed relationship between two extracted entities.
type GraphEdge struct {
	// Source and Target name the endpoint nodes.
	Source string
	Target string

	// Label is an uppercase verb phrase with underscores,
	// e.g. "LED", "SPOKE_TO", "LOCATED_IN".
	Label string
}

// GraphFragment is the set of nodes and edges extracted from one passage.
// A fragment may be empty; empty fragments are valid and common for text
// with no identifiable entities.
type GraphFragment struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// Empty reports whether the fragment holds no nodes and no edges.
func (f *GraphFragment) Empty() bool {
	return f == nil || (len(f.Nodes) == 0 && len(f.Edges) == 0)
}

// ValidNodeLabel reports whether label is one of the permitted node labels.
func ValidNodeLabel(label string) bool {
	for _, l := range NodeLabels {
		if l == label {
			return true
		}
	}
	return false
}

// CanonicalEdgeLabel converts a free-form relationship phrase to the uppercase
// underscore convention used for edge labels.
func CanonicalEdgeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.ReplaceAll(label, " ", "_")
	label = strings.ReplaceAll(label, "-", "_")
	return strings.ToUpper(label)
}
