package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNodeLabel(t *testing.T) {
	for _, label := range NodeLabels {
		assert.True(t, ValidNodeLabel(label), label)
	}

	assert.False(t, ValidNodeLabel("person"))
	assert.False(t, ValidNodeLabel("Building"))
	assert.False(t, ValidNodeLabel(""))
}

func TestCanonicalEdgeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"spoke to", "SPOKE_TO"},
		{"LED", "LED"},
		{"located-in", "LOCATED_IN"},
		{"  parted ", "PARTED"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalEdgeLabel(tt.in))
	}
}

func TestGraphFragmentEmpty(t *testing.T) {
	var nilFragment *GraphFragment
	assert.True(t, nilFragment.Empty())
	assert.True(t, (&GraphFragment{}).Empty())
	assert.False(t, (&GraphFragment{Nodes: []GraphNode{{Name: "Moses", Label: "Person"}}}).Empty())
}
