package search

import "github.com/poiesic/scriptura/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterVectorSearch(hits []core.SearchHit)
	AfterSeedSelection(source SeedSource, seeds []string)
	AfterTraversal(records []core.GraphRecord)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterVectorSearch(_ []core.SearchHit)        {}
func (n *noopMonitor) AfterSeedSelection(_ SeedSource, _ []string) {}
func (n *noopMonitor) AfterTraversal(_ []core.GraphRecord)         {}
func (n *noopMonitor) Finish(_ *Response)                          {}
