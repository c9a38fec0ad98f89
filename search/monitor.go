package search

import "github.com/poiesic/storyboard/core"

// SearchMonitor observes the stages of a single search.
type SearchMonitor interface {
	Start(query string, k int)
	AfterEmbedding(dims int, cached bool)
	AfterEligibility(eligible, k int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)         {}
func (n *noopMonitor) AfterEmbedding(_ int, _ bool)  {}
func (n *noopMonitor) AfterEligibility(_, _ int)     {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
