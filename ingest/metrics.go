package ingest

import "fmt"

// Metrics is a snapshot of one ingestion run's counters.
type Metrics struct {
	Containers       uint64
	ContainersFailed uint64
	Verses           uint64
	Chunks           uint64
	Embedded         uint64

	// SkippedChunks counts chunks that never reached the vector store,
	// whether the embedding call or the insert itself failed.
	SkippedChunks uint64

	// GraphErrors counts chunks whose extraction or graph writes failed.
	// Independent of SkippedChunks: one chunk can fail both ways.
	GraphErrors uint64

	VectorInserted uint64
	NodesWritten   uint64
	EdgesWritten   uint64
}

// ErrorRate is the fraction of chunks that hit any failure, in [0, 1].
// Skipped chunks, failed vector inserts, and graph-build errors all count.
func (m Metrics) ErrorRate() float64 {
	if m.Chunks == 0 {
		return 0
	}
	failures := m.SkippedChunks + m.GraphErrors
	if failures > m.Chunks {
		failures = m.Chunks
	}
	return float64(failures) / float64(m.Chunks)
}

// Summary renders the counters for the end-of-run report.
func (m Metrics) Summary() string {
	return fmt.Sprintf(
		"containers=%d failed=%d verses=%d chunks=%d embedded=%d skipped=%d graph_errors=%d inserted=%d nodes=%d edges=%d error_rate=%.1f%%",
		m.Containers, m.ContainersFailed, m.Verses, m.Chunks, m.Embedded,
		m.SkippedChunks, m.GraphErrors, m.VectorInserted, m.NodesWritten,
		m.EdgesWritten, m.ErrorRate()*100)
}
