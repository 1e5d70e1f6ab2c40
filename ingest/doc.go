// Package ingest orchestrates corpus ingestion: loading chapter containers,
// segmenting verses into chunks, embedding and graph-extracting chunk batches
// concurrently, and writing the results to the vector and graph stores.
//
// Failures local to one chunk or batch never abort a run; they are counted
// and reported in the final metrics. Only setup failures are fatal.
package ingest
