// Package corpus models the source text: verses grouped into chapter
// containers, canonical book ordering, and testament/genre classification.
// A Loader reads a translation from an external representation into
// containers ready for ingestion.
package corpus
