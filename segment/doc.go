// Package segment splits container text into retrieval-sized, overlapping
// passages. Splitting happens on sentence boundaries for free-form text and
// on verse boundaries for structured corpora; verses are never split.
//
// Segmentation is a pure function: identical input and configuration always
// produce an identical chunk sequence.
package segment
