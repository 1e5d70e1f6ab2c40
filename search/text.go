package search

import "strings"

// Stop words to filter out when scoring keyword overlap and seeding traversal
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "who": true, "what": true, "did": true, "unto": true,
	"shall": true, "his": true, "her": true, "they": true, "them": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// queryTerms returns the distinct filtered tokens of the query, in order of
// first appearance.
func queryTerms(query string) []string {
	tokens := tokenizeAndFilter(query)
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if seen[token] {
			continue
		}
		seen[token] = true
		terms = append(terms, token)
	}
	return terms
}

// significantTerms returns the query terms longer than two characters.
// These serve as traversal seeds when entity extraction yields nothing.
func significantTerms(query string) []string {
	var terms []string
	for _, term := range queryTerms(query) {
		if len(term) > 2 {
			terms = append(terms, term)
		}
	}
	return terms
}

// keywordOverlap returns the fraction of query terms present in the document,
// in [0, 1]. A query with no significant terms scores zero overlap.
func keywordOverlap(document string, terms []string) float32 {
	if len(terms) == 0 {
		return 0
	}

	docWordSet := make(map[string]bool)
	for _, word := range tokenizeAndFilter(document) {
		docWordSet[word] = true
	}

	matched := 0
	for _, term := range terms {
		if docWordSet[term] {
			matched++
		}
	}
	return float32(matched) / float32(len(terms))
}
