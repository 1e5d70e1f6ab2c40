// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package segment

import (
	"regexp"
	"strings"
)

// sentenceSplitter matches a terminal punctuation mark followed by whitespace.
// Text is split after the punctuation so it stays with its sentence.
var sentenceSplitter = regexp.MustCompile(`([.!?])\s+`)

// Segmenter splits container text into overlapping chunks under word-count
// constraints. The zero value is not usable; construct with New.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter with the given constraints.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{cfg: cfg}, nil
}

// VerseUnit is one verse of a structured container, the indivisible unit of
// verse-boundary segmentation.
type VerseUnit struct {
	Number int
	Text   string
}

// VerseSpan is one emitted chunk of a verse-segmented container, carrying the
// verse range it covers.
type VerseSpan struct {
	Text       string
	StartVerse int
	EndVerse   int
}

// Sentences splits free-form text into sentence-like units on terminal
// punctuation boundaries. Newlines are folded into spaces first so sentences
// spanning line breaks stay whole. Empty units are dropped.
func Sentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	marked := sentenceSplitter.ReplaceAllString(text, "$1\x1f")

	parts := strings.Split(marked, "\x1f")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Segment splits free-form text into chunks on sentence boundaries.
// Returns nil for empty input. A trailing chunk shorter than MinWords is
// merged into the previous chunk unless it is the only chunk.
func (s *Segmenter) Segment(text string) []string {
	return s.accumulate(Sentences(text))
}

// SegmentVerses splits an ordered verse sequence into chunks on verse
// boundaries, carrying the covered verse range per chunk. Verses are never
// split across chunks; overlap seeds repeat whole verses.
func (s *Segmenter) SegmentVerses(verses []VerseUnit) []VerseSpan {
	units := make([]string, 0, len(verses))
	numbers := make([]int, 0, len(verses))
	for _, v := range verses {
		if t := strings.TrimSpace(v.Text); t != "" {
			units = append(units, t)
			numbers = append(numbers, v.Number)
		}
	}
	if len(units) == 0 {
		return nil
	}

	groups := s.accumulateIndexes(units)

	spans := make([]VerseSpan, len(groups))
	for i, g := range groups {
		texts := make([]string, len(g))
		for j, idx := range g {
			texts[j] = units[idx]
		}
		spans[i] = VerseSpan{
			Text:       strings.Join(texts, " "),
			StartVerse: numbers[g[0]],
			EndVerse:   numbers[g[len(g)-1]],
		}
	}
	return spans
}

// accumulate groups units into chunk texts; the grouping logic lives in
// accumulateIndexes so the verse variant can recover unit positions.
func (s *Segmenter) accumulate(units []string) []string {
	groups := s.accumulateIndexes(units)
	if groups == nil {
		return nil
	}

	chunks := make([]string, len(groups))
	for i, g := range groups {
		texts := make([]string, len(g))
		for j, idx := range g {
			texts[j] = units[idx]
		}
		chunks[i] = strings.Join(texts, " ")
	}
	return chunks
}

// accumulateIndexes builds chunk groups as unit index slices. A chunk closes
// when the next unit would push it past MaxWords; the next chunk is seeded
// with the last OverlapUnits indexes of the closed chunk. A trailing group
// under MinWords merges into the previous group unless it is the only one.
func (s *Segmenter) accumulateIndexes(units []string) [][]int {
	if len(units) == 0 {
		return nil
	}

	wordCounts := make([]int, len(units))
	for i, u := range units {
		wordCounts[i] = len(strings.Fields(u))
	}

	var groups [][]int
	var current []int
	words := 0

	for i := range units {
		if words+wordCounts[i] > s.cfg.MaxWords && len(current) > 0 {
			groups = append(groups, current)

			// Seed the next chunk with the tail of the closed one.
			overlap := s.cfg.OverlapUnits
			if overlap > len(current) {
				overlap = len(current)
			}
			seed := current[len(current)-overlap:]
			current = append([]int(nil), seed...)
			words = 0
			for _, idx := range current {
				words += wordCounts[idx]
			}
		}
		current = append(current, i)
		words += wordCounts[i]
	}

	if len(current) > 0 {
		if words >= s.cfg.MinWords || len(groups) == 0 {
			groups = append(groups, current)
		} else {
			last := len(groups) - 1
			groups[last] = mergeWithoutOverlap(groups[last], current)
		}
	}

	return groups
}

// mergeWithoutOverlap appends the trailing group onto the previous one,
// skipping indexes the previous group already holds from overlap seeding.
func mergeWithoutOverlap(prev, tail []int) []int {
	seen := make(map[int]bool, len(prev))
	for _, idx := range prev {
		seen[idx] = true
	}
	for _, idx := range tail {
		if !seen[idx] {
			prev = append(prev, idx)
		}
	}
	return prev
}
