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


package corpus

import (
	"context"
	"fmt"
	"sort"

	"github.com/poiesic/scriptura/segment"
)

// Verse is one numbered verse of a translation.
type Verse struct {
	Translation string
	Book        string
	Chapter     int
	Verse       int
	Text        string
}

// Container is one chapter's verses in ascending verse order. It is the unit
// of ingestion work: chunk ordinals are scoped to a container.
type Container struct {
	Translation string
	Book        string
	Chapter     int
	Verses      []Verse
}

// Key returns a stable identifier for the container, e.g. "KJV/Genesis/1".
func (c *Container) Key() string {
	return fmt.Sprintf("%s/%s/%d", c.Translation, c.Book, c.Chapter)
}

// Units converts the container's verses into segmentation units.
func (c *Container) Units() []segment.VerseUnit {
	units := make([]segment.VerseUnit, len(c.Verses))
	for i, v := range c.Verses {
		units[i] = segment.VerseUnit{Number: v.Verse, Text: v.Text}
	}
	return units
}

// Loader reads a translation into chapter containers.
type Loader interface {
	// Load returns all containers of the translation, sorted by canonical
	// book order and chapter. Implementations must not return an empty
	// corpus silently; they return ErrEmptyCorpus instead.
	Load(ctx context.Context) ([]Container, error)
}

// FilterBooks keeps only containers whose book is in the given set.
// An empty set keeps everything. Unknown names in the set are an error so a
// misspelled filter cannot silently ingest nothing.
func FilterBooks(containers []Container, books []string) ([]Container, error) {
	if len(books) == 0 {
		return containers, nil
	}

	keep := make(map[string]bool, len(books))
	for _, book := range books {
		if !KnownBook(book) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBook, book)
		}
		keep[book] = true
	}

	var filtered []Container
	for _, c := range containers {
		if keep[c.Book] {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// sortContainers orders containers canonically: book order, then chapter.
func sortContainers(containers []Container) {
	sort.Slice(containers, func(i, j int) bool {
		bi, bj := BookIndex(containers[i].Book), BookIndex(containers[j].Book)
		if bi != bj {
			return bi < bj
		}
		return containers[i].Chapter < containers[j].Chapter
	})
}
