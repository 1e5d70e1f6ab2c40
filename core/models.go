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


package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that re-ingesting the same
// corpus produces the same identifiers.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the ID formatted as a fixed-width hex string.
// Used as the primary key in external stores that want string keys.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Chunk is a retrieval-sized passage of source text with structural provenance.
// It may be enriched with an embedding after creation; all other fields are
// immutable once the chunk's container has been fully segmented.
type Chunk struct {
	Id          ID
	Content     string
	WordCount   int
	CharCount   int
	Translation string // Source collection, e.g. "KJV"
	Book        string
	Chapter     int
	StartVerse  int
	EndVerse    int
	Ordinal     int               // Position within the parent container, assigned once
	Metadata    map[string]string // Open classification map (testament, genre, themes)
	Embedding   []float32         // Populated by the embedding client; nil until then
	CreatedAt   time.Time
}

// NewChunk creates a chunk from passage text and its structural reference.
// Word and character counts are derived from the content; the ID is
// content-addressed over the full structural reference plus text.
func NewChunk(content, translation, book string, chapter, startVerse, endVerse int) *Chunk {
	content = strings.TrimSpace(content)
	c := &Chunk{
		Content:     content,
		WordCount:   len(strings.Fields(content)),
		CharCount:   len(content),
		Translation: translation,
		Book:        book,
		Chapter:     chapter,
		StartVerse:  startVerse,
		EndVerse:    endVerse,
		Metadata:    map[string]string{},
		CreatedAt:   time.Now().UTC(),
	}
	c.Id = IDFromContent(fmt.Sprintf("%s|%s|%d|%d-%d|%s", translation, book, chapter, startVerse, endVerse, content))
	return c
}

// Ref returns the passage reference, e.g. "Genesis 1:1-7".
// Returns an empty string for chunks without a structural reference.
func (c *Chunk) Ref() string {
	if c.Book == "" {
		return ""
	}
	if c.StartVerse == c.EndVerse {
		return fmt.Sprintf("%s %d:%d", c.Book, c.Chapter, c.StartVerse)
	}
	return fmt.Sprintf("%s %d:%d-%d", c.Book, c.Chapter, c.StartVerse, c.EndVerse)
}

// HasEmbedding reports whether the chunk carries a non-empty embedding.
// A chunk without an embedding must never be inserted into the vector index.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// SearchHit is one ranked result from the vector index.
type SearchHit struct {
	ChunkId     ID
	Content     string
	Translation string
	Book        string
	Chapter     int
	StartVerse  int
	EndVerse    int
	Distance    float32 // Raw engine distance/similarity, metric-dependent
	Score       float32 // Normalized similarity in [0,1]
	Keyword     float32 // Keyword-overlap fraction in [0,1]
	Combined    float32 // 0.7*Score + 0.3*Keyword, computed once at ranking time
}

// Ref returns the hit's passage reference, mirroring Chunk.Ref.
func (h *SearchHit) Ref() string {
	if h.Book == "" {
		return ""
	}
	if h.StartVerse == h.EndVerse {
		return fmt.Sprintf("%s %d:%d", h.Book, h.Chapter, h.StartVerse)
	}
	return fmt.Sprintf("%s %d:%d-%d", h.Book, h.Chapter, h.StartVerse, h.EndVerse)
}

// GraphRecord is one result from a bounded-depth graph traversal.
type GraphRecord struct {
	Source        string
	SourceLabel   string
	Target        string
	TargetLabel   string
	Relationships []string // Relationship types along the path, in order
	Hops          int
	Relevance     float32 // Non-increasing in Hops for fixed node importance
}
