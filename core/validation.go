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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - StartVerse must not exceed EndVerse when a verse range is present
//   - Ordinal must not be negative
//
// NOT validated (populated later in the pipeline):
//   - Embedding (nil until the embedding client succeeds)
//   - Metadata (open map, additive only)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.StartVerse > 0 && chunk.EndVerse > 0 && chunk.StartVerse > chunk.EndVerse {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidChunk, ErrInvalidVerseRange, chunk.StartVerse, chunk.EndVerse)
	}

	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOrdinal)
	}

	return nil
}
