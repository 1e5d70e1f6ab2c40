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

// Config holds size constraints for segmentation.
type Config struct {
	// MaxWords is the word count at which a chunk is closed.
	// A chunk is closed before the unit that would push it past this limit.
	MaxWords int

	// MinWords is the minimum word count for a standalone trailing chunk.
	// A trailing chunk below this is merged into the previous chunk, unless
	// it is the only chunk produced.
	MinWords int

	// OverlapUnits is the number of trailing units (sentences or verses)
	// from a closed chunk that seed the next chunk.
	OverlapUnits int
}

// DefaultConfig returns constraints tuned for scripture-length passages:
// roughly 200-300 word chunks with a single unit of overlap.
func DefaultConfig() Config {
	return Config{
		MaxWords:     300,
		MinWords:     200,
		OverlapUnits: 1,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.MaxWords <= 0 {
		return ErrInvalidMaxWords
	}
	if c.MinWords < 0 || c.MinWords > c.MaxWords {
		return ErrInvalidMinWords
	}
	if c.OverlapUnits < 0 {
		return ErrInvalidOverlap
	}
	return nil
}
