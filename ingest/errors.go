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


package ingest

import "errors"

var (
	// ErrLoaderRequired is returned when a corpus loader is not provided.
	ErrLoaderRequired = errors.New("corpus loader required")

	// ErrEmbedderRequired is returned when a batch embedder is not provided.
	ErrEmbedderRequired = errors.New("batch embedder required")

	// ErrExtractorRequired is returned when a graph extractor is not provided.
	ErrExtractorRequired = errors.New("graph extractor required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrGraphStoreRequired is returned when a graph store is not provided.
	ErrGraphStoreRequired = errors.New("graph store required")

	// ErrInvalidBatchSize is returned for a non-positive chunk batch size.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrSetupFailed wraps failures to prepare the stores. Setup failures
	// are fatal: the run aborts before any data is processed.
	ErrSetupFailed = errors.New("store setup failed")
)
