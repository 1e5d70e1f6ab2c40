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


package graphstore

import (
	"slices"
	"strings"

	"github.com/poiesic/scriptura/core"
)

// Relevance scores a traversal record from node importance and path length.
// The base is the summed endpoint importance, penalized by hop count:
// base/(1+hops). For fixed importance the score strictly decreases with
// distance, so closer connections always rank first.
func Relevance(sourceImportance, targetImportance float32, hops int) float32 {
	if hops < 0 {
		hops = 0
	}
	return (sourceImportance + targetImportance) / float32(1+hops)
}

// DegreeImportance derives node importance from connectivity: a node's
// degree scaled into (0, 1]. Hub entities like major figures rank above
// entities mentioned once.
func DegreeImportance(degree, maxDegree int) float32 {
	if degree < 1 {
		degree = 1
	}
	if maxDegree < degree {
		maxDegree = degree
	}
	return float32(degree) / float32(maxDegree)
}

// SortRecords orders records by relevance descending, breaking ties by
// target then source name so results are deterministic.
func SortRecords(records []core.GraphRecord) {
	slices.SortFunc(records, func(a, b core.GraphRecord) int {
		if a.Relevance > b.Relevance {
			return -1
		}
		if a.Relevance < b.Relevance {
			return 1
		}
		if c := strings.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return strings.Compare(a.Source, b.Source)
	})
}
