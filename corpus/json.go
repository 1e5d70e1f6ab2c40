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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// translationFile is the on-disk JSON layout of one translation:
// a book list, each book holding chapters, each chapter holding verses.
type translationFile struct {
	Translation string `json:"translation"`
	Books       []struct {
		Name     string `json:"name"`
		Chapters []struct {
			Chapter int `json:"chapter"`
			Verses  []struct {
				Verse int    `json:"verse"`
				Text  string `json:"text"`
			} `json:"verses"`
		} `json:"chapters"`
	} `json:"books"`
}

// JSONLoader loads a translation from a single JSON file.
type JSONLoader struct {
	path        string
	translation string
}

var _ Loader = (*JSONLoader)(nil)

// JSONOption adjusts a JSONLoader.
type JSONOption func(*JSONLoader)

// WithTranslation overrides the translation name declared in the file.
// It also permits files that omit the name entirely.
func WithTranslation(name string) JSONOption {
	return func(l *JSONLoader) {
		l.translation = name
	}
}

// NewJSONLoader creates a loader for the given translation file.
func NewJSONLoader(path string, opts ...JSONOption) *JSONLoader {
	l := &JSONLoader{path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses the file into chapter containers. Books must be canonical;
// blank verse texts are dropped; verses are ordered within each chapter.
func (l *JSONLoader) Load(ctx context.Context) ([]Container, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	return parseTranslation(data, l.translation)
}

func parseTranslation(data []byte, override string) ([]Container, error) {
	var file translationFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing translation file: %w", err)
	}
	if override != "" {
		file.Translation = override
	}
	if file.Translation == "" {
		return nil, fmt.Errorf("parsing translation file: missing translation name")
	}

	var containers []Container
	for _, book := range file.Books {
		if !KnownBook(book.Name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBook, book.Name)
		}
		for _, chapter := range book.Chapters {
			container := Container{
				Translation: file.Translation,
				Book:        book.Name,
				Chapter:     chapter.Chapter,
			}
			for _, verse := range chapter.Verses {
				text := strings.TrimSpace(verse.Text)
				if text == "" {
					continue
				}
				container.Verses = append(container.Verses, Verse{
					Translation: file.Translation,
					Book:        book.Name,
					Chapter:     chapter.Chapter,
					Verse:       verse.Verse,
					Text:        text,
				})
			}
			if len(container.Verses) == 0 {
				continue
			}
			sort.Slice(container.Verses, func(i, j int) bool {
				return container.Verses[i].Verse < container.Verses[j].Verse
			})
			containers = append(containers, container)
		}
	}

	if len(containers) == 0 {
		return nil, ErrEmptyCorpus
	}
	sortContainers(containers)
	return containers, nil
}
