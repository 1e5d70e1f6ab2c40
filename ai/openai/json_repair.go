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


package openai

import "strings"

// graphPayloadKeys are the only keys the extraction prompts ask for. The
// repair pass re-quotes these and nothing else, so value text that happens
// to look like a bare key is left alone.
var graphPayloadKeys = map[string]bool{
	"entities": true,
	"nodes":    true,
	"edges":    true,
	"name":     true,
	"label":    true,
	"source":   true,
	"target":   true,
	"type":     true,
}

// repairExtractorJSON patches the two malformations small local models
// produce in practice: payload keys missing their opening quote
// (`name": "Moses"`) and a trailing comma before a closing bracket. Anything
// it does not recognize passes through untouched; a decode that still fails
// is handled by the extractor's retry loop.
func repairExtractorJSON(s string) string {
	return stripTrailingCommas(requoteKeys(s))
}

// requoteKeys restores the opening quote on known payload keys appearing
// after '{' or ',' plus optional whitespace.
func requoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		ch := s[i]
		b.WriteByte(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		j := i
		for j < len(s) && isJSONSpace(s[j]) {
			j++
		}
		k := j
		for k < len(s) && isKeyByte(s[k]) {
			k++
		}
		if k > j && k+1 < len(s) && s[k] == '"' && s[k+1] == ':' && graphPayloadKeys[s[j:k]] {
			b.WriteString(s[i:j])
			b.WriteByte('"')
			b.WriteString(s[j:k])
			i = k
		}
	}
	return b.String()
}

// stripTrailingCommas drops a comma that directly precedes '}' or ']',
// ignoring whitespace in between. Commas inside string values are kept.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' && (i == 0 || s[i-1] != '\\') {
			inString = !inString
		}
		if ch == ',' && !inString {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isKeyByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b == '_'
}
