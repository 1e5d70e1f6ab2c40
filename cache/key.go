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


package cache

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// Key builds a cache key of the form "<kind>:<hex>", where hex is a blake2b
// digest over the parts. Parts are length-prefixed before hashing so that
// ("ab", "c") and ("a", "bc") never collide. Identical inputs always produce
// identical keys, so distinct providers or models must appear among the parts.
func Key(kind string, parts ...string) string {
	h, _ := blake2b.New(16, nil)
	var lenBuf [4]byte
	for _, p := range parts {
		n := len(p)
		lenBuf[0] = byte(n)
		lenBuf[1] = byte(n >> 8)
		lenBuf[2] = byte(n >> 16)
		lenBuf[3] = byte(n >> 24)
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// EmbeddingKey builds the cache key for one embedded text. The provider and
// model participate in the digest so switching either invalidates nothing it
// shouldn't and reuses nothing it can't.
func EmbeddingKey(provider, model, text string) string {
	return Key("emb", provider, model, text)
}
