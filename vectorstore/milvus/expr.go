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


package milvus

import (
	"fmt"
	"strings"

	"github.com/poiesic/scriptura/vectorstore"
)

// renderExpr translates the portable filter algebra into a Milvus boolean
// expression. An empty string means no restriction. Predicates the renderer
// cannot express return vectorstore.ErrUnsupportedFilter.
func renderExpr(filter vectorstore.Filter) (string, error) {
	switch f := filter.(type) {
	case nil:
		return "", nil
	case vectorstore.EqFilter:
		lit, err := renderLiteral(f.Value)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Field, err)
		}
		return fmt.Sprintf("%s == %s", f.Field, lit), nil
	case vectorstore.InFilter:
		if len(f.Values) == 0 {
			return "", fmt.Errorf("field %q: %w: empty value set", f.Field, vectorstore.ErrUnsupportedFilter)
		}
		lits := make([]string, len(f.Values))
		for i, v := range f.Values {
			lit, err := renderLiteral(v)
			if err != nil {
				return "", fmt.Errorf("field %q: %w", f.Field, err)
			}
			lits[i] = lit
		}
		return fmt.Sprintf("%s in [%s]", f.Field, strings.Join(lits, ", ")), nil
	case vectorstore.GteFilter:
		return fmt.Sprintf("%s >= %d", f.Field, f.Value), nil
	case vectorstore.LteFilter:
		return fmt.Sprintf("%s <= %d", f.Field, f.Value), nil
	case vectorstore.AndFilter:
		var parts []string
		for _, child := range f.Filters {
			expr, err := renderExpr(child)
			if err != nil {
				return "", err
			}
			if expr != "" {
				parts = append(parts, "("+expr+")")
			}
		}
		return strings.Join(parts, " and "), nil
	default:
		return "", fmt.Errorf("%w: %T", vectorstore.ErrUnsupportedFilter, filter)
	}
}

// renderLiteral formats a scalar for embedding into an expression.
func renderLiteral(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return `"` + escapeString(v) + `"`, nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int32:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	default:
		return "", fmt.Errorf("%w: literal type %T", vectorstore.ErrUnsupportedFilter, value)
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
