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


package vectorstore

// Filter is a portable search predicate. Adapters translate filters to their
// backend's native form and must return ErrUnsupportedFilter for anything
// they cannot express.
type Filter interface {
	filter()
}

// EqFilter matches rows whose field equals the value.
type EqFilter struct {
	Field string
	Value any
}

// InFilter matches rows whose field equals any of the values.
type InFilter struct {
	Field  string
	Values []any
}

// GteFilter matches rows whose numeric field is >= the value.
type GteFilter struct {
	Field string
	Value int
}

// LteFilter matches rows whose numeric field is <= the value.
type LteFilter struct {
	Field string
	Value int
}

// AndFilter matches rows satisfying every child filter.
type AndFilter struct {
	Filters []Filter
}

func (EqFilter) filter()  {}
func (InFilter) filter()  {}
func (GteFilter) filter() {}
func (LteFilter) filter() {}
func (AndFilter) filter() {}

// Eq builds an equality predicate.
func Eq(field string, value any) Filter {
	return EqFilter{Field: field, Value: value}
}

// In builds a membership predicate.
func In(field string, values ...any) Filter {
	return InFilter{Field: field, Values: values}
}

// Gte builds a greater-or-equal predicate over a numeric field.
func Gte(field string, value int) Filter {
	return GteFilter{Field: field, Value: value}
}

// Lte builds a less-or-equal predicate over a numeric field.
func Lte(field string, value int) Filter {
	return LteFilter{Field: field, Value: value}
}

// And conjoins predicates. And() with no children matches everything.
func And(filters ...Filter) Filter {
	return AndFilter{Filters: filters}
}
