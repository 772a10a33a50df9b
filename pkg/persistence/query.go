// Copyright 2025 UMH Systems GmbH
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

package persistence

// DefaultMaxFindLimit caps a Find when the query sets no max of its own.
const DefaultMaxFindLimit = 1000

// Operator is a comparison operator in MongoDB notation. Ordered operators
// (Gt, Gte, Lt, Lte) compare timestamps chronologically and everything else
// as strings; In and Nin take a []string.
//
//	query := persistence.NewQuery().
//	    ForLine("CMPR-2").
//	    Filter(persistence.FieldStatus, persistence.In, []string{"OCZEKUJE_NA_ZWOLNIENIE", "DO_DECYZJI_KIEROWNIKA"}).
//	    Newest()
type Operator string

const (
	Eq  Operator = "$eq"
	Ne  Operator = "$ne"
	Gt  Operator = "$gt"
	Gte Operator = "$gte"
	Lt  Operator = "$lt"
	Lte Operator = "$lte"
	In  Operator = "$in"
	Nin Operator = "$nin"
)

// Queryable muster fields.
const (
	FieldID        = "id"
	FieldArea      = "area"
	FieldLine      = "line"
	FieldSection   = "section"
	FieldStatus    = "status"
	FieldCreatedBy = "createdBy"
	FieldTimestamp = "timestamp"
)

// FilterCondition is a single filter criterion.
type FilterCondition struct {
	Field string
	Op    Operator
	Value interface{}
}

// SortOrder follows MongoDB: 1 ascending, -1 descending.
type SortOrder int

const (
	Asc  SortOrder = 1
	Desc SortOrder = -1
)

type SortField struct {
	Field string
	Order SortOrder
}

// Query holds filtering, sorting and pagination criteria.
//
// Filters combine with AND. The first sort field is the primary key and later
// ones break ties. Without any sort field results come back ordered by id.
type Query struct {
	Filters      []FilterCondition
	SortBy       []SortField
	LimitCount   int
	SkipCount    int
	MaxFindLimit int
}

func NewQuery() *Query {
	return &Query{}
}

// Filter adds a filter condition to the query.
func (q *Query) Filter(field string, op Operator, value interface{}) *Query {
	q.Filters = append(q.Filters, FilterCondition{Field: field, Op: op, Value: value})

	return q
}

// ForLine restricts the query to musters of one production line.
func (q *Query) ForLine(line string) *Query {
	return q.Filter(FieldLine, Eq, line)
}

// InLines restricts the query to musters of any of the given lines.
func (q *Query) InLines(lines []string) *Query {
	return q.Filter(FieldLine, In, lines)
}

// Sort adds a sort field to the query.
func (q *Query) Sort(field string, order SortOrder) *Query {
	q.SortBy = append(q.SortBy, SortField{Field: field, Order: order})

	return q
}

// Newest sorts by creation time, newest first.
func (q *Query) Newest() *Query {
	return q.Sort(FieldTimestamp, Desc)
}

// Limit sets the maximum number of documents to return. Zero or negative means
// the max find limit.
func (q *Query) Limit(count int) *Query {
	q.LimitCount = max(count, 0)

	return q
}

// Skip sets the number of documents to skip before returning results.
func (q *Query) Skip(count int) *Query {
	q.SkipCount = max(count, 0)

	return q
}

// WithMaxFindLimit overrides DefaultMaxFindLimit for this query.
func (q *Query) WithMaxFindLimit(limit int) *Query {
	q.MaxFindLimit = max(limit, 0)

	return q
}

// EffectiveLimit is the number of documents Find may return. It never exceeds the max find limit.
func (q *Query) EffectiveLimit() int {
	maxLimit := q.MaxFindLimit
	if maxLimit == 0 {
		maxLimit = DefaultMaxFindLimit
	}

	if q.LimitCount == 0 || q.LimitCount > maxLimit {
		return maxLimit
	}

	return q.LimitCount
}
