// Package admin backs the back-office tables: bulk-loaded rows edited,
// toggled and deleted optimistically, one record at a time.
package admin

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldType is the storage type of an editable column
type FieldType int

const (
	String FieldType = iota
	Int
	Bool
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	default:
		return "string"
	}
}

// Field describes one editable column. Rules uses validator tags.
type Field struct {
	Column string
	Type   FieldType
	Rules  string
}

// Schema lists the columns of a table an administrator may change
type Schema struct {
	fields   map[string]Field
	validate *validator.Validate
}

// NewSchema creates a schema from fields
func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields:   make(map[string]Field, len(fields)),
		validate: validator.New(),
	}
	for _, f := range fields {
		s.fields[f.Column] = f
	}
	return s
}

// Field returns the definition of column
func (s *Schema) Field(column string) (Field, bool) {
	f, ok := s.fields[column]
	return f, ok
}

// ValidationError maps columns to what is wrong with them
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	columns := make([]string, 0, len(e.Fields))
	for c := range e.Fields {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" "+e.Fields[c])
	}
	return strings.Join(parts, "; ")
}

// ErrNoChanges rejects an empty change set
var ErrNoChanges = errors.New("no fields to update")

// Coerce converts loosely typed input (as decoded from JSON or a form) into
// the column types and checks every rule. Ints come back as int64.
func (s *Schema) Coerce(changes map[string]any) (map[string]any, error) {
	if len(changes) == 0 {
		return nil, ErrNoChanges
	}

	out := make(map[string]any, len(changes))
	problems := map[string]string{}
	for column, raw := range changes {
		f, ok := s.fields[column]
		if !ok {
			problems[column] = "is not editable"
			continue
		}

		v, err := coerce(f.Type, raw)
		if err != nil {
			problems[column] = err.Error()
			continue
		}

		if f.Rules != "" {
			if err := s.validate.Var(v, f.Rules); err != nil {
				problems[column] = describe(err)
				continue
			}
		}
		out[column] = v
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	return out, nil
}

func coerce(t FieldType, raw any) (any, error) {
	switch t {
	case String:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case Int:
		if v, ok := toInt64(raw); ok {
			return v, nil
		}
	case Bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, nil
			}
		}
	}
	switch t {
	case Int:
		return nil, errors.New("must be a whole number")
	case Bool:
		return nil, errors.New("must be true or false")
	}
	return nil, errors.New("must be text")
}

func toInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email"
	default:
		return "failed " + fe.Tag()
	}
}

// Diff returns the entries of proposed that differ from canonical
func Diff(canonical, proposed map[string]any) map[string]any {
	changed := make(map[string]any)
	for column, v := range proposed {
		if cur, ok := canonical[column]; ok && cur == v {
			continue
		}
		changed[column] = v
	}
	return changed
}
