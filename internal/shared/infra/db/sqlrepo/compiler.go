package sqlrepo

import (
	"fmt"
	"strings"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

// predicate is a compiled SQL fragment plus its bind arguments.
type predicate struct {
	sql  string
	args []any
}

func (p predicate) empty() bool { return p.sql == "" }

// compileCriteria compiles every filter pair independently, resolving
// field references against the entity schema, and combines the fragments
// with the logical operator. Join-qualified pairs additionally report the
// relationship's load strategy so the caller can attach it to the query.
func compileCriteria(d Dialect, schema *domain.Schema, filters domain.Filters, op domain.LogicalOperator) (predicate, []domain.Relation, error) {
	if len(filters) == 0 {
		return predicate{}, nil, nil
	}

	var fragments []string
	var args []any
	var loads []domain.Relation

	for _, f := range filters {
		cond, err := domain.ParseCondition(f.Key, f.Value)
		if err != nil {
			return predicate{}, nil, err
		}

		if cond.Relation != "" {
			rel, err := schema.Relation(cond.Relation)
			if err != nil {
				return predicate{}, nil, err
			}
			frag, condArgs, err := compileJoinCondition(d, schema, rel, cond)
			if err != nil {
				return predicate{}, nil, err
			}
			fragments = append(fragments, frag)
			args = append(args, condArgs...)
			loads = append(loads, rel)
			continue
		}

		if !schema.HasColumn(cond.Field) {
			return predicate{}, nil, fmt.Errorf("%w: %q is not a column of %s", domain.ErrInvalidFilterAttribute, cond.Field, schema.Table)
		}
		frag, condArgs, err := compileCondition(d, schema.Table, cond)
		if err != nil {
			return predicate{}, nil, err
		}
		fragments = append(fragments, frag)
		args = append(args, condArgs...)
	}

	glue := " AND "
	if op == domain.OpOr {
		glue = " OR "
	}
	return predicate{sql: "(" + strings.Join(fragments, glue) + ")", args: args}, loads, nil
}

// compileJoinCondition constrains base rows through an EXISTS subquery on
// the related table, correlated on the declared join columns. The
// condition's field is resolved against the related entity's own schema.
func compileJoinCondition(d Dialect, base *domain.Schema, rel domain.Relation, cond domain.Condition) (string, []any, error) {
	ref := rel.Ref()
	if !ref.HasColumn(cond.Field) {
		return "", nil, fmt.Errorf("%w: %q is not a column of %s", domain.ErrInvalidFilterAttribute, cond.Field, ref.Table)
	}
	inner, args, err := compileCondition(d, rel.Table, cond)
	if err != nil {
		return "", nil, err
	}
	frag := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s.%s = %s.%s AND %s)",
		rel.Table, rel.Table, rel.ForeignColumn, base.Table, rel.LocalColumn, inner)
	return frag, args, nil
}

func compileCondition(d Dialect, table string, cond domain.Condition) (string, []any, error) {
	column := table + "." + cond.Field

	switch cond.Op {
	case domain.OpIsNull:
		return column + " IS NULL", nil, nil
	case domain.OpIsNotNull:
		return column + " IS NOT NULL", nil, nil
	case domain.OpILike:
		return d.ILike(column), []any{cond.Value}, nil
	case domain.OpIsNot:
		return d.IsNot(column), []any{cond.Value}, nil
	case domain.OpIn, domain.OpNotIn:
		values, _ := cond.Value.([]any)
		if len(values) == 0 {
			// An empty IN list matches nothing; an empty NOT IN everything.
			if cond.Op == domain.OpIn {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		return fmt.Sprintf("%s %s (%s)", column, cond.Op, placeholders), values, nil
	default:
		return fmt.Sprintf("%s %s ?", column, cond.Op), []any{cond.Value}, nil
	}
}

// compileSort resolves "±field" tokens into ORDER BY terms. Tokens
// referencing unknown fields are dropped, never raised: persisted UI
// state may still name removed columns.
func compileSort(schema *domain.Schema, tokens []string) []string {
	var terms []string
	for _, s := range domain.ParseSort(tokens) {
		if !schema.HasColumn(s.Field) {
			continue
		}
		direction := "ASC"
		if s.Desc {
			direction = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s.%s %s", schema.Table, s.Field, direction))
	}
	return terms
}

// mergeLoads unions load-strategy markers, deduplicating by relation name.
func mergeLoads(groups ...[]domain.Relation) []domain.Relation {
	var merged []domain.Relation
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, rel := range group {
			if _, ok := seen[rel.Name]; ok {
				continue
			}
			seen[rel.Name] = struct{}{}
			merged = append(merged, rel)
		}
	}
	return merged
}
