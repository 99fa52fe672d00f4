package query

import (
	"fmt"
	"strings"

	"github.com/hupe1980/colgo/value"
)

// PartialGroup is the mergeable state of all aggregates for one group key.
type PartialGroup struct {
	Key  []value.Value `json:"key"`
	Aggs []PartialAgg  `json:"aggs"`
}

// PartialResult is the per-group aggregate state of one shard's query
// execution, before finalization. A coordinating layer merges the partial
// results of all shards and finalizes once; sort and limit are applied at
// finalization, never to partials.
type PartialResult struct {
	GroupColumns []string       `json:"groupColumns"`
	Aliases      []string       `json:"aliases"`
	Groups       []PartialGroup `json:"groups"`
}

// keyString builds the stable group key for a tuple of values. Null equals
// null within a key.
func keyString(vals []value.Value) string {
	if len(vals) == 0 {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.Key()
	}
	return strings.Join(parts, "\x1f")
}

// Merge folds another shard's partial result into p. Both sides must stem
// from the same query shape: identical group columns and aliases.
func (p *PartialResult) Merge(other *PartialResult) error {
	if len(other.GroupColumns) != len(p.GroupColumns) || len(other.Aliases) != len(p.Aliases) {
		return fmt.Errorf("partial result shape mismatch")
	}
	for i, c := range p.GroupColumns {
		if other.GroupColumns[i] != c {
			return fmt.Errorf("partial result group column mismatch: %q vs %q", c, other.GroupColumns[i])
		}
	}
	for i, a := range p.Aliases {
		if other.Aliases[i] != a {
			return fmt.Errorf("partial result alias mismatch: %q vs %q", a, other.Aliases[i])
		}
	}

	index := make(map[string]int, len(p.Groups))
	for i, g := range p.Groups {
		index[keyString(g.Key)] = i
	}

	for _, g := range other.Groups {
		key := keyString(g.Key)
		i, ok := index[key]
		if !ok {
			p.Groups = append(p.Groups, g)
			index[key] = len(p.Groups) - 1
			continue
		}
		if len(p.Groups[i].Aggs) != len(g.Aggs) {
			return fmt.Errorf("partial result aggregate count mismatch for group %q", key)
		}
		for ai := range g.Aggs {
			p.Groups[i].Aggs[ai].Merge(g.Aggs[ai])
		}
	}

	return nil
}

// Finalize collapses the merged partial states into an assembled result:
// group-by columns first, then every aggregate alias.
func (p *PartialResult) Finalize() *Result {
	columns := make([]string, 0, len(p.GroupColumns)+len(p.Aliases))
	columns = append(columns, p.GroupColumns...)
	columns = append(columns, p.Aliases...)

	rows := make([][]value.Value, len(p.Groups))
	for i, g := range p.Groups {
		row := make([]value.Value, 0, len(columns))
		row = append(row, g.Key...)
		for ai := range g.Aggs {
			row = append(row, g.Aggs[ai].Finalize())
		}
		rows[i] = row
	}

	return &Result{Columns: columns, Rows: rows}
}
