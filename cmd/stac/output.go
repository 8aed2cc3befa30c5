package main

import (
	"encoding/json"
	"io"
	"iter"
)

// collect drains seq, stopping at the first error. Values seen more than
// once are kept once.
func collect[T comparable](seq iter.Seq2[T, error]) ([]T, error) {
	var (
		results []T
		seen    = make(map[T]bool)
	)
	for value, err := range seq {
		if err != nil {
			return nil, err
		}
		if seen[value] {
			continue
		}
		seen[value] = true
		results = append(results, value)
	}
	return results, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
