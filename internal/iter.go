package internal

import (
	"iter"
	"maps"
	"slices"
)

// IterSeq2Concat chains several key/value sequences, in order, into one.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// SortedDefines collects a define sequence into a map, and returns it with
// its keys in sorted order. Later keys override earlier ones.
func SortedDefines(seq iter.Seq2[string, string]) (defines map[string]string, keys []string) {
	defines = maps.Collect(seq)
	keys = slices.Sorted(maps.Keys(defines))
	return
}
