package internal

import (
	"maps"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeqConcat(t *testing.T) {
	assert := assert.New(t)

	seq := IterSeqConcat(slices.Values([]int{1, 2}), slices.Values([]int{}), slices.Values([]int{3}))
	assert.Equal([]int{1, 2, 3}, slices.Collect(seq))

	// Early stop.
	var got []int
	for v := range seq {
		got = append(got, v)
		if v == 2 {
			break
		}
	}
	assert.Equal([]int{1, 2}, got)
}

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	a := maps.All(map[string]int{"a": 1})
	b := maps.All(map[string]int{"b": 2})

	all := maps.Collect(IterSeq2Concat(a, b))
	assert.Equal(map[string]int{"a": 1, "b": 2}, all)
}

func TestSortedMap(t *testing.T) {
	assert := assert.New(t)

	m := map[string]int{"c": 3, "a": 1, "b": 2}

	var keys []string
	var values []string
	for k, v := range SortedMap(m, strconv.Itoa) {
		keys = append(keys, k)
		values = append(values, v)
	}

	assert.Equal([]string{"a", "b", "c"}, keys)
	assert.Equal([]string{"1", "2", "3"}, values)
}
