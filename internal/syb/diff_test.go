package syb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func zones(ids ...string) map[string]ZoneSnapshot {
	m := make(map[string]ZoneSnapshot, len(ids))
	for _, id := range ids {
		m[id] = ZoneSnapshot{ZoneID: id}
	}
	return m
}

func TestDiff(t *testing.T) {
	added, removed := Diff(zones("a", "b", "c"), zones("b", "c", "d", "e"))
	assert.Equal(t, []string{"d", "e"}, added)
	assert.Equal(t, []string{"a"}, removed)
}

func TestDiffEqualSets(t *testing.T) {
	added, removed := Diff(zones("a", "b"), zones("a", "b"))
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestDiffEmptyPrevious(t *testing.T) {
	added, removed := Diff(nil, zones("a", "b"))
	assert.Equal(t, []string{"a", "b"}, added)
	assert.Empty(t, removed)
}

func TestDiffEmptyCurrent(t *testing.T) {
	added, removed := Diff(zones("a", "b"), nil)
	assert.Empty(t, added)
	assert.Equal(t, []string{"a", "b"}, removed)
}

func TestDiffDisjoint(t *testing.T) {
	added, removed := Diff(zones("x"), zones("y"))
	assert.Equal(t, []string{"y"}, added)
	assert.Equal(t, []string{"x"}, removed)
}
