package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateRank(t *testing.T) {
	assert.Equal(t, 0, CursorCandidate{NonPartial: true, FullLength: true, AllNotNull: true}.rank())
	assert.Equal(t, 1, CursorCandidate{NonPartial: true, FullLength: true}.rank())
	assert.Equal(t, 2, CursorCandidate{NonPartial: true}.rank())
	assert.Equal(t, 3, CursorCandidate{FullLength: true, AllNotNull: true}.rank())
	assert.Equal(t, 3, CursorCandidate{}.rank())
}

func TestBestCandidateSelectsLowestRank(t *testing.T) {
	cols := bestCandidate([]CursorCandidate{
		{IndexName: "idx_partial", Columns: []string{"a"}, NonPartial: false, FullLength: true, AllNotNull: true},
		{IndexName: "idx_nullable", Columns: []string{"b"}, NonPartial: true, FullLength: true, AllNotNull: false},
		{IndexName: "idx_solid", Columns: []string{"c", "d"}, NonPartial: true, FullLength: true, AllNotNull: true},
	})
	assert.Equal(t, []string{"c", "d"}, cols)
}

func TestBestCandidateTieBreaks(t *testing.T) {
	// Same rank: fewest columns wins.
	cols := bestCandidate([]CursorCandidate{
		{IndexName: "idx_wide", Columns: []string{"a", "b", "c"}, NonPartial: true, FullLength: true, AllNotNull: true},
		{IndexName: "idx_narrow", Columns: []string{"z"}, NonPartial: true, FullLength: true, AllNotNull: true},
	})
	assert.Equal(t, []string{"z"}, cols)

	// Same rank and width: lexicographically smallest index name wins.
	cols = bestCandidate([]CursorCandidate{
		{IndexName: "uq_b", Columns: []string{"b"}, NonPartial: true, FullLength: true, AllNotNull: true},
		{IndexName: "uq_a", Columns: []string{"a"}, NonPartial: true, FullLength: true, AllNotNull: true},
	})
	assert.Equal(t, []string{"a"}, cols)
}

func TestBestCandidateEmpty(t *testing.T) {
	assert.Nil(t, bestCandidate(nil))
}
