package interval

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants.
const (
	testLow10   = 10
	testHigh20  = 20
	testLow15   = 15
	testHigh25  = 25
	testLow30   = 30
	testHigh40  = 40
	testPoint12 = 12
	testPoint50 = 50
	testCount   = 100
)

// scenarioTree builds [1,5]->a, [10,15]->b, [3,8]->c.
func scenarioTree(t *testing.T) *Tree[int, string] {
	t.Helper()

	tree := New[int, string]()

	for _, e := range []struct {
		from, to int
		value    string
	}{{1, 5, "a"}, {10, 15, "b"}, {3, 8, "c"}} {
		inserted, err := tree.Put(MustInterval(e.from, e.to), e.value)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	return tree
}

func values[V any](pairs []Pair[int, V]) []V {
	out := make([]V, len(pairs))
	for i, p := range pairs {
		out[i] = p.Value()
	}

	return out
}

// TestNew verifies empty tree creation.
func TestNew(t *testing.T) {
	t.Parallel()

	tree := New[uint32, uint32]()
	assert.NotNil(t, tree)
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())
	require.NoError(t, tree.Check())
}

// TestScenario verifies the reference three-interval scenario.
func TestScenario(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	anyHit, ok, err := tree.FindAnyOverlap(MustInterval(4, 4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []string{"a", "c"}, anyHit.Value())

	all, err := tree.FindAllOverlaps(MustInterval(4, 4))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, values(all))

	none, err := tree.FindAllOverlaps(MustInterval(9, 9))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	found, ok, err := tree.Find(MustInterval(10, 15))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", found.Value())
	assert.Equal(t, MustInterval(10, 15), found.Interval())

	assert.Equal(t, 3, tree.Len())
	require.NoError(t, tree.Check())
}

// TestPut_OverwriteKeepsSize verifies idempotent overwrite.
func TestPut_OverwriteKeepsSize(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()
	key := MustInterval(testLow10, testHigh20)

	inserted, err := tree.Put(key, "first")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = tree.Put(key, "second")
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, tree.Len())

	got, ok, err := tree.Find(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Value())
}

// TestPut_SameFromDifferentTo verifies that keys differing only in to are distinct.
func TestPut_SameFromDifferentTo(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()

	for to := testLow10; to < testHigh20; to++ {
		inserted, err := tree.Put(MustInterval(testLow10, to), to)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	assert.Equal(t, testHigh20-testLow10, tree.Len())
	require.NoError(t, tree.Check())
}

// TestAbsentArguments verifies that every operation rejects the absent interval.
func TestAbsentArguments(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	var absent Interval[int]

	_, err := tree.Put(absent, "x")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = tree.Find(absent)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = tree.FindAnyOverlap(absent)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tree.FindAllOverlaps(absent)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tree.Delete(absent)
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 3, tree.Len())
}

// TestFind_Missing verifies that Find does not match overlapping keys.
func TestFind_Missing(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	_, ok, err := tree.Find(MustInterval(1, 4))
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestFindAllOverlaps_EmptyTree verifies query on empty tree.
func TestFindAllOverlaps_EmptyTree(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()

	results, err := tree.FindAllOverlaps(MustInterval(testLow10, testHigh20))
	require.NoError(t, err)
	assert.Empty(t, results)

	_, ok, err := tree.FindAnyOverlap(MustInterval(testLow10, testHigh20))
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestFindAllOverlaps_MultipleResults verifies multiple overlapping intervals in key order.
func TestFindAllOverlaps_MultipleResults(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	_, _ = tree.Put(MustInterval(testLow30, testHigh40), 3)
	_, _ = tree.Put(MustInterval(testLow15, testHigh25), 2)
	_, _ = tree.Put(MustInterval(testLow10, testHigh20), 1)

	results, err := tree.FindAllOverlaps(MustInterval(testPoint12, 18))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values(results))
}

// TestQueryPoint_Boundary verifies point query at interval boundaries.
func TestQueryPoint_Boundary(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	_, _ = tree.Put(MustInterval(testLow10, testHigh20), 1)
	_, _ = tree.Put(MustInterval(testLow30, testHigh40), 2)

	assert.Len(t, tree.QueryPoint(testLow10), 1)
	assert.Len(t, tree.QueryPoint(testHigh20), 1)
	assert.Equal(t, []int{1}, values(tree.QueryPoint(testPoint12)))
	assert.Empty(t, tree.QueryPoint(testPoint50))
}

// TestAdjacentIntervals verifies that touching endpoints overlap.
func TestAdjacentIntervals(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	_, _ = tree.Put(MustInterval(testLow10, testHigh20), 1)
	_, _ = tree.Put(MustInterval(testHigh20+1, testLow30), 2)

	assert.Len(t, tree.QueryPoint(testHigh20), 1)
	assert.Len(t, tree.QueryPoint(testHigh20+1), 1)

	results, err := tree.FindAllOverlaps(MustInterval(testHigh20, testHigh20+1))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// TestWideOverlap verifies a query spanning every stored interval.
func TestWideOverlap(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	for i := range testCount {
		_, _ = tree.Put(MustInterval(i*testLow10, i*testLow10+5), i)
	}

	results, err := tree.FindAllOverlaps(MustInterval(0, testCount*testLow10))
	require.NoError(t, err)
	assert.Len(t, results, testCount)
}

// TestDelete_Basic verifies delete of an existing key.
func TestDelete_Basic(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	removed, err := tree.Delete(MustInterval(3, 8))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 2, tree.Len())

	all, err := tree.FindAllOverlaps(MustInterval(4, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, values(all))
	require.NoError(t, tree.Check())
}

// TestDelete_NonExistent verifies delete of a missing key.
func TestDelete_NonExistent(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	removed, err := tree.Delete(MustInterval(1, 6))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 3, tree.Len())

	empty := New[int, int]()
	removed, err = empty.Delete(MustInterval(1, 6))
	require.NoError(t, err)
	assert.False(t, removed)
}

// TestDelete_KeepsValues verifies that removing a node with two children
// does not move values between keys.
func TestDelete_KeepsValues(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	for i := range testCount {
		_, _ = tree.Put(MustInterval(i, i+testLow10), i)
	}

	for i := 0; i < testCount; i += 3 {
		removed, err := tree.Delete(MustInterval(i, i+testLow10))
		require.NoError(t, err)
		require.True(t, removed)
		require.NoError(t, tree.Check())
	}

	for p := range tree.All() {
		assert.Equal(t, p.Interval().From(), p.Value())
	}
}

// TestDeleteAndReinsert verifies that a deleted key can be inserted again.
func TestDeleteAndReinsert(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)
	key := MustInterval(10, 15)

	_, err := tree.Delete(key)
	require.NoError(t, err)

	inserted, err := tree.Put(key, "b2")
	require.NoError(t, err)
	assert.True(t, inserted)

	got, ok, err := tree.Find(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b2", got.Value())
}

// TestClear verifies that Clear empties the tree.
func TestClear(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)
	tree.Clear()

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, slices.Collect(tree.All()))
	require.NoError(t, tree.Check())
}

// TestAll_InOrder verifies ascending iteration and restartability.
func TestAll_InOrder(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)

	first := slices.Collect(tree.All())
	second := slices.Collect(tree.All())

	assert.Equal(t, []string{"a", "c", "b"}, values(first))
	assert.Equal(t, first, second)
}

// TestAll_EarlyStop verifies that breaking out of the range loop stops the walk.
func TestAll_EarlyStop(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)
	seen := 0

	for range tree.All() {
		seen++

		break
	}

	assert.Equal(t, 1, seen)
}

// TestMinMax verifies the ordered extremes.
func TestMinMax(t *testing.T) {
	t.Parallel()

	_, ok := New[int, int]().Min()
	assert.False(t, ok)

	tree := scenarioTree(t)

	lo, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, "a", lo.Value())

	hi, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, "b", hi.Value())
}

// TestNodeColor verifies that nil nodes are black.
func TestNodeColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, black, nodeColor[uint32, uint32](nil))

	n := &node[uint32, uint32]{color: red}
	assert.Equal(t, red, nodeColor(n))
}

// TestMaxHighMaintenance verifies maxHigh at the root across inserts and deletes.
func TestMaxHighMaintenance(t *testing.T) {
	t.Parallel()

	tree := New[uint32, uint32]()
	_, _ = tree.Put(MustInterval[uint32](testLow10, testHigh20), 1)
	_, _ = tree.Put(MustInterval[uint32](testLow15, testHigh25), 2)
	_, _ = tree.Put(MustInterval[uint32](testLow30, testHigh40), 3)
	assert.Equal(t, uint32(testHigh40), tree.root.maxHigh)

	_, err := tree.Delete(MustInterval[uint32](testLow30, testHigh40))
	require.NoError(t, err)
	assert.Equal(t, uint32(testHigh25), tree.root.maxHigh)
	require.NoError(t, tree.Check())
}

// TestCheck_DetectsCorruption verifies that Check reports a stale augmentation.
func TestCheck_DetectsCorruption(t *testing.T) {
	t.Parallel()

	tree := scenarioTree(t)
	tree.root.maxHigh = 0

	require.ErrorIs(t, tree.Check(), ErrCorrupted)

	tree = scenarioTree(t)
	tree.size++

	require.ErrorIs(t, tree.Check(), ErrCorrupted)
}

// TestGeneric_StringKeys verifies lexical interval keys.
func TestGeneric_StringKeys(t *testing.T) {
	t.Parallel()

	tree := New[string, int]()
	_, _ = tree.Put(MustInterval("a", "f"), 1)
	_, _ = tree.Put(MustInterval("m", "t"), 2)

	results, err := tree.FindAllOverlaps(MustInterval("e", "n"))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Empty(t, tree.QueryPoint("z"))
}

// TestGeneric_FloatKeys verifies float keys and NaN point queries.
func TestGeneric_FloatKeys(t *testing.T) {
	t.Parallel()

	tree := New[float64, string]()
	_, _ = tree.Put(MustInterval(0.5, 1.5), "x")

	assert.Len(t, tree.QueryPoint(1.0), 1)
	assert.Empty(t, tree.QueryPoint(math.NaN()))
}

