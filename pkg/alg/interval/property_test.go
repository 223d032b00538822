package interval

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property test constants.
const (
	propIntervalCount = 10000
	propSmallCount    = 500
	propQueryCount    = 300
	propDomain        = 100000
	propMaxWidth      = 200
	propSeed1         = 42
	propSeed2         = 1337
)

type span struct {
	From, To int
}

func randomInterval(rng *rand.Rand, domain, width int) Interval[int] {
	from := rng.IntN(domain)

	return MustInterval(from, from+rng.IntN(width+1))
}

func spansOf(pairs []Pair[int, int]) []span {
	out := make([]span, len(pairs))
	for i, p := range pairs {
		out[i] = span{p.Interval().From(), p.Interval().To()}
	}

	return out
}

// bruteOverlaps is the linear-scan oracle, in key order.
func bruteOverlaps(stored []Interval[int], query Interval[int]) []span {
	var out []span

	for _, iv := range stored {
		if iv.overlaps(query) {
			out = append(out, span{iv.From(), iv.To()})
		}
	}

	slices.SortFunc(out, func(a, b span) int {
		if a.From != b.From {
			return a.From - b.From
		}

		return a.To - b.To
	})

	return out
}

// TestProperty_HeightIsLogarithmic verifies the balance bound for random inserts.
func TestProperty_HeightIsLogarithmic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(propSeed1, propSeed2))
	tree := New[int, int]()

	for i := range propIntervalCount {
		_, err := tree.Put(randomInterval(rng, propDomain, propMaxWidth), i)
		require.NoError(t, err)
	}

	require.NoError(t, tree.Check())

	bound := 2 * math.Log2(float64(tree.Len()+1))
	assert.LessOrEqual(t, float64(tree.Height()), bound)
}

// TestProperty_SortedIteration verifies in-order traversal and the size counter.
func TestProperty_SortedIteration(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(propSeed2, propSeed1))
	tree := New[int, int]()
	distinct := make(map[span]struct{})

	for i := range propIntervalCount {
		iv := randomInterval(rng, propMaxWidth*10, propMaxWidth)
		distinct[span{iv.From(), iv.To()}] = struct{}{}

		_, err := tree.Put(iv, i)
		require.NoError(t, err)
	}

	assert.Equal(t, len(distinct), tree.Len())

	var prev Interval[int]

	count := 0

	for p := range tree.All() {
		if prev.IsValid() {
			assert.Negative(t, prev.compare(p.Interval()))
		}

		prev = p.Interval()
		count++
	}

	assert.Equal(t, tree.Len(), count)
}

// TestProperty_OverlapSoundAndComplete compares overlap queries with a linear scan.
func TestProperty_OverlapSoundAndComplete(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(propSeed1, propSeed1))
	tree := New[int, int]()

	var stored []Interval[int]

	for i := range propSmallCount {
		iv := randomInterval(rng, propDomain/10, propMaxWidth)

		inserted, err := tree.Put(iv, i)
		require.NoError(t, err)

		if inserted {
			stored = append(stored, iv)
		}
	}

	for range propQueryCount {
		query := randomInterval(rng, propDomain/10, propMaxWidth)

		got, err := tree.FindAllOverlaps(query)
		require.NoError(t, err)

		want := bruteOverlaps(stored, query)
		if diff := cmp.Diff(want, spansOf(got), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("FindAllOverlaps(%v) mismatch (-want +got):\n%s", query, diff)
		}

		hit, ok, err := tree.FindAnyOverlap(query)
		require.NoError(t, err)
		assert.Equal(t, len(want) > 0, ok, "FindAnyOverlap(%v)", query)

		if ok {
			assert.True(t, hit.Interval().overlaps(query))
		}
	}
}

// TestProperty_DeletePreservesInvariants interleaves inserts and deletes,
// checking every invariant after each mutation.
func TestProperty_DeletePreservesInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(propSeed2, propSeed2))
	tree := New[int, int]()
	live := make(map[span]Interval[int])

	for i := range propIntervalCount / 2 {
		iv := randomInterval(rng, propMaxWidth*5, propMaxWidth/10)
		key := span{iv.From(), iv.To()}

		if _, ok := live[key]; ok && rng.IntN(2) == 0 {
			removed, err := tree.Delete(iv)
			require.NoError(t, err)
			require.True(t, removed)

			delete(live, key)
			require.NoError(t, tree.Check(), "after Delete(%v) at step %d", iv, i)
		} else {
			_, err := tree.Put(iv, i)
			require.NoError(t, err)

			live[key] = iv
			require.NoError(t, tree.Check(), "after Put(%v) at step %d", iv, i)
		}
	}

	assert.Equal(t, len(live), tree.Len())

	for _, iv := range live {
		_, ok, err := tree.Find(iv)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
