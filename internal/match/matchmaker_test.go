package match

import (
	"fmt"
	"math/rand"
	"testing"

	"chatmatchgo/internal/socialgraph"

	"github.com/stretchr/testify/require"
)

func graphWithGroup(t *testing.T, group string, members ...string) *socialgraph.Store {
	t.Helper()
	s := socialgraph.NewStore()
	for _, m := range members {
		s.AddUser(m)
	}
	if len(members) > 0 {
		_, err := s.CreateGroup(members[0], group, members[1:])
		require.NoError(t, err)
	}
	return s
}

func TestPass_UnknownGroup(t *testing.T) {
	req := require.New(t)
	m := New(socialgraph.NewStore(), rand.NewSource(1))

	_, err := m.Pass("nope")
	req.ErrorIs(err, socialgraph.ErrGroupNotFound)
}

func TestPass_TinyGroupsProduceNoNotices(t *testing.T) {
	req := require.New(t)

	g := graphWithGroup(t, "solo", "alice")
	m := New(g, rand.NewSource(1))
	notices, err := m.Pass("solo")
	req.NoError(err)
	req.Empty(notices)
}

func TestPairUp_EvenCount(t *testing.T) {
	req := require.New(t)
	m := New(socialgraph.NewStore(), rand.NewSource(42))

	units := m.pairUp([]string{"a", "b", "c", "d", "e", "f"})
	req.Len(units, 3)

	seen := map[string]int{}
	for _, u := range units {
		req.Len(u, 2)
		for _, member := range u {
			seen[member]++
		}
	}
	// Every member appears in exactly one pairing unit
	req.Len(seen, 6)
	for member, n := range seen {
		req.Equal(1, n, "member %s", member)
	}
}

func TestPairUp_OddCountFoldsTriple(t *testing.T) {
	req := require.New(t)
	m := New(socialgraph.NewStore(), rand.NewSource(42))

	units := m.pairUp([]string{"a", "b", "c", "d", "e"})
	req.Len(units, 2)
	req.Len(units[0], 2)
	req.Len(units[1], 3)
}

func TestPairUp_DegenerateSizes(t *testing.T) {
	req := require.New(t)
	m := New(socialgraph.NewStore(), rand.NewSource(42))

	req.Empty(m.pairUp(nil))
	req.Empty(m.pairUp([]string{"a"}))
}

func TestPass_FixedSeedIsReproducible(t *testing.T) {
	req := require.New(t)
	members := []string{"alice", "bob", "carol", "dave", "eve"}

	run := func(seed int64) []Notice {
		g := graphWithGroup(t, "g1", members...)
		// alice and bob share carol as a friend
		req.NoError(g.AddFriend("alice", "carol"))
		req.NoError(g.AddFriend("bob", "carol"))
		m := New(g, rand.NewSource(seed))
		notices, err := m.Pass("g1")
		req.NoError(err)
		return notices
	}

	first := run(7)
	second := run(7)
	req.Equal(first, second)

	// floor(5/2) units, the last one a triple: the pure pair contributes two
	// notices, the triple four
	req.Len(first, 6)

	// Every member is notified at least once and each notice is mirrored
	recipients := map[string]bool{}
	for _, n := range first {
		recipients[n.To] = true
		req.Contains(first, Notice{To: n.Counterpart, Counterpart: n.To, CommonFriends: n.CommonFriends})
	}
	req.Len(recipients, len(members))
}

func TestPass_CommonFriendsAttached(t *testing.T) {
	req := require.New(t)

	// Two members only, so the pairing is forced and we can assert the
	// mutual-friend computation end to end.
	g := graphWithGroup(t, "g1", "alice", "bob")
	g.AddUser("carol")
	g.AddUser("dave")
	req.NoError(g.AddFriend("alice", "carol"))
	req.NoError(g.AddFriend("bob", "carol"))
	req.NoError(g.AddFriend("alice", "dave"))

	m := New(g, rand.NewSource(3))
	notices, err := m.Pass("g1")
	req.NoError(err)
	req.Len(notices, 2)
	for _, n := range notices {
		req.Equal([]string{"carol"}, n.CommonFriends)
	}
}

func TestPairUp_ShuffleIsUniform(t *testing.T) {
	req := require.New(t)
	m := New(socialgraph.NewStore(), rand.NewSource(99))

	// A 3-member roster yields one triple whose internal order is the full
	// permutation; all 6 permutations must show up equally often.
	const trials = 6000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		units := m.pairUp([]string{"a", "b", "c"})
		req.Len(units, 1)
		counts[fmt.Sprint(units[0])]++
	}

	req.Len(counts, 6)
	expected := trials / 6
	for perm, n := range counts {
		req.InDelta(expected, n, 150, "permutation %s", perm)
	}
}
