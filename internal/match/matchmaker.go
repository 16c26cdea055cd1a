package match

import (
	"math/rand"
	"sync"

	"chatmatchgo/internal/socialgraph"
)

// Notice is one "matched" notification: To learns it was paired with
// Counterpart and which friends they share.
type Notice struct {
	To            string
	Counterpart   string
	CommonFriends []string
}

// Matchmaker partitions a group's roster into random pairs (one triple when
// the roster is odd) and computes the mutual-friend set per pair. It holds no
// state of its own beyond the RNG; the roster and friend data live in the
// social graph.
type Matchmaker struct {
	graph *socialgraph.Store

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Matchmaker over the given graph. The source is injected so a
// pass is reproducible under a fixed seed.
func New(graph *socialgraph.Store, src rand.Source) *Matchmaker {
	return &Matchmaker{graph: graph, rng: rand.New(src)}
}

// Pass runs one matchmaking pass over the group's full roster and returns the
// notices to deliver, two per pair (one per direction). Rosters of size 0 or
// 1 produce no notices. A member disappearing from the graph mid-pass skips
// that pairing instead of failing the pass.
func (m *Matchmaker) Pass(groupName string) ([]Notice, error) {
	members, err := m.graph.Group(groupName)
	if err != nil {
		return nil, err
	}

	units := m.pairUp(members)
	notices := make([]Notice, 0, 2*len(units))
	for _, unit := range units {
		// Triples are compared pairwise against the first member.
		for i := 1; i < len(unit); i++ {
			common, err := m.graph.CommonFriends(unit[0], unit[i])
			if err != nil {
				continue
			}
			notices = append(notices,
				Notice{To: unit[0], Counterpart: unit[i], CommonFriends: common},
				Notice{To: unit[i], Counterpart: unit[0], CommonFriends: common},
			)
		}
	}
	return notices, nil
}

// pairUp shuffles the members uniformly (Fisher-Yates) and walks them two at
// a time. An odd tail is folded into the final unit, making it a triple.
func (m *Matchmaker) pairUp(members []string) [][]string {
	if len(members) < 2 {
		return nil
	}

	shuffled := make([]string, len(members))
	copy(shuffled, members)
	m.mu.Lock()
	m.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	m.mu.Unlock()

	units := make([][]string, 0, len(shuffled)/2)
	for i := 0; i+1 < len(shuffled); i += 2 {
		units = append(units, []string{shuffled[i], shuffled[i+1]})
	}
	if len(shuffled)%2 != 0 {
		last := len(units) - 1
		units[last] = append(units[last], shuffled[len(shuffled)-1])
	}
	return units
}
