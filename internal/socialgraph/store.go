package socialgraph

import (
	"errors"
	"sort"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrUserNotFound  = errors.New("user_not_found")
	ErrGroupNotFound = errors.New("group_not_found")
	ErrGroupExists   = errors.New("group_name_taken")
	ErrNotMember     = errors.New("not_a_group_member")
	ErrInvalidMember = errors.New("invalid_member")
)

// Store owns the friend relation and the group rosters. Friendship is
// symmetric and both sides are mutated under one lock acquisition, so no
// reader ever observes a one-sided friendship. Group rosters are immutable
// after creation.
type Store struct {
	mu         sync.RWMutex
	friends    map[string]map[string]struct{} // username -> friend set; key presence = known user
	groups     map[string]map[string]struct{} // group name -> member set
	userGroups map[string]map[string]struct{} // username -> group names
}

func NewStore() *Store {
	return &Store{
		friends:    make(map[string]map[string]struct{}),
		groups:     make(map[string]map[string]struct{}),
		userGroups: make(map[string]map[string]struct{}),
	}
}

// AddUser makes a username known to the graph. Idempotent; existing friend
// data is untouched.
func (s *Store) AddUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(username)
}

// Knows reports whether a username has been registered with the graph.
func (s *Store) Knows(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.friends[username]
	return ok
}

// SeedFriends merges durable friend data loaded at session start. Both sides
// of each relation are installed so the symmetry invariant holds even when
// the counterpart has not logged in yet.
func (s *Store) SeedFriends(username string, friends []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(username)
	for _, f := range friends {
		if f == username {
			continue
		}
		s.ensure(f)
		s.friends[username][f] = struct{}{}
		s.friends[f][username] = struct{}{}
	}
}

// AddFriend installs the symmetric relation between requester and target as
// one atomic unit. The target must be a known user; it does not have to be
// online, friendship is durable.
func (s *Store) AddFriend(requester, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[requester]; !ok {
		return ErrUserNotFound
	}
	if _, ok := s.friends[target]; !ok {
		return ErrUserNotFound
	}
	s.friends[requester][target] = struct{}{}
	s.friends[target][requester] = struct{}{}
	return nil
}

// Friends returns a sorted copy of a user's friend set.
func (s *Store) Friends(username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.friends[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return sortedKeys(set), nil
}

// CommonFriends intersects two users' friend sets. Symmetric in its
// arguments.
func (s *Store) CommonFriends(a, b string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fa, ok := s.friends[a]
	if !ok {
		return nil, ErrUserNotFound
	}
	fb, ok := s.friends[b]
	if !ok {
		return nil, ErrUserNotFound
	}
	common := lo.Intersect(sortedKeys(fa), sortedKeys(fb))
	if common == nil {
		common = []string{}
	}
	return common, nil
}

// CreateGroup registers a group under its name with roster
// {creator} ∪ members. Every supplied member must be a known user. The
// returned roster is sorted.
func (s *Store) CreateGroup(creator, name string, members []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[creator]; !ok {
		return nil, ErrUserNotFound
	}
	if _, ok := s.groups[name]; ok {
		return nil, ErrGroupExists
	}
	for _, m := range members {
		if _, ok := s.friends[m]; !ok {
			return nil, ErrInvalidMember
		}
	}

	roster := make(map[string]struct{}, len(members)+1)
	roster[creator] = struct{}{}
	for _, m := range members {
		roster[m] = struct{}{}
	}
	s.groups[name] = roster
	for m := range roster {
		if s.userGroups[m] == nil {
			s.userGroups[m] = make(map[string]struct{})
		}
		s.userGroups[m][name] = struct{}{}
	}
	return sortedKeys(roster), nil
}

// Group returns the sorted roster of a group.
func (s *Store) Group(name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster, ok := s.groups[name]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return sortedKeys(roster), nil
}

// CheckMember verifies that username belongs to the group's roster.
func (s *Store) CheckMember(name, username string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster, ok := s.groups[name]
	if !ok {
		return ErrGroupNotFound
	}
	if _, ok := roster[username]; !ok {
		return ErrNotMember
	}
	return nil
}

// GroupsOf returns the sorted group names a user belongs to.
func (s *Store) GroupsOf(username string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.userGroups[username])
}

func (s *Store) ensure(username string) {
	if _, ok := s.friends[username]; !ok {
		s.friends[username] = make(map[string]struct{})
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	sort.Strings(keys)
	return keys
}
