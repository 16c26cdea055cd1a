package ws

import (
	"errors"
	"testing"

	"chatmatchgo/internal/presence"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	envs []Envelope
	fail bool
}

func (r *recordingSink) WriteEnvelope(env Envelope) error {
	if r.fail {
		return errors.New("broken pipe")
	}
	r.envs = append(r.envs, env)
	return nil
}

func TestFanout_ToUserDelivered(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	reg := presence.NewRegistry()
	f := NewFanout(hub, reg)

	sink := &recordingSink{}
	hub.Add("conn-1", sink)
	reg.Register("conn-1", "alice")

	env := NewEnvelope("ping_test", nil)
	req.Equal(Delivered, f.ToUser("alice", env))
	req.Len(sink.envs, 1)
	req.Equal("ping_test", sink.envs[0].Event)
}

func TestFanout_ToUserOfflineNeverErrors(t *testing.T) {
	req := require.New(t)
	f := NewFanout(NewHub(), presence.NewRegistry())

	req.Equal(Offline, f.ToUser("nobody", NewEnvelope("x", nil)))
}

func TestFanout_WriteFailureCountsAsOffline(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	reg := presence.NewRegistry()
	f := NewFanout(hub, reg)

	hub.Add("conn-1", &recordingSink{fail: true})
	reg.Register("conn-1", "alice")

	req.Equal(Offline, f.ToUser("alice", NewEnvelope("x", nil)))
}

func TestFanout_ToGroupSkipsOfflineAndExcluded(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	reg := presence.NewRegistry()
	f := NewFanout(hub, reg)

	bob := &recordingSink{}
	hub.Add("conn-b", bob)
	reg.Register("conn-b", "bob")

	// alice excluded as sender, carol has no live connection
	outcomes := f.ToGroup([]string{"alice", "bob", "carol"}, NewEnvelope("group_message", nil), "alice")

	req.Len(outcomes, 2)
	req.NotContains(outcomes, "alice")
	req.Equal(Delivered, outcomes["bob"])
	req.Equal(Offline, outcomes["carol"])
	req.Len(bob.envs, 1)
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "delivered", Delivered.String())
	require.Equal(t, "offline", Offline.String())
}
