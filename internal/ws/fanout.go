package ws

// Outcome is the per-recipient result of a delivery attempt. Offline is a
// normal outcome, not an error: events to users without a live session are
// dropped, fire-and-forget.
type Outcome int

const (
	Delivered Outcome = iota
	Offline
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "offline"
}

// resolver is the slice of the presence registry the fan-out needs.
type resolver interface {
	Resolve(username string) (string, bool)
}

// Fanout holds no mutable state; it is a pure function over the registry and
// the hub plus the event payload.
type Fanout struct {
	hub *Hub
	reg resolver
}

func NewFanout(hub *Hub, reg resolver) *Fanout {
	return &Fanout{hub: hub, reg: reg}
}

// ToUser delivers one envelope to a username's live connection. A write
// failure counts as Offline: the reader loop tears the connection down on its
// own, delivery never retries.
func (f *Fanout) ToUser(username string, env Envelope) Outcome {
	connID, ok := f.reg.Resolve(username)
	if !ok {
		return Offline
	}
	sink, ok := f.hub.Get(connID)
	if !ok {
		return Offline
	}
	if err := sink.WriteEnvelope(env); err != nil {
		return Offline
	}
	return Delivered
}

// ToGroup delivers an envelope to every member, skipping offline members
// silently. exclude names a member to leave out, e.g. the sender of a group
// message; pass "" to deliver to everyone.
func (f *Fanout) ToGroup(members []string, env Envelope, exclude string) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(members))
	for _, m := range members {
		if m == exclude {
			continue
		}
		outcomes[m] = f.ToUser(m, env)
	}
	return outcomes
}
