package presencewatcher

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// SessionInvalidator drops a username's live session from routing.
type SessionInvalidator interface {
	InvalidateSession(username string)
}

// Run listens to key-expiry events and reaps sessions whose presence key
// lapsed, i.e. connections that stopped answering pings without a clean
// disconnect. Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, inv SessionInvalidator) {
	_ = rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-ps.Channel():
			if !strings.HasPrefix(m.Payload, "presence:") {
				continue
			}
			username := strings.TrimPrefix(m.Payload, "presence:")
			inv.InvalidateSession(username)
		}
	}
}
