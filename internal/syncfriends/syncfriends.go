package syncfriends

import (
	"context"
	"database/sql"
	"time"

	"chatmatchgo/internal/services/userstore"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run tails the friend_updates stream and persists every new friendship.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{userstore.FriendUpdatesStream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				zap.L().Warn("syncfriends.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 {
				continue
			}
			entries := res[0].Messages
			if err := persist(ctx, db, entries); err != nil {
				zap.L().Error("syncfriends.persist", zap.Error(err))
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO friendships (user_a, user_b)
	             VALUES ($1, $2)
	             ON CONFLICT DO NOTHING`
	for _, m := range msgs {
		ua, _ := m.Values["ua"].(string)
		ub, _ := m.Values["ub"].(string)
		if ua == "" || ub == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, ins, ua, ub); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
