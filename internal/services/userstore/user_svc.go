package userstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type UserDTO struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at" example:"2025-07-27T16:05:05Z"`
}

const FriendUpdatesStream = "friend_updates"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username already taken")
)

// IUserService is the durable user store collaborator: it validates that a
// name refers to a registered user, loads durable friend data at session
// start, and publishes friend mutations for persistence. Credential handling
// lives outside this service entirely.
type IUserService interface {
	CreateUser(ctx context.Context, username string) error
	FindByUsername(ctx context.Context, username string) (*UserDTO, error)
	LoadFriends(ctx context.Context, username string) ([]string, error)
	PersistFriendUpdate(ctx context.Context, userA, userB string) error
}

type userService struct {
	rdc *redis.Client
	db  *sql.DB
}

func NewUserService(rdc *redis.Client, db *sql.DB) IUserService {
	return &userService{rdc: rdc, db: db}
}

func (svc *userService) CreateUser(ctx context.Context, username string) error {
	res, err := svc.db.ExecContext(ctx,
		`INSERT INTO users (username) VALUES ($1) ON CONFLICT DO NOTHING`,
		username,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserExists
	}
	return nil
}

func (svc *userService) FindByUsername(ctx context.Context, username string) (*UserDTO, error) {
	const q = `SELECT username, created_at FROM users WHERE username = $1`
	dto := &UserDTO{}
	if err := svc.db.QueryRowContext(ctx, q, username).
		Scan(&dto.Username, &dto.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return dto, nil
}

// LoadFriends returns the durable friend set. Friendships are stored once per
// pair with user_a < user_b, so the counterpart may sit in either column.
func (svc *userService) LoadFriends(ctx context.Context, username string) ([]string, error) {
	const q = `
	  SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END AS friend
	    FROM friendships
	   WHERE user_a = $1 OR user_b = $1
	   ORDER BY friend`
	rows, err := svc.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make([]string, 0)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// PersistFriendUpdate appends the new relation to the friend_updates stream.
// The syncfriends worker tails the stream into Postgres, so the caller never
// waits on the database.
func (svc *userService) PersistFriendUpdate(ctx context.Context, userA, userB string) error {
	if userB < userA {
		userA, userB = userB, userA
	}
	return svc.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: FriendUpdatesStream,
		Values: map[string]any{
			"ua": userA,
			"ub": userB,
			"at": time.Now().Unix(),
		},
	}).Err()
}
