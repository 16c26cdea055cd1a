package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chatmatchgo/internal/match"
	"chatmatchgo/internal/presence"
	"chatmatchgo/internal/services/userstore"
	"chatmatchgo/internal/socialgraph"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	maxFrameSize = 4096

	presenceKeyPrefix = "presence:"
	// PresenceTTL bounds how long a stale session survives missed pings
	// before the expiry watcher reaps it.
	PresenceTTL = 30 * time.Second
)

var errNotLoggedIn = errors.New("not_logged_in")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev-only
}

// ConnContext carries per-connection state into the event handlers. Username
// stays empty until a successful login.
type ConnContext struct {
	ConnID   string
	Username string
	Server   *WsServer
}

type WsServer struct {
	hub     *Hub
	reg     *presence.Registry
	graph   *socialgraph.Store
	matcher *match.Matchmaker
	fanout  *Fanout
	router  *Router
	rdc     *redis.Client
	userSvc userstore.IUserService
}

func NewWsServer(
	h *Hub,
	reg *presence.Registry,
	graph *socialgraph.Store,
	matcher *match.Matchmaker,
	rdc *redis.Client,
	userSvc userstore.IUserService,
) *WsServer {
	srv := &WsServer{
		hub:     h,
		reg:     reg,
		graph:   graph,
		matcher: matcher,
		fanout:  NewFanout(h, reg),
		router:  NewRouter(),
		rdc:     rdc,
		userSvc: userSvc,
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client connected ────────────────────────
	connID := uuid.NewString()
	wsConn := &clientConn{rawConn: rawConn}
	s.hub.Add(connID, wsConn)

	go s.reader(connID, wsConn)
	go s.pinger(connID, wsConn)
}

// InvalidateSession drops a username's live session from routing and closes
// its transport. Called by the presence watcher when a session went stale.
func (s *WsServer) InvalidateSession(username string) {
	connID, ok := s.reg.Resolve(username)
	if !ok {
		return
	}
	s.reg.Unregister(connID)
	s.dropConn(connID)
	zap.L().Info("ws.session_expired", zap.String("username", username))
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 login ----------------------------------------------------------------
	Register(
		s.router,
		"login",
		func(ctx context.Context, cc *ConnContext, req LoginRequest) (*Envelope, error) {
			// Last login wins: the displaced session loses routing and its
			// transport is closed rather than left orphaned.
			if prev, replaced := s.reg.Register(cc.ConnID, req.Username); replaced {
				s.dropConn(prev)
			}
			cc.Username = req.Username

			s.graph.AddUser(req.Username)
			if friends, err := s.userSvc.LoadFriends(ctx, req.Username); err != nil {
				zap.L().Warn("ws.load_friends", zap.String("username", req.Username), zap.Error(err))
			} else {
				s.graph.SeedFriends(req.Username, friends)
			}

			s.markOnline(ctx, cc)

			env := NewEnvelope("login_success", LoginSuccessBody{Username: req.Username})
			return &env, nil
		},
	)

	// 🔹 add_friend -----------------------------------------------------------
	Register(
		s.router,
		"add_friend",
		func(ctx context.Context, cc *ConnContext, req AddFriendRequest) (*Envelope, error) {
			if cc.Username == "" {
				return nil, errNotLoggedIn
			}

			// The target has to be a known user, not necessarily online:
			// registered-but-never-seen users are pulled in from the durable
			// store on first reference.
			if !s.graph.Knows(req.FriendName) {
				if _, err := s.userSvc.FindByUsername(ctx, req.FriendName); err != nil {
					if errors.Is(err, userstore.ErrUserNotFound) {
						env := NewEnvelope("friend_not_found", FriendNotFoundBody{FriendName: req.FriendName})
						return &env, nil
					}
					return nil, err
				}
				s.graph.AddUser(req.FriendName)
			}

			if err := s.graph.AddFriend(cc.Username, req.FriendName); err != nil {
				return nil, err
			}
			if err := s.userSvc.PersistFriendUpdate(ctx, cc.Username, req.FriendName); err != nil {
				zap.L().Warn("ws.persist_friend", zap.Error(err))
			}

			s.fanout.ToUser(req.FriendName,
				NewEnvelope("friend_added", FriendAddedBody{FriendName: cc.Username}))

			env := NewEnvelope("friend_added", FriendAddedBody{FriendName: req.FriendName})
			return &env, nil
		},
	)

	// 🔹 create_group ---------------------------------------------------------
	Register(
		s.router,
		"create_group",
		func(ctx context.Context, cc *ConnContext, req CreateGroupRequest) (*Envelope, error) {
			if cc.Username == "" {
				return nil, errNotLoggedIn
			}

			roster, err := s.graph.CreateGroup(cc.Username, req.GroupName, req.Members)
			if err != nil {
				return nil, err
			}

			body := GroupCreatedBody{GroupName: req.GroupName, Members: roster}
			s.fanout.ToGroup(roster, NewEnvelope("group_created", body), cc.Username)

			env := NewEnvelope("group_created", body)
			return &env, nil
		},
	)

	// 🔹 group_message --------------------------------------------------------
	Register(
		s.router,
		"group_message",
		func(ctx context.Context, cc *ConnContext, req GroupMessageRequest) (*Envelope, error) {
			if cc.Username == "" {
				return nil, errNotLoggedIn
			}
			if err := s.graph.CheckMember(req.GroupName, cc.Username); err != nil {
				return nil, err
			}
			members, err := s.graph.Group(req.GroupName)
			if err != nil {
				return nil, err
			}

			s.fanout.ToGroup(members, NewEnvelope("group_message", GroupMessageBody{
				GroupName: req.GroupName,
				From:      cc.Username,
				Text:      req.Text,
			}), cc.Username)
			return nil, nil
		},
	)

	// 🔹 private_message ------------------------------------------------------
	Register(
		s.router,
		"private_message",
		func(ctx context.Context, cc *ConnContext, req PrivateMessageRequest) (*Envelope, error) {
			if cc.Username == "" {
				return nil, errNotLoggedIn
			}

			s.fanout.ToUser(req.To, NewEnvelope("private_message", PrivateMessageBody{
				From: cc.Username,
				Text: req.Text,
			}))

			// Echo to the sender's own connection so their view of the
			// conversation stays consistent.
			env := NewEnvelope("private_message", PrivateMessageBody{
				From:     cc.Username,
				Text:     req.Text,
				SelfEcho: true,
			})
			return &env, nil
		},
	)

	// 🔹 random_match ---------------------------------------------------------
	Register(
		s.router,
		"random_match",
		func(ctx context.Context, cc *ConnContext, req RandomMatchRequest) (*Envelope, error) {
			if cc.Username == "" {
				return nil, errNotLoggedIn
			}

			notices, err := s.matcher.Pass(req.GroupName)
			if err != nil {
				return nil, err
			}
			for _, n := range notices {
				s.fanout.ToUser(n.To, NewEnvelope("matched", MatchedBody{
					Counterpart:   n.Counterpart,
					CommonFriends: n.CommonFriends,
				}))
			}
			return nil, nil
		},
	)
}

func (s *WsServer) reader(connID string, conn *clientConn) {
	defer func() {
		// Only tear presence down if this connection still owns its
		// username; a newer login may already have rebound it.
		if username, ok := s.reg.Username(connID); ok {
			s.reg.Unregister(connID)
			s.markOffline(username)
		}
		s.hub.Remove(connID)
		conn.close()
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: connID, Server: s}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			_ = conn.WriteEnvelope(NewEnvelope("error", ErrorBody{Error: err.Error()}))
			continue
		}

		// ---- success -> named outbound event, if any ----------------
		if res != nil {
			_ = conn.WriteEnvelope(*res)
		}
	}
}

func (s *WsServer) pinger(connID string, conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			conn.close()
			return
		}
		// Keep the presence key alive while the transport answers pings.
		if username, ok := s.reg.Username(connID); ok {
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			if err := s.rdc.Expire(ctx, presenceKeyPrefix+username, PresenceTTL).Err(); err != nil {
				zap.L().Debug("ws.presence_refresh", zap.Error(err))
			}
			cancel()
		}
	}
}

func (s *WsServer) markOnline(ctx context.Context, cc *ConnContext) {
	if err := s.rdc.SetEx(ctx, presenceKeyPrefix+cc.Username, cc.ConnID, PresenceTTL).Err(); err != nil {
		zap.L().Warn("ws.presence_set", zap.Error(err))
	}
}

func (s *WsServer) markOffline(username string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := s.rdc.Del(ctx, presenceKeyPrefix+username).Err(); err != nil {
		zap.L().Debug("ws.presence_del", zap.Error(err))
	}
}

func (s *WsServer) dropConn(connID string) {
	if sink, ok := s.hub.Get(connID); ok {
		s.hub.Remove(connID)
		if c, ok := sink.(*clientConn); ok {
			c.close()
		}
	}
}
