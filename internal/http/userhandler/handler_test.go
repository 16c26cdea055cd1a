package userhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatmatchgo/internal/presence"
	"chatmatchgo/internal/services/userstore"
	"chatmatchgo/internal/socialgraph"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubUserSvc struct {
	users map[string][]string
}

func (s *stubUserSvc) CreateUser(ctx context.Context, username string) error {
	if _, ok := s.users[username]; ok {
		return userstore.ErrUserExists
	}
	s.users[username] = nil
	return nil
}

func (s *stubUserSvc) FindByUsername(ctx context.Context, username string) (*userstore.UserDTO, error) {
	if _, ok := s.users[username]; !ok {
		return nil, userstore.ErrUserNotFound
	}
	return &userstore.UserDTO{Username: username}, nil
}

func (s *stubUserSvc) LoadFriends(ctx context.Context, username string) ([]string, error) {
	return s.users[username], nil
}

func (s *stubUserSvc) PersistFriendUpdate(ctx context.Context, a, b string) error {
	return nil
}

func setup(t *testing.T) (*gin.Engine, *stubUserSvc, *socialgraph.Store, *presence.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &stubUserSvc{users: make(map[string][]string)}
	graph := socialgraph.NewStore()
	reg := presence.NewRegistry()

	engine := gin.New()
	New(svc, graph, reg).Register(engine)
	return engine, svc, graph, reg
}

func TestRegisterUser(t *testing.T) {
	req := require.New(t)
	engine, svc, _, _ := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"alice"}`))
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusCreated, w.Code)
	req.Contains(svc.users, "alice")
}

func TestRegisterUser_Conflict(t *testing.T) {
	req := require.New(t)
	engine, svc, _, _ := setup(t)
	svc.users["alice"] = nil

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"alice"}`))
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusConflict, w.Code)
}

func TestRegisterUser_MissingUsername(t *testing.T) {
	req := require.New(t)
	engine, _, _, _ := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{}`))
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusBadRequest, w.Code)
}

func TestUserInfo(t *testing.T) {
	req := require.New(t)
	engine, svc, _, _ := setup(t)
	svc.users["alice"] = []string{"bob"}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"username":"alice","friends":["bob"]}`, w.Body.String())
}

func TestUserInfo_NotFound(t *testing.T) {
	req := require.New(t)
	engine, _, _, _ := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/users/ghost", nil)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusNotFound, w.Code)
}

func TestGroupRoster(t *testing.T) {
	req := require.New(t)
	engine, _, graph, _ := setup(t)
	graph.AddUser("alice")
	graph.AddUser("bob")
	_, err := graph.CreateGroup("alice", "g1", []string{"bob"})
	req.NoError(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/groups/g1", nil)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"name":"g1","members":["alice","bob"]}`, w.Body.String())
}

func TestGroupRoster_NotFound(t *testing.T) {
	req := require.New(t)
	engine, _, _, _ := setup(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/groups/nope", nil)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusNotFound, w.Code)
}

func TestOnlineList(t *testing.T) {
	req := require.New(t)
	engine, _, _, reg := setup(t)
	reg.Register("conn-1", "bob")
	reg.Register("conn-2", "alice")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/online", nil)
	engine.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"online":["alice","bob"]}`, w.Body.String())
}
