package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Winter-Krimmert/Advanced-Blog-API/config"
	"github.com/Winter-Krimmert/Advanced-Blog-API/events"
	"github.com/Winter-Krimmert/Advanced-Blog-API/middleware"
	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, pub events.Publisher) *testServer {
	t.Helper()
	cfg := config.AppConfig{
		SecretKey:          "test-secret",
		TokenTTLHours:      1,
		DatabaseType:       "sqlite",
		DatabaseURI:        ":memory:",
		GinMode:            "test",
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 10000,
		CacheTTLSeconds:    60,
		LogLevel:           "silent",
	}
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return &testServer{
		t:      t,
		router: SetupRouter(Dependencies{Config: cfg, DB: db, Events: pub}),
		db:     db,
	}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register creates a user and returns its id together with a fresh token.
func (s *testServer) register(username string) (uint, string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", "", map[string]string{
		"name":     "Test " + username,
		"username": username,
		"email":    username + "@x.com",
		"password": "pw",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(s.t, rec)["user"].(map[string]interface{})

	rec = s.do(http.MethodPost, "/token", "", map[string]string{"username": username, "password": "pw"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return uint(user["id"].(float64)), decode(s.t, rec)["token"].(string)
}

func (s *testServer) createPost(token, title string) uint {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/posts", token, map[string]string{"title": title, "content": "Body"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decode(s.t, rec)["id"].(float64))
}

func (s *testServer) createComment(token string, postID uint) uint {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/comments", token, map[string]interface{}{"content": "Nice", "post_id": postID})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decode(s.t, rec)["id"].(float64))
}

func TestRegisterAndToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/register", "", map[string]string{
		"name": "Test", "username": "t1", "email": "t1@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "User created successfully", body["message"])
	user := body["user"].(map[string]interface{})
	require.Equal(t, "t1", user["username"])
	require.NotContains(t, user, "password")

	var stored models.User
	require.NoError(t, s.db.Where("username = ?", "t1").First(&stored).Error)
	require.NotEqual(t, "pw", stored.PasswordHash)

	for _, path := range []string{"/token", "/login"} {
		rec = s.do(http.MethodPost, path, "", map[string]string{"username": "t1", "password": "pw"})
		require.Equal(t, http.StatusOK, rec.Code)
		body = decode(t, rec)
		require.Equal(t, "Login successful", body["message"])
		require.NotEmpty(t, body["token"])
		require.NotZero(t, body["expires_at"])
	}
}

func TestTokenWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register("t1")

	rec := s.do(http.MethodPost, "/token", "", map[string]string{"username": "t1", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Username and/or password is incorrect", decode(t, rec)["error"])

	unknown := s.do(http.MethodPost, "/token", "", map[string]string{"username": "ghost", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, rec.Body.String(), unknown.Body.String())

	rec = s.do(http.MethodPost, "/token", "", map[string]string{"username": "t1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Missing username or password", decode(t, rec)["error"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	s.register("t1")

	rec := s.do(http.MethodPost, "/register", "", map[string]string{"username": "t2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, decode(t, rec)["fields"])

	rec = s.do(http.MethodPost, "/register", "", map[string]string{
		"name": "Dup", "username": "t1", "email": "other@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/register", "", map[string]string{
		"name": "Dup", "username": "t3", "email": "t1@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreatePostCarriesOwner(t *testing.T) {
	s := newTestServer(t)
	aliceID, token := s.register("alice")

	rec := s.do(http.MethodPost, "/posts", token, map[string]string{"title": "Hi", "content": "Body"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode(t, rec)
	require.Equal(t, float64(aliceID), post["user_id"])
	require.Equal(t, "Hi", post["title"])

	rec = s.do(http.MethodPost, "/posts", "", map[string]string{"title": "Hi"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/posts", token, map[string]string{"content": "no title"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostOwnership(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.register("alice")
	_, bob := s.register("bob")
	postID := s.createPost(alice, "Hi")
	path := fmt.Sprintf("/posts/%d", postID)

	rec := s.do(http.MethodPut, path, bob, map[string]string{"title": "Hijacked"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, utils.ErrUnauthorized.Message, decode(t, rec)["error"])

	rec = s.do(http.MethodDelete, path, bob, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, path, alice, map[string]string{"content": "Edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	post := decode(t, rec)
	require.Equal(t, "Hi", post["title"])
	require.Equal(t, "Edited", post["content"])

	rec = s.do(http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMissingPost(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register("alice")

	rec := s.do(http.MethodGet, "/posts/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "post not found", decode(t, rec)["error"])

	// missing resources are reported before ownership
	rec = s.do(http.MethodPut, "/posts/999", token, map[string]string{"title": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/posts/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostListAndCache(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register("alice")
	s.createPost(token, "First")

	rec := s.do(http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get(middleware.HeaderCache))
	require.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(http.MethodGet, "/posts", "", nil)
	require.Equal(t, "HIT", rec.Header().Get(middleware.HeaderCache))

	s.createPost(token, "Second")
	rec = s.do(http.MethodGet, "/posts", "", nil)
	require.Equal(t, "MISS", rec.Header().Get(middleware.HeaderCache))
	body := decode(t, rec)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	require.Equal(t, "Second", items[0].(map[string]interface{})["title"])
	require.Equal(t, float64(2), body["pagination"].(map[string]interface{})["total"])

	rec = s.do(http.MethodGet, "/posts?search=Firs", "", nil)
	require.Len(t, decode(t, rec)["items"], 1)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.register("alice")
	bobID, bob := s.register("bob")
	postID := s.createPost(alice, "Hi")

	rec := s.do(http.MethodPost, "/comments", bob, map[string]interface{}{"content": "Nice", "post_id": postID})
	require.Equal(t, http.StatusCreated, rec.Code)
	comment := decode(t, rec)
	require.Equal(t, float64(bobID), comment["user_id"])
	require.NotEmpty(t, comment["date_posted"])
	commentPath := fmt.Sprintf("/comments/%v", comment["id"])

	rec = s.do(http.MethodPost, "/comments", bob, map[string]interface{}{"content": "Nice", "post_id": 999})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, fmt.Sprintf("/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["comments"], 1)

	rec = s.do(http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(http.MethodGet, fmt.Sprintf("/comments?post_id=%d", postID), "", nil)
	require.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(http.MethodPut, commentPath, alice, map[string]string{"content": "Mine now"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, commentPath, bob, map[string]string{"content": "Edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Edited", decode(t, rec)["content"])

	rec = s.do(http.MethodDelete, commentPath, alice, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodDelete, commentPath, bob, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, commentPath, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserOwnership(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.register("alice")
	bobID, bob := s.register("bob")
	alicePath := fmt.Sprintf("/users/%d", aliceID)

	rec := s.do(http.MethodGet, "/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/users", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["items"], 2)

	rec = s.do(http.MethodGet, "/me", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(bobID), decode(t, rec)["id"])

	rec = s.do(http.MethodPut, alicePath, bob, map[string]string{"name": "Bob was here"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, alicePath, alice, map[string]string{"username": "bob"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, alicePath, alice, map[string]string{"name": "Alice", "password": "new"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Alice", decode(t, rec)["name"])

	rec = s.do(http.MethodPost, "/token", "", map[string]string{"username": "alice", "password": "new"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, alicePath, bob, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteUserCascades(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.register("alice")
	_, bob := s.register("bob")

	alicePost := s.createPost(alice, "Alice's")
	bobPost := s.createPost(bob, "Bob's")
	s.createComment(bob, alicePost)
	s.createComment(alice, bobPost)
	s.createComment(bob, bobPost)

	rec := s.do(http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var posts, comments int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, s.db.Model(&models.Comment{}).Count(&comments).Error)
	require.Equal(t, int64(1), posts)
	require.Equal(t, int64(1), comments)

	// the token outlives its subject
	rec = s.do(http.MethodGet, "/me", alice, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, utils.ErrUnknownSubject.Message, decode(t, rec)["error"])
}

func TestCreateUserEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/users", "", map[string]string{
		"name": "Carol", "username": "carol", "email": "carol@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "carol", decode(t, rec)["username"])
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/posts", "garbage", map[string]string{"title": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, utils.ErrInvalidToken.Message, decode(t, rec)["error"])
}

// failingPublisher records every event and then reports a broker failure.
type failingPublisher struct {
	events []events.Event
}

func (p *failingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return errors.New("broker unavailable")
}

func (p *failingPublisher) Close() error { return nil }

func (p *failingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func TestDomainEventsDoNotFailRequests(t *testing.T) {
	pub := &failingPublisher{}
	s := newTestServerWith(t, pub)

	aliceID, alice := s.register("alice")
	require.Equal(t, []string{events.UserRegistered}, pub.types())
	require.Equal(t, aliceID, pub.events[0].SubjectID)

	postID := s.createPost(alice, "Hi")
	commentID := s.createComment(alice, postID)

	rec := s.do(http.MethodDelete, fmt.Sprintf("/posts/%d", postID), alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), alice, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Equal(t, []string{
		events.UserRegistered,
		events.PostCreated,
		events.CommentCreated,
		events.PostDeleted,
		events.UserDeleted,
	}, pub.types())

	require.Equal(t, postID, pub.events[1].SubjectID)
	require.Equal(t, commentID, pub.events[2].SubjectID)
	require.Equal(t, postID, pub.events[3].SubjectID)
	for _, evt := range pub.events {
		require.Equal(t, aliceID, evt.UserID)
		require.False(t, evt.OccurredAt.IsZero())
	}
}
