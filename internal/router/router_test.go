package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskhub/internal/auth"
	"taskhub/internal/handler"
	"taskhub/internal/model"
	"taskhub/internal/service"
)

// In-memory repositories so the full middleware chain can be exercised
// without a database. They mirror the store contract the GORM repositories
// rely on: unique email enforced at insert, token rows keyed by
// (user, literal string), todos keyed by (owner, id).

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	tokens  map[uuid.UUID]map[string]bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		tokens:  make(map[uuid.UUID]map[string]bool),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return gorm.ErrDuplicatedKey
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *memUserRepo) AppendToken(ctx context.Context, userID uuid.UUID, purpose, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokens[userID] == nil {
		r.tokens[userID] = make(map[string]bool)
	}
	r.tokens[userID][token] = true
	return nil
}

func (r *memUserRepo) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens[userID], token)
	return nil
}

func (r *memUserRepo) HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[userID][token], nil
}

type memTodoRepo struct {
	mu    sync.Mutex
	todos map[uuid.UUID]model.Todo
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{todos: make(map[uuid.UUID]model.Todo)}
}

func (r *memTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	r.todos[todo.ID] = *todo
	return nil
}

func (r *memTodoRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Todo
	for _, todo := range r.todos {
		if todo.OwnerID == ownerID {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (r *memTodoRepo) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &todo, nil
}

func (r *memTodoRepo) Update(ctx context.Context, todo *model.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos[todo.ID] = *todo
	return nil
}

func (r *memTodoRepo) DeleteByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.todos, id)
	return nil
}

func newTestServer() *echo.Echo {
	e := echo.New()
	users := newMemUserRepo()
	todos := newMemTodoRepo()

	tokens := auth.NewTokenService("router-test-secret")
	gate := auth.NewGate(users, nil)

	authService := service.NewAuthService(users, tokens)
	todoService := service.NewTodoService(todos)

	Register(e, tokens, gate,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(),
		handler.NewTodoHandler(todoService),
	)
	return e
}

func do(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(auth.HeaderToken, token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type todoBody struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completed_at"`
	OwnerID     string `json:"owner_id"`
}

func registerUser(t *testing.T, e *echo.Echo, email, password string) (userBody, string) {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/auth/register", "", echo.Map{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(auth.HeaderToken)
	require.NotEmpty(t, token)

	var user userBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user, token
}

func TestRouter_RegisterLoginLogoutFlow(t *testing.T) {
	e := newTestServer()

	alice, t1 := registerUser(t, e, "alice@example.com", "secret1")
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.NotEmpty(t, alice.ID)

	// The response body never carries password material or the token set.
	rec := do(e, http.MethodPost, "/api/auth/login", "", echo.Map{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "tokens")

	t2 := rec.Header().Get(auth.HeaderToken)
	require.NotEmpty(t, t2)
	assert.NotEqual(t, t1, t2)

	// Duplicate registration fails and does not mint a second account.
	rec = do(e, http.MethodPost, "/api/auth/register", "", echo.Map{"email": "alice@example.com", "password": "another"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A todo created on one device is visible from the other.
	rec = do(e, http.MethodPost, "/api/todos", t1, echo.Map{"text": "buy milk"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created todoBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, alice.ID, created.OwnerID)

	rec = do(e, http.MethodGet, "/api/todos", t2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Todos []todoBody `json:"todos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Todos, 1)
	assert.Equal(t, "buy milk", list.Todos[0].Text)

	// Logout revokes exactly the presented token.
	rec = do(e, http.MethodDelete, "/api/auth/logout", t1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/me", t1, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/me", t2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me userBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, alice.ID, me.ID)
}

func TestRouter_CrossTenantIsolation(t *testing.T) {
	e := newTestServer()

	_, aliceToken := registerUser(t, e, "alice@example.com", "secret1")
	bob, bobToken := registerUser(t, e, "bob@example.com", "pw1234")

	rec := do(e, http.MethodPost, "/api/todos", bobToken, echo.Map{"text": "bob's task"})
	require.Equal(t, http.StatusOK, rec.Code)
	var bobsTodo todoBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bobsTodo))
	assert.Equal(t, bob.ID, bobsTodo.OwnerID)

	// Another tenant's todo is indistinguishable from a missing one, and the
	// 404 body carries nothing.
	path := "/api/todos/" + bobsTodo.ID
	for _, req := range []struct {
		method string
		body   interface{}
	}{
		{method: http.MethodGet},
		{method: http.MethodPatch, body: echo.Map{"completed": true}},
		{method: http.MethodDelete},
	} {
		rec = do(e, req.method, path, aliceToken, req.body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, rec.Body.Len())
	}

	// Alice's listing is unaffected by bob's data.
	rec = do(e, http.MethodGet, "/api/todos", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Todos []todoBody `json:"todos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Todos)

	// The owner still has full access.
	rec = do(e, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CompletedTransitions(t *testing.T) {
	e := newTestServer()
	_, token := registerUser(t, e, "alice@example.com", "secret1")

	rec := do(e, http.MethodPost, "/api/todos", token, echo.Map{"text": "buy milk"})
	require.Equal(t, http.StatusOK, rec.Code)
	var todo todoBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.Nil(t, todo.CompletedAt)

	path := "/api/todos/" + todo.ID

	rec = do(e, http.MethodPatch, path, token, echo.Map{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.True(t, todo.Completed)
	require.NotNil(t, todo.CompletedAt)
	assert.Positive(t, *todo.CompletedAt)

	rec = do(e, http.MethodPatch, path, token, echo.Map{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.False(t, todo.Completed)
	assert.Nil(t, todo.CompletedAt)
}

func TestRouter_DeleteReturnsPriorState(t *testing.T) {
	e := newTestServer()
	_, token := registerUser(t, e, "alice@example.com", "secret1")

	rec := do(e, http.MethodPost, "/api/todos", token, echo.Map{"text": "return library books"})
	require.Equal(t, http.StatusOK, rec.Code)
	var todo todoBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))

	path := "/api/todos/" + todo.ID
	rec = do(e, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted todoBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, todo.ID, deleted.ID)
	assert.Equal(t, "return library books", deleted.Text)

	// Hard delete: the second attempt misses.
	rec = do(e, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GateRejections(t *testing.T) {
	e := newTestServer()
	_, token := registerUser(t, e, "alice@example.com", "secret1")

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing header", token: ""},
		{name: "garbage token", token: "not-a-token"},
		{name: "tampered token", token: token + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/api/todos", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_Validation(t *testing.T) {
	e := newTestServer()
	_, token := registerUser(t, e, "alice@example.com", "secret1")

	// Bad registration input.
	for _, body := range []interface{}{
		echo.Map{},
		echo.Map{"email": "not-an-email", "password": "secret1"},
		echo.Map{"email": "ok@example.com", "password": "short"},
	} {
		rec := do(e, http.MethodPost, "/api/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	// Empty todo text.
	rec := do(e, http.MethodPost, "/api/todos", token, echo.Map{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed todo ids look like missing todos.
	rec = do(e, http.MethodGet, "/api/todos/42", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_InvalidCredentialsAreUniform(t *testing.T) {
	e := newTestServer()
	registerUser(t, e, "alice@example.com", "secret1")

	unknown := do(e, http.MethodPost, "/api/auth/login", "", echo.Map{"email": "ghost@example.com", "password": "secret1"})
	wrongPw := do(e, http.MethodPost, "/api/auth/login", "", echo.Map{"email": "alice@example.com", "password": "wrong"})

	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, http.StatusBadRequest, wrongPw.Code)
	// Identical responses, so the endpoint cannot be used to probe for
	// registered emails.
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
}
