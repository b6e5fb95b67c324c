package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatroom/internal/delivery/ws"
	"chatroom/internal/domain"
	"chatroom/internal/middleware"
	"chatroom/internal/usecase"
)

// memoryUserRepo keeps handler tests off the filesystem.
type memoryUserRepo struct {
	users map[string]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepo) CreateUser(user *domain.User) error {
	for _, u := range r.users {
		if u.Nickname == user.Nickname {
			return domain.ErrNicknameTaken
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) FindUserByID(id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) FindUserByNickname(nickname string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Nickname == nickname {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepo) NicknameExists(nickname, excludeID string) (bool, error) {
	for id, u := range r.users {
		if u.Nickname == nickname && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) UpdateUser(user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func newTestHandler() (*Handler, *usecase.TokenManager) {
	hub := ws.NewHub(nil)
	accounts := usecase.NewAccountService(newMemoryUserRepo())
	tokens := usecase.NewTokenManager("test-secret", time.Hour)
	return NewHandler(hub, accounts, tokens, nil), tokens
}

type testResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
	Room    domain.RoomInfo   `json:"room"`
	Rooms   []domain.RoomInfo `json:"rooms"`
	Users   []domain.PublicUser `json:"users"`
	File    uploadedFile      `json:"file"`
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path, body, token string) (int, testResponse) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("undecodable response %s: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func registerAndLogin(t *testing.T, h *Handler, nickname string) (string, domain.PublicUser) {
	t.Helper()
	body := `{"nickname":"` + nickname + `","password":"secret123"}`
	if code, _ := doJSON(t, h.HandleRegister, http.MethodPost, "/api/register", body, ""); code != http.StatusOK {
		t.Fatalf("register failed with status %d", code)
	}
	code, resp := doJSON(t, h.HandleLogin, http.MethodPost, "/api/login", body, "")
	if code != http.StatusOK || resp.Token == "" {
		t.Fatalf("login failed: status %d, resp %+v", code, resp)
	}
	return resp.Token, resp.User
}

func TestHandleRegister(t *testing.T) {
	h, _ := newTestHandler()

	code, resp := doJSON(t, h.HandleRegister, http.MethodPost, "/api/register",
		`{"nickname":"alice","password":"secret123"}`, "")
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got status %d resp %+v", code, resp)
	}
	if resp.User.Nickname != "alice" || resp.User.ID == "" {
		t.Errorf("expected public user in response, got %+v", resp.User)
	}
	if resp.Token != "" {
		t.Error("registration must not log the user in")
	}
}

func TestHandleRegister_Errors(t *testing.T) {
	h, _ := newTestHandler()
	registerAndLogin(t, h, "alice")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"short nickname", `{"nickname":"a","password":"secret123"}`, http.StatusBadRequest},
		{"short password", `{"nickname":"bob","password":"123"}`, http.StatusBadRequest},
		{"duplicate nickname", `{"nickname":"alice","password":"secret123"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := doJSON(t, h.HandleRegister, http.MethodPost, "/api/register", tc.body, "")
			if code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, code)
			}
			if resp.Success {
				t.Error("expected failure response")
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	h, tokens := newTestHandler()
	token, user := registerAndLogin(t, h, "alice")

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Nickname != "alice" {
		t.Errorf("wrong claims: %+v", claims)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	h, _ := newTestHandler()
	registerAndLogin(t, h, "alice")

	code, resp := doJSON(t, h.HandleLogin, http.MethodPost, "/api/login",
		`{"nickname":"alice","password":"wrongpass"}`, "")
	if code != http.StatusUnauthorized || resp.Success {
		t.Errorf("expected 401 failure, got %d %+v", code, resp)
	}
	if resp.Token != "" {
		t.Error("no token on failed login")
	}
}

func TestHandleCurrentUser(t *testing.T) {
	h, tokens := newTestHandler()
	token, user := registerAndLogin(t, h, "alice")

	protected := middleware.RequireAuth(tokens, h.HandleCurrentUser)

	code, resp := doJSON(t, protected, http.MethodGet, "/api/user", "", token)
	if code != http.StatusOK || resp.User.ID != user.ID {
		t.Errorf("expected current user, got %d %+v", code, resp)
	}

	if code, _ := doJSON(t, protected, http.MethodGet, "/api/user", "", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", code)
	}
}

func TestHandleUpdateUser(t *testing.T) {
	h, tokens := newTestHandler()
	token, _ := registerAndLogin(t, h, "alice")

	protected := middleware.RequireAuth(tokens, h.HandleUpdateUser)
	code, resp := doJSON(t, protected, http.MethodPost, "/api/user/update",
		`{"nickname":"alicia"}`, token)
	if code != http.StatusOK || resp.User.Nickname != "alicia" {
		t.Fatalf("expected rename, got %d %+v", code, resp)
	}

	// The claims embed the nickname, so a fresh token comes back.
	if resp.Token == "" {
		t.Fatal("expected a fresh token")
	}
	claims, err := tokens.Validate(resp.Token)
	if err != nil || claims.Nickname != "alicia" {
		t.Errorf("fresh token carries wrong claims: %+v err=%v", claims, err)
	}
}

func TestHandleCreateRoomAndList(t *testing.T) {
	h, tokens := newTestHandler()
	token, _ := registerAndLogin(t, h, "alice")

	protected := middleware.RequireAuth(tokens, h.HandleCreateRoom)
	code, resp := doJSON(t, protected, http.MethodPost, "/api/rooms",
		`{"name":"general","description":"talk"}`, token)
	if code != http.StatusOK || resp.Room.Name != "general" {
		t.Fatalf("expected created room, got %d %+v", code, resp)
	}
	if resp.Room.CreatedBy != "alice" {
		t.Errorf("expected owner alice, got %q", resp.Room.CreatedBy)
	}

	code, resp = doJSON(t, h.HandleListRooms, http.MethodGet, "/api/rooms", "", "")
	if code != http.StatusOK || len(resp.Rooms) != 1 || resp.Rooms[0].Name != "general" {
		t.Errorf("expected one listed room, got %d %+v", code, resp)
	}

	code, _ = doJSON(t, protected, http.MethodPost, "/api/rooms", `{"name":"   "}`, token)
	if code != http.StatusBadRequest {
		t.Errorf("blank name: expected 400, got %d", code)
	}
}

func TestHandleRoom(t *testing.T) {
	h, _ := newTestHandler()

	room, err := h.hub.CreateRoomFor("alice", "general", "")
	if err != nil {
		t.Fatalf("CreateRoomFor failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/{id}", h.HandleRoom)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("undecodable response: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Room.ID != room.ID {
		t.Errorf("expected room detail, got %d %+v", rec.Code, resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/rooms/000000000", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown room: expected 404, got %d", rec.Code)
	}
}

func TestHandleRoomHistory_NoStore(t *testing.T) {
	h, _ := newTestHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms/{id}/messages", h.HandleRoomHistory)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/123456789/messages", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a store, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(content))
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	h, _ := newTestHandler()

	body, contentType := multipartBody(t, "notes.txt", "hello upload")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("undecodable response: %v", err)
	}
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected success, got %d %+v", rec.Code, resp)
	}
	if resp.File.OriginalName != "notes.txt" || resp.File.Size != int64(len("hello upload")) {
		t.Errorf("wrong file metadata: %+v", resp.File)
	}
	if !strings.HasPrefix(resp.File.DataURL, "data:") || !strings.Contains(resp.File.DataURL, ";base64,") {
		t.Errorf("expected a base64 data URL, got %q", resp.File.DataURL)
	}
	if !resp.File.IsTemporary {
		t.Error("uploads are ephemeral and must be flagged as such")
	}
}

func TestHandleUpload_RejectsDisallowedType(t *testing.T) {
	h, _ := newTestHandler()

	body, contentType := multipartBody(t, "setup.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for executable, got %d", rec.Code)
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	h, _ := newTestHandler()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("unrelated", "value")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a file, got %d", rec.Code)
	}
}
