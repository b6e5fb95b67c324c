package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"chatroom/internal/config"
	"chatroom/internal/delivery/ws"
	"chatroom/internal/domain"
	"chatroom/internal/middleware"
	"chatroom/internal/storage"
	"chatroom/internal/usecase"
)

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(origin string) bool {
	// Empty origin is allowed (same-origin requests)
	if origin == "" {
		return true
	}

	for _, allowed := range config.AppConfig.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isOriginAllowed(r.Header.Get("Origin"))
	},
}

// Handler serves the REST surface and the WebSocket upgrade.
type Handler struct {
	hub      *ws.Hub
	accounts *usecase.AccountService
	tokens   *usecase.TokenManager
	store    *storage.Store // nil in pure in-memory mode
}

// NewHandler creates a Handler.
func NewHandler(hub *ws.Hub, accounts *usecase.AccountService, tokens *usecase.TokenManager, store *storage.Store) *Handler {
	return &Handler{hub: hub, accounts: accounts, tokens: tokens, store: store}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	User    any    `json:"user,omitempty"`
	Room    any    `json:"room,omitempty"`
	Rooms   any    `json:"rooms,omitempty"`
	Users   any    `json:"users,omitempty"`
	File    any    `json:"file,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiResponse{Success: false, Message: err.Error()})
}

type credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// HandleRegister creates a new account. Registration does not log the
// user in; that is a separate explicit step.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	user, err := h.accounts.Register(req.Nickname, req.Password)
	if err != nil {
		writeError(w, accountErrorStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "registered", User: user.Public()})
}

// HandleLogin verifies credentials and issues a login token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	user, err := h.accounts.Login(req.Nickname, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	token, err := h.tokens.Issue(user.Public())
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("could not issue token"))
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Token: token, User: user.Public()})
}

// HandleCurrentUser echoes the identity behind the bearer token.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, User: domain.PublicUser{ID: claims.UserID, Nickname: claims.Nickname}})
}

// HandleUpdateUser changes nickname and/or password. A fresh token is
// issued because the claims embed the nickname.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}

	var req struct {
		Nickname    string `json:"nickname"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	user, err := h.accounts.Update(claims.UserID, req.Nickname, req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, accountErrorStatus(err), err)
		return
	}

	token, err := h.tokens.Issue(user.Public())
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("could not issue token"))
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "updated", Token: token, User: user.Public()})
}

// HandleListRooms returns the room directory with member counts.
func (h *Handler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Rooms: h.hub.Rooms()})
}

// HandleCreateRoom creates a room over REST. The owner still has to
// join it over the socket.
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("not logged in"))
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	room, err := h.hub.CreateRoomFor(claims.Nickname, req.Name, req.Description)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRoomNameEmpty) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "room created", Room: domain.RoomInfo{Room: *room}})
}

// HandleRoom returns one room with its current member list.
func (h *Handler) HandleRoom(w http.ResponseWriter, r *http.Request) {
	info, users, err := h.hub.RoomDetail(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Room: info, Users: users})
}

// HandleRoomHistory returns the archived messages of a room, oldest
// first. Without a store there is no history to serve.
func (h *Handler) HandleRoomHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, errors.New("message history not enabled"))
		return
	}

	records, err := h.store.RoomHistory(r.PathValue("id"), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("could not load history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": records})
}

type uploadedFile struct {
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	DataURL      string `json:"dataUrl"`
	IsTemporary  bool   `json:"isTemporary"`
}

// HandleUpload buffers one uploaded file in memory and hands it back as
// a base64 data URL. Nothing touches disk; the file lives only in the
// messages that reference it.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := config.AppConfig.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file too large, limit is %d MB", maxSize>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("no file selected"))
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	mimeType := header.Header.Get("Content-Type")
	if name == "" || !isAllowedUpload(name, mimeType) {
		writeError(w, http.StatusBadRequest, errors.New("file type not allowed: images, documents and archives only"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("upload failed"))
		return
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	writeJSON(w, http.StatusOK, apiResponse{Success: true, File: uploadedFile{
		OriginalName: name,
		Size:         int64(len(data)),
		MimeType:     mimeType,
		DataURL:      dataURL,
		IsTemporary:  true,
	}})
}

// HandleWebSocket upgrades the connection and registers it with the
// hub. A valid login token in the query attaches identity immediately;
// otherwise the client announces itself with a userJoin event.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()

	if token := r.URL.Query().Get("token"); token != "" {
		if claims, err := h.tokens.Validate(token); err == nil {
			h.hub.AttachIdentity(client, ws.Identity{UserID: claims.UserID, Nickname: claims.Nickname})
		}
	}

	go client.ReadPump()
}

// accountErrorStatus maps account service failures to HTTP statuses.
func accountErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNicknameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNicknameLength),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrNothingToUpdate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
