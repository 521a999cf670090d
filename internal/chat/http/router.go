package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickchat/server/internal/chat/service"
	wsgateway "github.com/quickchat/server/internal/chat/websocket"
	commonhttp "github.com/quickchat/server/internal/common/http"
	"github.com/quickchat/server/internal/common/jwtverify"
	"github.com/quickchat/server/internal/common/logger"
)

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Handler serves the message endpoints and the websocket upgrade.
type Handler struct {
	chat      *service.ChatService
	gateway   *wsgateway.Gateway
	jwtSecret []byte
	timeout   time.Duration
	log       *logger.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(chat *service.ChatService, gateway *wsgateway.Gateway, jwtSecret []byte, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		chat:      chat,
		gateway:   gateway,
		jwtSecret: jwtSecret,
		timeout:   timeout,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the message routes onto mux. The authed middleware must
// populate jwtverify claims; the websocket route authenticates on its own
// since browsers cannot set headers on the upgrade request.
func (h *Handler) Register(mux *http.ServeMux, authed func(http.Handler) http.Handler) {
	wrap := func(method string, fn http.HandlerFunc) http.Handler {
		return authed(commonhttp.RequireMethod(method)(commonhttp.WithTimeout(h.timeout)(fn)))
	}

	mux.Handle("/api/messages/users", wrap(http.MethodGet, h.listCounterparts))
	mux.Handle("/api/messages/send/", wrap(http.MethodPost, h.sendMessage))
	mux.Handle("/api/messages/mark/", wrap(http.MethodPut, h.markSeen))
	mux.Handle("/api/messages/", wrap(http.MethodGet, h.fetchConversation))
	mux.HandleFunc("/ws", h.serveWS)
}

func (h *Handler) listCounterparts(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}

	sidebar, err := h.chat.ListCounterparts(r.Context(), claims.UserID)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, sidebar)
}

func (h *Handler) fetchConversation(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}
	otherID, ok := commonhttp.ExtractIDParam(r.URL.Path, "/api/messages/")
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidIDFormat, "invalid user id")
		return
	}

	messages, err := h.chat.FetchConversation(r.Context(), claims.UserID, otherID)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}
	receiverID, ok := commonhttp.ExtractIDParam(r.URL.Path, "/api/messages/send/")
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidIDFormat, "invalid receiver id")
		return
	}

	var req sendMessageRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body")
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), claims.UserID, receiverID, service.SendInput{
		Text:  req.Text,
		Image: []byte(req.Image),
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) markSeen(w http.ResponseWriter, r *http.Request) {
	if _, ok := jwtverify.FromContext(r.Context()); !ok {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "authentication required")
		return
	}
	messageID, ok := commonhttp.ExtractIDParam(r.URL.Path, "/api/messages/mark/")
	if !ok {
		commonhttp.WriteErrorCode(w, http.StatusBadRequest, commonhttp.CodeInvalidIDFormat, "invalid message id")
		return
	}

	if err := h.chat.MarkSeen(r.Context(), messageID); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"seen": true})
}

// serveWS authenticates the upgrade request, upgrades it, and hands the
// connection to the gateway. The token comes from the Authorization header
// or the token query parameter; a bad token is rejected before upgrading so
// no unauthenticated socket ever reaches the registry.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	token, ok := jwtverify.ExtractTokenFromHeader(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "authentication required")
		return
	}

	claims, err := jwtverify.ParseToken(token, h.jwtSecret)
	if err != nil {
		commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed for user %s: %v", claims.UserID, err)
		return
	}
	h.gateway.Attach(conn, claims.UserID)
}
