package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vraj62023/MultimodalChatbot/internal/middleware"
	aiservice "github.com/vraj62023/MultimodalChatbot/internal/service/ai"
	chatservice "github.com/vraj62023/MultimodalChatbot/internal/service/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
	"github.com/vraj62023/MultimodalChatbot/pkg/utils"
)

const defaultMaxUploadBytes = 5 << 20

// Handler serves the conversation endpoints. All of them assume the auth
// middleware already resolved an owner id into the request context.
type Handler struct {
	chatSvc        *chatservice.Service
	maxUploadBytes int64
}

// New creates the chat handler. maxUploadBytes caps inbound image
// uploads; zero means the 5 MB default.
func New(chatSvc *chatservice.Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{chatSvc: chatSvc, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the conversation routes. limiter wraps only the
// completion endpoint; listing and deleting are cheap.
func (h *Handler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.With(limiter).Post("/completion", h.handleCompletion)
	r.Delete("/completion/stop", h.handleStop)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleDelete)
}

// completionPayload is the request shape shared by the JSON and
// multipart variants of the completion endpoint.
type completionPayload struct {
	Message  string `json:"message"`
	Model    string `json:"model"`
	ChatID   string `json:"chatId"`
	image    []byte
	mimeType string
}

// handleCompletion accepts either application/json or multipart form
// data (the latter carrying an optional "image" file) and returns the
// generated reply with its provenance.
func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	payload, err := h.parseCompletionRequest(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.chatSvc.SendMessage(r.Context(), chatservice.SendMessageInput{
		OwnerID:        ownerID,
		ConversationID: payload.ChatID,
		Prompt:         payload.Message,
		Image:          payload.image,
		MimeType:       payload.mimeType,
		Provider:       payload.Model,
	})
	if err != nil {
		h.respondCompletionError(w, out, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"result":    out.Text,
		"chatId":    out.ConversationID,
		"title":     out.Title,
		"modelUsed": out.Provider,
	})
}

// respondCompletionError maps service errors onto HTTP statuses. A store
// failure after a successful generation still carries the answer so the
// client can show it alongside the warning.
func (h *Handler) respondCompletionError(w http.ResponseWriter, out chatservice.SendMessageOutput, err error) {
	switch {
	case errors.Is(err, chatservice.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "message or image is required")
	case errors.Is(err, aiservice.ErrInvalidProvider):
		utils.RespondError(w, http.StatusBadRequest, "invalid model selected")
	case errors.Is(err, context.Canceled):
		utils.RespondError(w, http.StatusBadRequest, "generation cancelled")
	case errors.Is(err, chatservice.ErrResponseNotSaved):
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     "response generated but not saved",
			"result":    out.Text,
			"chatId":    out.ConversationID,
			"title":     out.Title,
			"modelUsed": out.Provider,
		})
	case errors.Is(err, aiservice.ErrGenerationFailed):
		utils.RespondError(w, http.StatusBadGateway, "all providers failed to generate a response")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleStop cancels the caller's in-flight generation, if any.
func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if h.chatSvc.StopGeneration(ownerID) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "generation stopped"})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "no generation in progress"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	summaries, err := h.chatSvc.ListConversations(r.Context(), ownerID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	utils.RespondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	conv, err := h.chatSvc.GetConversation(r.Context(), chi.URLParam(r, "id"), ownerID)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chat not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}
	utils.RespondJSON(w, http.StatusOK, conv)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	err := h.chatSvc.DeleteConversation(r.Context(), chi.URLParam(r, "id"), ownerID)
	if err != nil && !errors.Is(err, store.ErrConversationNotFound) {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "chat deleted"})
}

// parseCompletionRequest decodes either variant of the completion body.
// Multipart uploads are held in memory and rejected unless they are
// images within the configured size cap.
func (h *Handler) parseCompletionRequest(r *http.Request) (completionPayload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var payload completionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return completionPayload{}, errors.New("invalid request body")
		}
		return payload, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return completionPayload{}, errors.New("invalid or oversized form data")
	}

	payload := completionPayload{
		Message: r.FormValue("message"),
		Model:   r.FormValue("model"),
		ChatID:  r.FormValue("chatId"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return payload, nil
	}
	if err != nil {
		return completionPayload{}, errors.New("invalid image upload")
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return completionPayload{}, errors.New("image exceeds upload limit")
	}

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return completionPayload{}, errors.New("only image files are allowed")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return completionPayload{}, errors.New("failed to read image upload")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return completionPayload{}, errors.New("image exceeds upload limit")
	}

	payload.image = data
	payload.mimeType = mimeType
	return payload, nil
}
