package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"sentdebot/core"
	"sentdebot/services"
	"sentdebot/usecases/backfill"
	"sentdebot/usecases/lifecycle"
)

type APIHandler struct {
	baseCtx                context.Context
	messagesService        services.MessagesService
	auditLogService        services.AuditLogService
	usersService           services.UsersService
	weatherSettingsService services.WeatherSettingsService
	lifecycleUseCase       *lifecycle.LifecycleUseCase
	backfillUseCase        *backfill.BackfillUseCase
	guildID                string
}

// NewAPIHandler builds the collaborator query surface. baseCtx bounds the
// lifetime of work started from a request but outliving it, like backfill
// runs; cancelling it on shutdown stops those runs.
func NewAPIHandler(
	baseCtx context.Context,
	messagesService services.MessagesService,
	auditLogService services.AuditLogService,
	usersService services.UsersService,
	weatherSettingsService services.WeatherSettingsService,
	lifecycleUseCase *lifecycle.LifecycleUseCase,
	backfillUseCase *backfill.BackfillUseCase,
	guildID string,
) *APIHandler {
	return &APIHandler{
		baseCtx:                baseCtx,
		messagesService:        messagesService,
		auditLogService:        auditLogService,
		usersService:           usersService,
		weatherSettingsService: weatherSettingsService,
		lifecycleUseCase:       lifecycleUseCase,
		backfillUseCase:        backfillUseCase,
		guildID:                guildID,
	}
}

type MessageMetricResponse struct {
	MessageID string    `json:"message_id"`
	AuthorID  string    `json:"author_id"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"author_id"`
	ChannelID string     `json:"channel_id"`
	ThreadID  *string    `json:"thread_id,omitempty"`
	Content   *string    `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

type AuditLogEntryResponse struct {
	ID        string         `json:"id"`
	LogType   string         `json:"log_type"`
	UserID    *string        `json:"user_id,omitempty"`
	GuildID   *string        `json:"guild_id,omitempty"`
	ChannelID *string        `json:"channel_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type HelpRequestResponse struct {
	ThreadID       string    `json:"thread_id"`
	ThreadName     string    `json:"thread_name"`
	OwnerID        string    `json:"owner_id"`
	OwnerNick      string    `json:"owner_nick"`
	Tags           *string   `json:"tags,omitempty"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type MarkSolvedRequest struct {
	ActorID     string `json:"actor_id"`
	IsModerator bool   `json:"is_moderator"`
}

type WeatherSettingsResponse struct {
	UserID string `json:"user_id"`
	Place  string `json:"place"`
}

type WeatherSettingsRequest struct {
	Place string `json:"place"`
}

type ConsentRequest struct {
	CollectData bool `json:"collect_data"`
}

func (h *APIHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering API endpoints")

	router.HandleFunc("/metrics/messages", h.HandleGetMessageMetrics).Methods("GET")
	router.HandleFunc("/messages/search", h.HandleSearchMessages).Methods("GET")
	router.HandleFunc("/audit-log", h.HandleGetAuditLog).Methods("GET")
	router.HandleFunc("/help/requests", h.HandleListHelpRequests).Methods("GET")
	router.HandleFunc("/help/requests/{threadId}/solve", h.HandleMarkSolved).Methods("POST")
	router.HandleFunc("/members/{userId}/consent", h.HandleSetConsent).Methods("PUT")
	router.HandleFunc("/weather/settings/{userId}", h.HandleGetWeatherSettings).Methods("GET")
	router.HandleFunc("/weather/settings/{userId}", h.HandlePutWeatherSettings).Methods("PUT")
	router.HandleFunc("/weather/settings/{userId}", h.HandleDeleteWeatherSettings).Methods("DELETE")
	router.HandleFunc("/backfill", h.HandleTriggerBackfill).Methods("POST")

	log.Printf("✅ API endpoints registered")
}

func (h *APIHandler) HandleGetMessageMetrics(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Message metrics request received from %s", r.RemoteAddr)

	days := queryInt(r, "days", 14)
	metrics, err := h.messagesService.GetMessageMetrics(r.Context(), h.guildID, days)
	if err != nil {
		log.Printf("❌ Failed to get message metrics: %v", err)
		http.Error(w, "failed to get message metrics", http.StatusInternalServerError)
		return
	}

	response := make([]MessageMetricResponse, 0, len(metrics))
	for _, metric := range metrics {
		response = append(response, MessageMetricResponse{
			MessageID: metric.MessageID,
			AuthorID:  metric.AuthorID,
			ChannelID: metric.ChannelID,
			CreatedAt: metric.CreatedAt,
		})
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *APIHandler) HandleSearchMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Message search request received from %s", r.RemoteAddr)

	term := r.URL.Query().Get("q")
	if term == "" {
		http.Error(w, "q parameter is required", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 5)

	matches, err := h.messagesService.SearchMessages(r.Context(), h.guildID, term, limit)
	if err != nil {
		log.Printf("❌ Failed to search messages: %v", err)
		http.Error(w, "failed to search messages", http.StatusInternalServerError)
		return
	}

	response := make([]MessageResponse, 0, len(matches))
	for _, message := range matches {
		response = append(response, MessageResponse{
			ID:        message.ID,
			AuthorID:  message.AuthorID,
			ChannelID: message.ChannelID,
			ThreadID:  message.ThreadID,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
			EditedAt:  message.EditedAt,
		})
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *APIHandler) HandleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Audit log request received from %s", r.RemoteAddr)

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
	}

	entries, err := h.auditLogService.GetAuditLogEntries(r.Context(), h.guildID, from, to)
	if err != nil {
		log.Printf("❌ Failed to get audit log entries: %v", err)
		http.Error(w, "failed to get audit log entries", http.StatusInternalServerError)
		return
	}

	response := make([]AuditLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, AuditLogEntryResponse{
			ID:        entry.ID,
			LogType:   string(entry.LogType),
			UserID:    entry.UserID,
			GuildID:   entry.GuildID,
			ChannelID: entry.ChannelID,
			Timestamp: entry.Timestamp,
			Data:      entry.Data,
		})
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *APIHandler) HandleListHelpRequests(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Help request listing received from %s", r.RemoteAddr)

	listings, err := h.lifecycleUseCase.ListActiveRequests(r.Context(), h.guildID)
	if err != nil {
		log.Printf("❌ Failed to list help requests: %v", err)
		http.Error(w, "failed to list help requests", http.StatusInternalServerError)
		return
	}

	response := make([]HelpRequestResponse, 0, len(listings))
	for _, listing := range listings {
		response = append(response, HelpRequestResponse{
			ThreadID:       listing.ThreadID,
			ThreadName:     listing.ThreadName,
			OwnerID:        listing.OwnerID,
			OwnerNick:      listing.OwnerNick,
			Tags:           listing.Tags,
			LastActivityAt: listing.LastActivityAt,
		})
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *APIHandler) HandleMarkSolved(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	threadID := vars["threadId"]
	log.Printf("📋 Mark solved request received for thread %s from %s", threadID, r.RemoteAddr)

	var req MarkSolvedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		http.Error(w, "actor_id is required", http.StatusBadRequest)
		return
	}

	err := h.lifecycleUseCase.MarkSolved(r.Context(), threadID, req.ActorID, req.IsModerator)
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "help thread not found", http.StatusNotFound)
	case errors.Is(err, core.ErrNotThreadOwner):
		http.Error(w, "only the thread owner or a moderator can mark solved", http.StatusForbidden)
	case err != nil:
		log.Printf("❌ Failed to mark thread %s solved: %v", threadID, err)
		http.Error(w, "failed to mark thread solved", http.StatusInternalServerError)
	default:
		h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "solved"})
	}
}

func (h *APIHandler) HandleSetConsent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	log.Printf("📋 Consent update request received for user %s from %s", userID, r.RemoteAddr)

	var req ConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.usersService.SetMemberCollectData(r.Context(), userID, h.guildID, req.CollectData)
	if err != nil {
		log.Printf("❌ Failed to update consent for user %s: %v", userID, err)
		http.Error(w, "failed to update consent", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"collect_data": req.CollectData})
}

func (h *APIHandler) HandleGetWeatherSettings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	maybeSettings, err := h.weatherSettingsService.GetWeatherSettings(r.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to get weather settings for user %s: %v", userID, err)
		http.Error(w, "failed to get weather settings", http.StatusInternalServerError)
		return
	}
	settings, ok := maybeSettings.Get()
	if !ok {
		http.Error(w, "weather settings not found", http.StatusNotFound)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, WeatherSettingsResponse{
		UserID: settings.UserID,
		Place:  settings.Place,
	})
}

func (h *APIHandler) HandlePutWeatherSettings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	log.Printf("📋 Weather settings update received for user %s from %s", userID, r.RemoteAddr)

	var req WeatherSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Place == "" {
		http.Error(w, "place is required", http.StatusBadRequest)
		return
	}

	if err := h.weatherSettingsService.SetWeatherSettings(r.Context(), userID, req.Place); err != nil {
		log.Printf("❌ Failed to set weather settings for user %s: %v", userID, err)
		http.Error(w, "failed to set weather settings", http.StatusInternalServerError)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, WeatherSettingsResponse{UserID: userID, Place: req.Place})
}

func (h *APIHandler) HandleDeleteWeatherSettings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	log.Printf("📋 Weather settings delete received for user %s from %s", userID, r.RemoteAddr)

	removed, err := h.weatherSettingsService.ClearWeatherSettings(r.Context(), userID)
	if err != nil {
		log.Printf("❌ Failed to clear weather settings for user %s: %v", userID, err)
		http.Error(w, "failed to clear weather settings", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "weather settings not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTriggerBackfill starts a backfill pass in the background. Only one run
// may be in flight at a time.
func (h *APIHandler) HandleTriggerBackfill(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Backfill trigger received from %s", r.RemoteAddr)

	if h.backfillUseCase.Running() {
		http.Error(w, "backfill is already running", http.StatusConflict)
		return
	}

	go func() {
		if err := h.backfillUseCase.Run(h.baseCtx, h.guildID); err != nil {
			if errors.Is(err, backfill.ErrBackfillRunning) {
				log.Printf("⚠️ Backfill trigger lost the race to a concurrent run")
				return
			}
			log.Printf("❌ Backfill run failed: %v", err)
		}
	}()

	h.writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *APIHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
