package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-eventus/internal/bot"
	"ms-eventus/internal/events/service"
	"ms-eventus/internal/logger"
	"ms-eventus/internal/models"
	"ms-eventus/internal/qr"
	"ms-eventus/internal/uploads"
	"ms-eventus/internal/utils"
)

type Handler struct {
	EventService *service.EventService
	Uploads      *uploads.Store
	QR           *qr.Generator
	Logger       *logger.Logger

	// UploadBaseURL overrides the request host when building image URLs,
	// for deployments behind a proxy.
	UploadBaseURL string
}

// RegisterRoutes wires every event endpoint onto the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/events/load", h.LoadEvents)

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/filter", h.FilterEvents)
		r.Post("/add", h.AddEvent)
		r.Get("/{eventId}", h.GetEvent)
		r.Delete("/{eventId}", h.DeleteEvent)
		r.Post("/{eventId}/not-interested", h.NotInterested)
		r.Post("/{eventId}/rate", h.RateEvent)
		r.Post("/{eventId}/upload-image", h.UploadImage)
		r.Get("/{eventId}/qr", h.EventQR)
	})

	r.Post("/api/boxbot", h.BoxBot)
}

// ---------------- QUERIES ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	var interests []string
	for _, interest := range strings.Split(r.URL.Query().Get("interests"), ",") {
		if interest = strings.TrimSpace(interest); interest != "" {
			interests = append(interests, interest)
		}
	}
	h.Logger.Info("API", fmt.Sprintf("ListEvents: city=%q interests=%v", city, interests))

	events, err := h.EventService.ListEvents(city, interests)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		h.writeServiceError(w, err, "Failed to fetch events")
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

func (h *Handler) FilterEvents(w http.ResponseWriter, r *http.Request) {
	var req models.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("FilterEvents: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	events, err := h.EventService.FilterEvents(req.City, req.College, req.Interests)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("FilterEvents: %v", err))
		h.writeServiceError(w, err, "Failed to filter events")
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	event, err := h.EventService.GetEvent(id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: %v", err))
		h.writeServiceError(w, err, "Failed to fetch event")
		return
	}
	h.writeJSON(w, http.StatusOK, event)
}

// ---------------- LIFECYCLE ----------------

// LoadEvents triggers a refresh cycle on demand; the scheduler runs the same
// operation every six hours.
func (h *Handler) LoadEvents(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "LoadEvents: manual refresh requested")

	count, err := h.EventService.RefreshSystemEvents()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LoadEvents: %v", err))
		h.writeServiceError(w, err, "Failed to load events")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("%d new events saved", count), map[string]int{"count": count}))
}

func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AddEvent: title=%q city=%q date=%q", req.Title, req.City, req.Date))

	event, err := h.EventService.AddUserEvent(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddEvent: %v", err))
		h.writeServiceError(w, err, "Failed to add event")
		return
	}
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Event added successfully", event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	h.Logger.Info("API", fmt.Sprintf("DeleteEvent: eventId=%d", id))

	if err := h.EventService.DeactivateEvent(id); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		if errors.Is(err, service.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Event not found or already deleted", err.Error()))
			return
		}
		h.writeServiceError(w, err, "Failed to delete event")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("Event %d marked inactive", id), nil))
}

func (h *Handler) NotInterested(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var req models.NotInterestedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("NotInterested: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.EventService.MarkNotInterested(id, req.UserID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("NotInterested: %v", err))
		h.writeServiceError(w, err, "Failed to mark not interested")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Marked as not interested", nil))
}

func (h *Handler) RateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RateEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.EventService.RateEvent(id, req.Rating); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RateEvent: %v", err))
		h.writeServiceError(w, err, "Failed to rate event")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Event rated successfully", nil))
}

// ---------------- MEDIA ----------------

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadImage: no file provided: %v", err))
		http.Error(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		http.Error(w, "Empty filename", http.StatusBadRequest)
		return
	}

	filename, err := h.Uploads.Save(id, header, file)
	if err != nil {
		if errors.Is(err, uploads.ErrInvalidFileType) {
			http.Error(w, "Invalid file type", http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UploadImage: %v", err))
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	imageURL := h.imageURL(r, filename)
	if err := h.EventService.AttachImage(id, imageURL); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadImage: %v", err))
		h.writeServiceError(w, err, "Failed to attach image")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Image uploaded",
		"imageUrl": imageURL,
	})
}

func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	event, err := h.EventService.GetEvent(id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to fetch event")
		return
	}

	png, err := h.QR.RegistrationQR(event.RegistrationLink)
	if err != nil {
		if errors.Is(err, qr.ErrNoLink) {
			http.Error(w, "Event has no registration link", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("EventQR: %v", err))
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventQR: failed to write response: %v", err))
	}
}

// ---------------- BOT ----------------

func (h *Handler) BoxBot(w http.ResponseWriter, r *http.Request) {
	var req models.BotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeJSON(w, http.StatusBadRequest, models.BotResponse{Reply: "No message received"})
		return
	}
	h.writeJSON(w, http.StatusOK, models.BotResponse{Reply: bot.Reply(req.Message)})
}

// ---------------- HELPERS ----------------

func (h *Handler) eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) imageURL(r *http.Request, filename string) string {
	base := h.UploadBaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return fmt.Sprintf("%s/static/uploads/%s", strings.TrimRight(base, "/"), filename)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

// writeServiceError maps the service error taxonomy onto HTTP status codes:
// validation 400, conflict 409, not-found 404, everything else 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse(message, vErr.Error()))
	case errors.Is(err, service.ErrConflict):
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse(message, "Event already exists"))
	case errors.Is(err, service.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse(message, "Event not found"))
	default:
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse(message, "Internal server error"))
	}
}
