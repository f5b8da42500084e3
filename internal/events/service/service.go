package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-eventus/internal/logger"
	"ms-eventus/internal/models"
	"ms-eventus/internal/utils"
)

type DBLayer interface {
	CreateEvent(event *models.Event) error
	ReplaceSystemEvents(events []models.Event) error
	DeactivateExpired(now time.Time) (int64, error)
	DeactivateEvent(id int64) (bool, error)
	UpdateNotInterested(id int64, serialized string) error
	UpdateRating(id int64, rating int) error
	UpdateImageURL(id int64, imageURL string) error
	GetEventByID(id int64) (*models.Event, error)
	ActiveEventExists(title string, date time.Time, city string) (bool, error)
	EventExists(id int64) (bool, error)
	ListActive(city string, interests []string) ([]models.Event, error)
	FilterActive(city, college string, interests []string) ([]models.Event, error)
}

// Generator produces the synthetic batch inserted on each refresh cycle.
type Generator interface {
	Generate(count int) []models.Event
}

// KafkaPublisher streams lifecycle notifications. Publish failures are logged
// and never fail the operation that triggered them.
type KafkaPublisher interface {
	PublishEventsRefreshed(count int) error
	PublishEventsExpired(count int64) error
	PublishEventCreated(event models.Event) error
}

// ListingCache is a best-effort read-through cache for the listing endpoint.
type ListingCache interface {
	Get(key string) ([]models.Event, bool)
	Set(key string, events []models.Event)
	Flush()
}

type EventService struct {
	DB        DBLayer
	Generator Generator
	Kafka     KafkaPublisher
	Cache     ListingCache
	Logger    *logger.Logger
	BatchSize int

	now func() time.Time
}

func NewEventService(db DBLayer, gen Generator, kafka KafkaPublisher, cache ListingCache, log *logger.Logger, batchSize int) *EventService {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &EventService{
		DB:        db,
		Generator: gen,
		Kafka:     kafka,
		Cache:     cache,
		Logger:    log,
		BatchSize: batchSize,
		now:       time.Now,
	}
}

// ---------------- LIFECYCLE ----------------

// RefreshSystemEvents replaces the pool of system-generated filler events with
// a fresh batch. Prior system rows are deleted and the new batch inserted in
// one transaction; user rows are untouched.
func (s *EventService) RefreshSystemEvents() (int, error) {
	batch := s.Generator.Generate(s.BatchSize)
	for i := range batch {
		if batch[i].Expiry.IsZero() && !batch[i].Date.IsZero() {
			batch[i].Expiry = utils.EndOfDay(batch[i].Date)
		}
		batch[i].IsActive = true
		batch[i].Source = models.SourceSystem
	}

	if err := s.DB.ReplaceSystemEvents(batch); err != nil {
		return 0, fmt.Errorf("failed to replace system events: %w", err)
	}

	s.flushCache()
	if s.Kafka != nil {
		if err := s.Kafka.PublishEventsRefreshed(len(batch)); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish refresh notification: %v", err))
		}
	}

	s.Logger.Info("LIFECYCLE", fmt.Sprintf("Refreshed system events, inserted %d", len(batch)))
	return len(batch), nil
}

// SweepExpiredEvents marks every active event past its expiry inactive.
// Idempotent: a second run right after finds nothing to change.
func (s *EventService) SweepExpiredEvents() (int64, error) {
	count, err := s.DB.DeactivateExpired(s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired events: %w", err)
	}

	if count > 0 {
		s.flushCache()
		if s.Kafka != nil {
			if err := s.Kafka.PublishEventsExpired(count); err != nil {
				s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish expiry notification: %v", err))
			}
		}
		s.Logger.Info("LIFECYCLE", fmt.Sprintf("Marked %d expired events inactive", count))
	}
	return count, nil
}

// AddUserEvent validates and inserts a client-submitted event. An active event
// with the same (title, date, city) is a conflict.
func (s *EventService) AddUserEvent(req models.EventRequest) (*models.Event, error) {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return nil, missingField("title")
	case strings.TrimSpace(req.Date) == "":
		return nil, missingField("date")
	case strings.TrimSpace(req.City) == "":
		return nil, missingField("city")
	case strings.TrimSpace(req.Category) == "":
		return nil, missingField("category")
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, invalidField("date", "expected format "+utils.DateLayout)
	}

	expiry := utils.ParseExpiry(req.Expiry)
	if expiry.IsZero() {
		expiry = utils.EndOfDay(date)
	}
	if expiry.Before(date) {
		return nil, invalidField("expiry", "expiry precedes event date")
	}

	exists, err := s.DB.ActiveEventExists(req.Title, date, req.City)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate event: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	link := req.RegistrationLink
	if link == "" {
		link = req.RegistrationLinkAlt
	}

	event := &models.Event{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		City:             req.City,
		College:          req.College,
		Category:         req.Category,
		Date:             date,
		Expiry:           expiry,
		RegistrationLink: link,
		IsActive:         true,
		Source:           models.SourceUser,
	}

	if err := s.DB.CreateEvent(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.flushCache()
	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(*event); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish created notification: %v", err))
		}
	}

	return event, nil
}

// DeactivateEvent soft-deletes one event. Inactive and unknown IDs both
// report not-found, matching the delete endpoint's observed behavior.
func (s *EventService) DeactivateEvent(id int64) error {
	ok, err := s.DB.DeactivateEvent(id)
	if err != nil {
		return fmt.Errorf("failed to deactivate event %d: %w", id, err)
	}
	if !ok {
		return ErrNotFound
	}
	s.flushCache()
	return nil
}

// MarkNotInterested appends userID to the event's not-interested set. The set
// is stored serialized; duplicates are dropped.
func (s *EventService) MarkNotInterested(id int64, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return missingField("userId")
	}

	event, err := s.GetEvent(id)
	if err != nil {
		return err
	}

	var users []string
	if event.NotInterestedUsers != "" {
		if err := json.Unmarshal([]byte(event.NotInterestedUsers), &users); err != nil {
			s.Logger.Warn("LIFECYCLE", fmt.Sprintf("Resetting malformed not_interested_users on event %d: %v", id, err))
			users = nil
		}
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	users = append(users, userID)

	serialized, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to serialize not-interested set: %w", err)
	}
	if err := s.DB.UpdateNotInterested(id, string(serialized)); err != nil {
		return fmt.Errorf("failed to update not-interested set: %w", err)
	}
	return nil
}

// RateEvent stores a rating in [0,5] after verifying the event exists.
func (s *EventService) RateEvent(id int64, rating int) error {
	if rating < 0 || rating > 5 {
		return invalidField("rating", "must be between 0 and 5")
	}

	exists, err := s.DB.EventExists(id)
	if err != nil {
		return fmt.Errorf("failed to check event %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.DB.UpdateRating(id, rating); err != nil {
		return fmt.Errorf("failed to rate event %d: %w", id, err)
	}
	return nil
}

// AttachImage persists the URL of an uploaded event image.
func (s *EventService) AttachImage(id int64, imageURL string) error {
	exists, err := s.DB.EventExists(id)
	if err != nil {
		return fmt.Errorf("failed to check event %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.DB.UpdateImageURL(id, imageURL); err != nil {
		return fmt.Errorf("failed to store image URL for event %d: %w", id, err)
	}
	return nil
}

// ---------------- QUERIES ----------------

func (s *EventService) GetEvent(id int64) (*models.Event, error) {
	event, err := s.DB.GetEventByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch event %d: %w", id, err)
	}
	return event, nil
}

// ListEvents returns active events with case-insensitive city/category
// matching, ordered by date ascending.
func (s *EventService) ListEvents(city string, interests []string) ([]models.Event, error) {
	key := listCacheKey(city, interests)
	if s.Cache != nil {
		if events, ok := s.Cache.Get(key); ok {
			return events, nil
		}
	}

	events, err := s.DB.ListActive(city, interests)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}

	if s.Cache != nil {
		s.Cache.Set(key, events)
	}
	return events, nil
}

// FilterEvents returns active events with exact city/college/category
// matching. Unlike ListEvents it does not case-fold; both semantics are kept
// because clients depend on them.
func (s *EventService) FilterEvents(city, college string, interests []string) ([]models.Event, error) {
	events, err := s.DB.FilterActive(city, college, interests)
	if err != nil {
		return nil, fmt.Errorf("failed to filter events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (s *EventService) flushCache() {
	if s.Cache != nil {
		s.Cache.Flush()
	}
}

func listCacheKey(city string, interests []string) string {
	lowered := make([]string, len(interests))
	for i, interest := range interests {
		lowered[i] = strings.ToLower(strings.TrimSpace(interest))
	}
	return "events:list:" + strings.ToLower(city) + ":" + strings.Join(lowered, ",")
}
