package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-eventus/internal/events/db"
	"ms-eventus/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Event)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create events table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func sampleEvent(title, city, category string, date time.Time) models.Event {
	return models.Event{
		Title:    title,
		City:     city,
		Category: category,
		Date:     date,
		Expiry:   time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, time.UTC),
		IsActive: true,
		Source:   models.SourceUser,
	}
}

func futureDate(days int) time.Time {
	d := time.Now().AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func TestCreateAndGetEvent(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	event := sampleEvent("Hackathon", "Pune", "Tech", futureDate(3))
	err := eventDB.CreateEvent(&event)
	assert.NoError(t, err)
	assert.NotZero(t, event.ID)

	got, err := eventDB.GetEventByID(event.ID)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "Hackathon", got.Title)
	assert.Equal(t, "Pune", got.City)
	assert.True(t, got.IsActive)

	// Unknown ID
	got, err = eventDB.GetEventByID(9999)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestReplaceSystemEventsLeavesNoResidue(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	userEvent := sampleEvent("User Meetup", "Mumbai", "Tech", futureDate(5))
	assert.NoError(t, eventDB.CreateEvent(&userEvent))

	first := []models.Event{
		{Title: "Concert", City: "Delhi", Category: "Music", Date: futureDate(2), IsActive: true, Source: models.SourceSystem},
		{Title: "Hackathon", City: "Pune", Category: "Tech", Date: futureDate(4), IsActive: true, Source: models.SourceSystem},
	}
	assert.NoError(t, eventDB.ReplaceSystemEvents(first))

	second := []models.Event{
		{Title: "Painting Workshop", City: "Rajkot", Category: "Art", Date: futureDate(6), IsActive: true, Source: models.SourceSystem},
	}
	assert.NoError(t, eventDB.ReplaceSystemEvents(second))

	var systemTitles []string
	err := bunDB.NewSelect().
		Model((*models.Event)(nil)).
		Column("title").
		Where("source = ?", models.SourceSystem).
		Scan(context.Background(), &systemTitles)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Painting Workshop"}, systemTitles)

	// User rows are never touched by refresh
	got, err := eventDB.GetEventByID(userEvent.ID)
	assert.NoError(t, err)
	assert.Equal(t, "User Meetup", got.Title)
}

func TestDeactivateExpiredIsIdempotent(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	now := time.Now().UTC()

	expired := sampleEvent("Old Concert", "Delhi", "Music", futureDate(-1))
	expired.Expiry = now.Add(-time.Minute)
	assert.NoError(t, eventDB.CreateEvent(&expired))

	upcoming := sampleEvent("New Concert", "Delhi", "Music", futureDate(2))
	assert.NoError(t, eventDB.CreateEvent(&upcoming))

	noExpiry := sampleEvent("Open Ended", "Pune", "Tech", futureDate(2))
	noExpiry.Expiry = time.Time{}
	assert.NoError(t, eventDB.CreateEvent(&noExpiry))

	count, err := eventDB.DeactivateExpired(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := eventDB.GetEventByID(expired.ID)
	assert.NoError(t, err)
	assert.False(t, got.IsActive)

	// Second sweep changes nothing
	count, err = eventDB.DeactivateExpired(now)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	got, err = eventDB.GetEventByID(upcoming.ID)
	assert.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestActiveEventExists(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	date := futureDate(3)
	event := sampleEvent("Hackathon", "Pune", "Tech", date)
	assert.NoError(t, eventDB.CreateEvent(&event))

	exists, err := eventDB.ActiveEventExists("Hackathon", date, "Pune")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = eventDB.ActiveEventExists("Hackathon", date, "Mumbai")
	assert.NoError(t, err)
	assert.False(t, exists)

	// Deactivated rows no longer block
	ok, err := eventDB.DeactivateEvent(event.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	exists, err = eventDB.ActiveEventExists("Hackathon", date, "Pune")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestDeactivateEvent(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	event := sampleEvent("Hackathon", "Pune", "Tech", futureDate(3))
	assert.NoError(t, eventDB.CreateEvent(&event))

	ok, err := eventDB.DeactivateEvent(event.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Already inactive
	ok, err = eventDB.DeactivateEvent(event.ID)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Unknown ID
	ok, err = eventDB.DeactivateEvent(9999)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestListActiveCaseInsensitive(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	pune := sampleEvent("Hackathon", "Pune", "Tech", futureDate(3))
	assert.NoError(t, eventDB.CreateEvent(&pune))
	delhi := sampleEvent("Concert", "Delhi", "Music", futureDate(1))
	assert.NoError(t, eventDB.CreateEvent(&delhi))
	inactive := sampleEvent("Old Fair", "Pune", "Cultural", futureDate(2))
	inactive.IsActive = false
	assert.NoError(t, eventDB.CreateEvent(&inactive))

	// Lowercase city matches
	events, err := eventDB.ListActive("pune", nil)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "Hackathon", events[0].Title)

	// Different city does not
	events, err = eventDB.ListActive("Mumbai", nil)
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Case-insensitive category membership
	events, err = eventDB.ListActive("", []string{"TECH", "music"})
	assert.NoError(t, err)
	assert.Len(t, events, 2)

	// Ordered by date ascending
	assert.Equal(t, "Concert", events[0].Title)
	assert.Equal(t, "Hackathon", events[1].Title)
}

func TestFilterActiveExactMatch(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	event := sampleEvent("Hackathon", "Pune", "Tech", futureDate(3))
	event.College = "COEP"
	assert.NoError(t, eventDB.CreateEvent(&event))

	// Exact match succeeds
	events, err := eventDB.FilterActive("Pune", "COEP", []string{"Tech"})
	assert.NoError(t, err)
	assert.Len(t, events, 1)

	// Filtering is exact, not case-folded
	events, err = eventDB.FilterActive("pune", "", nil)
	assert.NoError(t, err)
	assert.Empty(t, events)

	events, err = eventDB.FilterActive("Pune", "COEP", []string{"tech"})
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestFieldUpdates(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	event := sampleEvent("Hackathon", "Pune", "Tech", futureDate(3))
	assert.NoError(t, eventDB.CreateEvent(&event))

	assert.NoError(t, eventDB.UpdateRating(event.ID, 4))
	assert.NoError(t, eventDB.UpdateNotInterested(event.ID, `["user1","user2"]`))
	assert.NoError(t, eventDB.UpdateImageURL(event.ID, "http://localhost/static/uploads/x.png"))

	got, err := eventDB.GetEventByID(event.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, `["user1","user2"]`, got.NotInterestedUsers)
	assert.Equal(t, "http://localhost/static/uploads/x.png", got.ImageURL)

	exists, err := eventDB.EventExists(event.ID)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = eventDB.EventExists(9999)
	assert.NoError(t, err)
	assert.False(t, exists)
}
