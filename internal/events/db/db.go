package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"ms-eventus/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- WRITES ----------------

// CreateEvent → insert a new event, ID is populated on the model
func (d *DB) CreateEvent(event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(context.Background())
	return err
}

// ReplaceSystemEvents → within one transaction, delete every system-sourced
// row and insert the freshly generated batch. User rows are never touched.
func (d *DB) ReplaceSystemEvents(events []models.Event) error {
	return d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("source = ?", models.SourceSystem).
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&events).Exec(ctx)
		return err
	})
}

// DeactivateExpired → soft-delete every active row whose expiry has passed.
// Returns the number of rows affected; zero is not an error.
func (d *DB) DeactivateExpired(now time.Time) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("is_active = ?", false).
		Where("expiry IS NOT NULL").
		Where("expiry <= ?", now).
		Where("is_active = ?", true).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeactivateEvent → soft-delete one active row. Reports whether a row changed
// so the caller can distinguish not-found/already-inactive.
func (d *DB) DeactivateEvent(id int64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("is_active = ?", false).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *DB) UpdateNotInterested(id int64, serialized string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("not_interested_users = ?", serialized).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) UpdateRating(id int64, rating int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("rating = ?", rating).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) UpdateImageURL(id int64, imageURL string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("image_url = ?", imageURL).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ---------------- READS ----------------

// GetEventByID → fetch one event by its ID
func (d *DB) GetEventByID(id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ActiveEventExists → duplicate check for user submissions: an active row
// with the same (title, date, city) blocks a new insert.
func (d *DB) ActiveEventExists(title string, date time.Time, city string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("title = ?", title).
		Where("date = ?", date).
		Where("city = ?", city).
		Where("is_active = ?", true).
		Exists(context.Background())
}

// EventExists → existence check by ID regardless of active state
func (d *DB) EventExists(id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(context.Background())
}

// ListActive → active events with case-insensitive city/category matching,
// ordered by date ascending. Empty filters match everything.
func (d *DB) ListActive(city string, interests []string) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Where("is_active = ?", true)

	if city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if len(interests) > 0 {
		lowered := make([]string, len(interests))
		for i, interest := range interests {
			lowered[i] = strings.ToLower(strings.TrimSpace(interest))
		}
		q = q.Where("LOWER(category) IN (?)", bun.In(lowered))
	}

	err := q.Order("date ASC").Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FilterActive → active events with exact city/college/category matching.
// This endpoint deliberately does not case-fold; clients depend on it.
func (d *DB) FilterActive(city, college string, interests []string) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Where("is_active = ?", true)

	if city != "" {
		q = q.Where("city = ?", city)
	}
	if college != "" {
		q = q.Where("college = ?", college)
	}
	if len(interests) > 0 {
		q = q.Where("category IN (?)", bun.In(interests))
	}

	err := q.Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}
