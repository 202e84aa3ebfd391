// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only repository functions for the
// User model; account creation and activation are owned elsewhere.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// FindUserByID fetches a user by primary key, or ErrNotFound.
func FindUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListActivatedUsers returns activated users ordered by first name, skipping
// exceptID when it is non-empty.
func ListActivatedUsers(ctx context.Context, db *gorm.DB, exceptID string) ([]domain.User, error) {
	var out []domain.User
	q := db.WithContext(ctx).Where("activation_token IS NULL")
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Order("first_name ASC, id ASC").Find(&out).Error
	return out, err
}

// FindUsersByIDs loads the given users keyed by id. Unknown ids are absent
// from the result.
func FindUsersByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}
