//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"content-token-platform/internal/domain"
	"content-token-platform/internal/domain/model"
)

func TestUnlockRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewUnlockRepo(testPool)

	rec := func(userID, contentID string) *model.UnlockRecord {
		return &model.UnlockRecord{UserID: userID, ContentID: contentID, UnlockPrice: 3, UnlockedAt: time.Now()}
	}

	t.Run("should insert and find an unlock", func(t *testing.T) {
		cleanup(t)

		if err := repo.Insert(ctx, rec("u1", "img1")); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		found, err := repo.Find(ctx, "u1", "img1")
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if found.UnlockPrice != 3 {
			t.Errorf("expected unlock price 3, got %d", found.UnlockPrice)
		}

		ok, err := repo.Exists(ctx, "u1", "img1")
		if err != nil || !ok {
			t.Errorf("Exists = (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("should reject a duplicate pair with ErrAlreadyExists", func(t *testing.T) {
		cleanup(t)
		repo.Insert(ctx, rec("u1", "img1"))

		err := repo.Insert(ctx, rec("u1", "img1"))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should allow the same content for different users", func(t *testing.T) {
		cleanup(t)
		repo.Insert(ctx, rec("u1", "img1"))

		if err := repo.Insert(ctx, rec("u2", "img1")); err != nil {
			t.Errorf("expected insert for second user to succeed, got %v", err)
		}
	})

	t.Run("should list a user's unlocks newest first", func(t *testing.T) {
		cleanup(t)
		first := rec("u1", "img1")
		first.UnlockedAt = time.Now().Add(-time.Hour)
		repo.Insert(ctx, first)
		repo.Insert(ctx, rec("u1", "img2"))
		repo.Insert(ctx, rec("u2", "img3"))

		list, err := repo.ListByUser(ctx, "u1")
		if err != nil {
			t.Fatalf("ListByUser failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 unlocks, got %d", len(list))
		}
		if list[0].ContentID != "img2" {
			t.Errorf("expected newest unlock first, got %s", list[0].ContentID)
		}
	})

	t.Run("should return ErrNotFound for a missing record", func(t *testing.T) {
		cleanup(t)

		_, err := repo.Find(ctx, "u1", "nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
