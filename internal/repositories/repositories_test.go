package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// exerciseTokenStore runs the behavior every TokenStore backend shares.
func exerciseTokenStore(t *testing.T, store TokenStore) {
	ctx := context.Background()

	t.Run("Get missing", func(t *testing.T) {
		if _, err := store.Get(ctx, "nobody@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Latest empty", func(t *testing.T) {
		if _, _, err := store.Latest(ctx); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save and Get", func(t *testing.T) {
		rec := models.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}
		if err := store.Save(ctx, "a@example.com", rec); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, err := store.Get(ctx, "a@example.com")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got != rec {
			t.Errorf("got %#v, want %#v", got, rec)
		}
	})

	t.Run("Save overwrites", func(t *testing.T) {
		rec := models.TokenRecord{AccessToken: "a2", RefreshToken: "r", ExpiresAt: 200, Error: models.RefreshFailed}
		if err := store.Save(ctx, "a@example.com", rec); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, _ := store.Get(ctx, "a@example.com")
		if got != rec {
			t.Errorf("got %#v, want %#v", got, rec)
		}
	})

	t.Run("Latest", func(t *testing.T) {
		if err := store.Save(ctx, "b@example.com", models.TokenRecord{AccessToken: "b", ExpiresAt: 1}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		email, rec, err := store.Latest(ctx)
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if email != "b@example.com" || rec.AccessToken != "b" {
			t.Errorf("unexpected latest %s %#v", email, rec)
		}
	})

	t.Run("Save requires email", func(t *testing.T) {
		if err := store.Save(ctx, "", models.TokenRecord{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "b@example.com"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := store.Get(ctx, "b@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "b@example.com"); err != nil {
			t.Errorf("deleting twice should not fail, got %v", err)
		}
	})
}

func TestTokenRepository(t *testing.T) {
	repo := NewTokenRepository(setupTestDB(t))
	if repo.Name() != "sqlite" {
		t.Errorf("unexpected name %s", repo.Name())
	}
	exerciseTokenStore(t, repo)
}

func TestNopTokenStore(t *testing.T) {
	ctx := context.Background()
	var store TokenStore = NopTokenStore{}

	if err := store.Save(ctx, "a@example.com", models.TokenRecord{AccessToken: "a"}); err != nil {
		t.Errorf("save should succeed, got %v", err)
	}
	if _, err := store.Get(ctx, "a@example.com"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Latest(ctx); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	playlist := func(id, title string) models.Playlist {
		return models.Playlist{ID: id, Snippet: models.PlaylistSnippet{
			Title:      title,
			Thumbnails: models.Thumbnails{"high": {URL: id + ".jpg"}},
		}}
	}

	t.Run("Save", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		saved := models.NewSavedPlaylist(playlist("PL1", "Mix"), "me@example.com")

		created, err := repo.Save(ctx, saved)
		if err != nil {
			t.Fatalf("failed to save playlist: %v", err)
		}
		if !created {
			t.Error("expected first save to create a row")
		}
		if saved.ID == "" {
			t.Error("playlist ID should be set after save")
		}

		got, err := repo.GetByYouTubeID(ctx, "PL1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.Title != "Mix" || got.ThumbnailURL != "PL1.jpg" || got.OwnerEmail != "me@example.com" {
			t.Errorf("unexpected playlist %#v", got)
		}
	})

	t.Run("Save keeps existing row on conflict", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))

		if _, err := repo.Save(ctx, models.NewSavedPlaylist(playlist("PL1", "First"), "me@example.com")); err != nil {
			t.Fatalf("failed to save playlist: %v", err)
		}

		created, err := repo.Save(ctx, models.NewSavedPlaylist(playlist("PL1", "Second"), "other@example.com"))
		if err != nil {
			t.Fatalf("conflicting save should not error: %v", err)
		}
		if created {
			t.Error("expected conflicting save to be ignored")
		}

		got, _ := repo.GetByYouTubeID(ctx, "PL1")
		if got.Title != "First" {
			t.Errorf("expected original title to be kept, got %s", got.Title)
		}
	})

	t.Run("Save validates", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		if _, err := repo.Save(ctx, &models.SavedPlaylist{Title: "x"}); !errors.Is(err, models.ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord, got %v", err)
		}
	})

	t.Run("SaveAll and ListByOwner", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		list := []models.Playlist{playlist("PL1", "One"), playlist("PL2", "Two")}

		created, err := repo.SaveAll(ctx, "me@example.com", list)
		if err != nil {
			t.Fatalf("failed to save playlists: %v", err)
		}
		if created != 2 {
			t.Errorf("expected 2 new playlists, got %d", created)
		}

		again, err := repo.SaveAll(ctx, "me@example.com", list)
		if err != nil || again != 0 {
			t.Errorf("expected 0 new playlists on resave, got %d (%v)", again, err)
		}

		if _, err := repo.SaveAll(ctx, "other@example.com", []models.Playlist{playlist("PL3", "Three")}); err != nil {
			t.Fatalf("failed to save playlists: %v", err)
		}

		mine, err := repo.ListByOwner(ctx, "me@example.com")
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(mine) != 2 || mine[0].YouTubePlaylistID != "PL1" || mine[1].YouTubePlaylistID != "PL2" {
			t.Errorf("unexpected playlists %#v", mine)
		}

		none, err := repo.ListByOwner(ctx, "nobody@example.com")
		if err != nil || none == nil || len(none) != 0 {
			t.Errorf("expected empty non-nil list, got %#v (%v)", none, err)
		}
	})

	t.Run("GetByYouTubeID missing", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		if _, err := repo.GetByYouTubeID(ctx, "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		repo.SaveAll(ctx, "me@example.com", []models.Playlist{playlist("PL1", "One")})

		n, err := repo.DeleteByOwner(ctx, "me@example.com")
		if err != nil || n != 1 {
			t.Errorf("expected 1 deleted row, got %d (%v)", n, err)
		}
	})
}
