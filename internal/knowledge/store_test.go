package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avion00/medicare-backend/internal/crawl"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var entryColumns = []string{"id", "website_url", "summary", "user_id", "created_at"}

func TestStoreCreate(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO knowledge_base").
		WithArgs("https://example.com", "a b", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))

	entry, err := NewStore(db).Create(context.Background(), 7, "https://example.com", "a b")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.ID != 11 || entry.UserID != 7 || entry.Summary != "a b" || !entry.CreatedAt.Equal(created) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreCreateValidates(t *testing.T) {
	db, _ := newMock(t)
	store := NewStore(db)

	if _, err := store.Create(context.Background(), 0, "https://example.com", ""); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, err := store.Create(context.Background(), 1, "  ", ""); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestStoreGetScopesByOwner(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`SELECT id, website_url, summary, user_id, created_at\s+FROM knowledge_base\s+WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(3, "https://example.com", "shoes", 7, time.Now()))

	entry, err := NewStore(db).Get(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Summary != "shoes" {
		t.Fatalf("unexpected summary %q", entry.Summary)
	}
}

func TestStoreGetForeignWebsiteIsNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("FROM knowledge_base").
		WithArgs(int64(3), int64(8)).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	_, err := NewStore(db).Get(context.Background(), 8, 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetWrapsDatabaseErrors(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("FROM knowledge_base").WillReturnError(boom)

	_, err := NewStore(db).Get(context.Background(), 1, 1)
	if !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped database error, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM knowledge_base\s+WHERE user_id = \$1\s+ORDER BY id ASC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(1, "https://a.example", "a", 7, time.Now()).
			AddRow(2, "https://b.example", "b", 7, time.Now()))

	entries, err := NewStore(db).List(context.Background(), 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[1].WebsiteURL != "https://b.example" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestCombineSummaries(t *testing.T) {
	tests := []struct {
		name  string
		pages []crawl.PageSummary
		want  string
	}{
		{"none", nil, ""},
		{"one", []crawl.PageSummary{{URL: "u1", Summary: "first"}}, "first"},
		{"ordered", []crawl.PageSummary{{URL: "u1", Summary: "first"}, {URL: "u2", Summary: "second"}}, "first second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineSummaries(tt.pages); got != tt.want {
				t.Fatalf("CombineSummaries = %q, want %q", got, tt.want)
			}
		})
	}
}
