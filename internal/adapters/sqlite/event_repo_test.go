package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/deck/internal/adapters/sqlite"
	"github.com/example/deck/internal/db"
	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
)

func TestEventRepository_Append(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	ctx := context.Background()

	t.Run("appends record with all fields", func(t *testing.T) {
		record := &secondary.EventRecord{
			ID:             "EV-1",
			ProviderType:   "manual",
			ProjectPath:    "/srv/app",
			EventType:      "updated",
			TaskID:         "t1",
			TaskTitle:      "Write docs",
			PreviousStatus: "pending",
			NewStatus:      "done",
			ActorID:        "alice",
			PayloadJSON:    `{"type":"updated"}`,
			Timestamp:      "2024-06-01T10:00:00Z",
		}
		if err := repo.Append(ctx, record); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		got, err := repo.List(ctx, secondary.EventFilters{TaskID: "t1"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
		if *got[0] != *record {
			t.Errorf("record = %+v, want %+v", *got[0], *record)
		}
	})

	t.Run("fills in id and timestamp, nullable fields null", func(t *testing.T) {
		record := &secondary.EventRecord{
			ProviderType: "manual",
			ProjectPath:  "/srv/app",
			EventType:    "deleted",
			TaskID:       "t2",
		}
		if err := repo.Append(ctx, record); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if record.ID == "" || record.Timestamp == "" {
			t.Errorf("record = %+v, want generated id and timestamp", record)
		}

		var title, previous any
		err := testDB.QueryRowContext(ctx, "SELECT task_title, previous_status FROM task_events WHERE id = ?", record.ID).Scan(&title, &previous)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if title != nil || previous != nil {
			t.Errorf("title = %v, previous = %v, want NULL", title, previous)
		}
	})

	t.Run("rejects unknown event type", func(t *testing.T) {
		err := repo.Append(ctx, &secondary.EventRecord{
			ProviderType: "manual",
			ProjectPath:  "/srv/app",
			EventType:    "renamed",
			TaskID:       "t3",
		})
		if err == nil {
			t.Error("expected error for unknown event type")
		}
	})

	t.Run("rejects malformed timestamp", func(t *testing.T) {
		err := repo.Append(ctx, &secondary.EventRecord{
			ProviderType: "manual",
			ProjectPath:  "/srv/app",
			EventType:    "created",
			TaskID:       "t4",
			Timestamp:    "yesterday",
		})
		if err == nil {
			t.Error("expected error for malformed timestamp")
		}
	})
}

func TestEventRepository_List(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	ctx := context.Background()

	seed := []secondary.EventRecord{
		{ID: "EV-1", ProviderType: "manual", ProjectPath: "/a", EventType: "created", TaskID: "t1", Timestamp: "2024-06-01T10:00:00Z"},
		{ID: "EV-2", ProviderType: "manual", ProjectPath: "/a", EventType: "updated", TaskID: "t1", Timestamp: "2024-06-01T11:00:00Z"},
		{ID: "EV-3", ProviderType: "manual", ProjectPath: "/b", EventType: "created", TaskID: "t9", Timestamp: "2024-06-01T12:00:00Z"},
		{ID: "EV-4", ProviderType: "manual", ProjectPath: "/a", EventType: "deleted", TaskID: "t1", Timestamp: "2024-06-01T13:00:00Z"},
	}
	for i := range seed {
		if err := repo.Append(ctx, &seed[i]); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filters secondary.EventFilters
		want    []string
	}{
		{"all newest first", secondary.EventFilters{}, []string{"EV-4", "EV-3", "EV-2", "EV-1"}},
		{"by project", secondary.EventFilters{ProjectPath: "/a"}, []string{"EV-4", "EV-2", "EV-1"}},
		{"by type", secondary.EventFilters{EventType: "created"}, []string{"EV-3", "EV-1"}},
		{"by task with limit", secondary.EventFilters{TaskID: "t1", Limit: 2}, []string{"EV-4", "EV-2"}},
		{"no match", secondary.EventFilters{TaskID: "nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			var got []string
			for _, r := range records {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestEventWriter_Write(t *testing.T) {
	testDB := setupTestDB(t)
	repo := sqlite.NewEventRepository(testDB)
	writer := sqlite.NewEventWriter(repo, "taskmaster", "/srv/app", "bob")
	ctx := context.Background()

	previous := models.TaskStatusPending
	event := models.TaskEvent{
		Type:           models.EventUpdated,
		Task:           models.Task{ID: "7", Title: "Ship", Status: models.TaskStatusDone},
		PreviousStatus: &previous,
		Timestamp:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := writer.Write(ctx, event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := writer.Write(ctx, models.TaskEvent{Type: models.EventDeleted, Task: models.Task{ID: "8"}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := repo.List(ctx, secondary.EventFilters{TaskID: "7"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.ProviderType != "taskmaster" || got.ProjectPath != "/srv/app" || got.ActorID != "bob" {
		t.Errorf("record = %+v", got)
	}
	if got.EventType != "updated" || got.TaskTitle != "Ship" || got.PreviousStatus != "pending" || got.NewStatus != "done" {
		t.Errorf("record = %+v", got)
	}
	if got.Timestamp != "2024-06-01T10:00:00Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}

	var decoded models.TaskEvent
	if err := json.Unmarshal([]byte(got.PayloadJSON), &decoded); err != nil {
		t.Fatalf("payload is not a task event: %v", err)
	}
	if decoded.Task.ID != "7" || decoded.PreviousStatus == nil || *decoded.PreviousStatus != previous {
		t.Errorf("payload = %+v", decoded)
	}

	deleted, err := repo.List(ctx, secondary.EventFilters{TaskID: "8"})
	if err != nil || len(deleted) != 1 || deleted[0].NewStatus != "" || deleted[0].Timestamp == "" {
		t.Errorf("deleted record = %+v, err = %v", deleted, err)
	}
}

func TestOpen_CreatesSchemaOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deck.db")

	conn, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo := sqlite.NewEventRepository(conn)
	if err := repo.Append(context.Background(), &secondary.EventRecord{
		ProviderType: "manual", ProjectPath: "/a", EventType: "created", TaskID: "t1",
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	conn.Close()

	// Reopening an existing journal keeps its rows.
	conn, err = db.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer conn.Close()
	records, err := sqlite.NewEventRepository(conn).List(context.Background(), secondary.EventFilters{})
	if err != nil || len(records) != 1 {
		t.Errorf("records = %v, err = %v", records, err)
	}
}
