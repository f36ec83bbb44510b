package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/deck/internal/models"
)

func TestParseStatusFlag(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.TaskStatus
		wantErr bool
	}{
		{"done", models.TaskStatusDone, false},
		{"In-Progress", models.TaskStatusInProgress, false},
		{"in_progress", models.TaskStatusInProgress, false},
		{"todo", models.TaskStatusPending, false},
		{"started", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseStatusFlag(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDueFlag(t *testing.T) {
	got, err := parseDueFlag("2024-02-01")
	if err != nil || !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date: got %v, err %v", got, err)
	}
	if _, err := parseDueFlag("2024-02-01T09:30:00+02:00"); err != nil {
		t.Errorf("rfc3339: %v", err)
	}
	if _, err := parseDueFlag("next week"); err == nil {
		t.Error("expected error")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %q", got)
	}
	if got := splitList(""); got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil", got)
	}
}

func TestPatchFromFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "update"}
		addUpdateFlags(cmd)
		return cmd
	}

	t.Run("only changed flags are set", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.ParseFlags([]string{"--status", "done", "--tags", "", "--estimate", "1.5"}); err != nil {
			t.Fatal(err)
		}
		patch, err := patchFromFlags(cmd)
		if err != nil {
			t.Fatalf("patchFromFlags failed: %v", err)
		}
		if patch.Status == nil || *patch.Status != models.TaskStatusDone {
			t.Errorf("Status = %v", patch.Status)
		}
		if patch.Tags == nil || len(*patch.Tags) != 0 {
			t.Errorf("Tags = %v, want cleared", patch.Tags)
		}
		if patch.EstimatedHours == nil || *patch.EstimatedHours != 1.5 {
			t.Errorf("EstimatedHours = %v", patch.EstimatedHours)
		}
		if patch.Title != nil || patch.Description != nil || patch.ParentID != nil || patch.DueDate != nil {
			t.Errorf("unexpected fields set: %+v", patch)
		}
	})

	t.Run("invalid priority", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.ParseFlags([]string{"--priority", "whenever"}); err != nil {
			t.Fatal(err)
		}
		if _, err := patchFromFlags(cmd); err == nil {
			t.Error("expected error")
		}
	})
}
