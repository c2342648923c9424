package policy

import (
	"testing"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
)

func TestDecide(t *testing.T) {
	cutoff := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		post model.Post
		want model.Decision
	}{
		{
			name: "older than cutoff",
			post: model.Post{ID: 1, CreatedAt: cutoff.Add(-10 * 24 * time.Hour)},
			want: model.DecisionDelete,
		},
		{
			name: "newer than cutoff",
			post: model.Post{ID: 2, CreatedAt: cutoff.Add(time.Hour)},
			want: model.DecisionKeepRecent,
		},
		{
			name: "exactly at cutoff is kept",
			post: model.Post{ID: 3, CreatedAt: cutoff},
			want: model.DecisionKeepRecent,
		},
		{
			name: "one nanosecond before cutoff",
			post: model.Post{ID: 4, CreatedAt: cutoff.Add(-time.Nanosecond)},
			want: model.DecisionDelete,
		},
		{
			name: "protected and old",
			post: model.Post{ID: 5, CreatedAt: cutoff.Add(-50 * 24 * time.Hour), Protected: true},
			want: model.DecisionKeepProtected,
		},
		{
			name: "protected and recent",
			post: model.Post{ID: 6, CreatedAt: cutoff.Add(time.Hour), Protected: true},
			want: model.DecisionKeepProtected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.post, cutoff); got != tt.want {
				t.Errorf("Decide() = %q, want %q", got, tt.want)
			}
			if got, want := ShouldDelete(tt.post, cutoff), tt.want == model.DecisionDelete; got != want {
				t.Errorf("ShouldDelete() = %v, want %v", got, want)
			}
		})
	}
}

func TestShouldDeleteProperties(t *testing.T) {
	cutoff := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	for offset := -72 * time.Hour; offset <= 72*time.Hour; offset += 90 * time.Minute {
		created := cutoff.Add(offset)

		protected := model.Post{CreatedAt: created, Protected: true}
		if ShouldDelete(protected, cutoff) {
			t.Fatalf("protected post at offset %s would be deleted", offset)
		}

		plain := model.Post{CreatedAt: created}
		if got, want := ShouldDelete(plain, cutoff), created.Before(cutoff); got != want {
			t.Fatalf("offset %s: ShouldDelete() = %v, want %v", offset, got, want)
		}
	}
}
