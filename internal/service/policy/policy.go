// Package policy decides which posts are eligible for deletion.
package policy

import (
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
)

// ShouldDelete reports whether post is older than cutoff and not protected.
func ShouldDelete(post model.Post, cutoff time.Time) bool {
	return Decide(post, cutoff) == model.DecisionDelete
}

func Decide(post model.Post, cutoff time.Time) model.Decision {
	if post.Protected {
		return model.DecisionKeepProtected
	}
	if post.CreatedAt.Before(cutoff) {
		return model.DecisionDelete
	}
	return model.DecisionKeepRecent
}
