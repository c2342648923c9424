package policy

import (
	"strings"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	"github.com/cloudflare/ahocorasick"
)

// Protector marks posts the owner wants kept regardless of age: pinned
// posts, explicitly listed ids and posts mentioning a keep keyword.
type Protector struct {
	keywords *ahocorasick.Matcher
	ids      map[int64]struct{}
}

func NewProtector(cfg config.ProtectConfig) *Protector {
	p := &Protector{ids: make(map[int64]struct{}, len(cfg.MessageIDs))}
	for _, id := range cfg.MessageIDs {
		p.ids[id] = struct{}{}
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) > 0 {
		p.keywords = ahocorasick.NewStringMatcher(keywords)
	}
	return p
}

func (p *Protector) Protects(post model.Post) bool {
	if post.Pinned {
		return true
	}
	if _, ok := p.ids[post.ID]; ok {
		return true
	}
	if p.keywords == nil || post.Text == "" {
		return false
	}
	// Match is not safe for concurrent use; the pager calls Protects from a
	// single goroutine.
	return len(p.keywords.Match([]byte(strings.ToLower(post.Text)))) > 0
}
