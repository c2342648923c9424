package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	"github.com/zelenin/go-tdlib/client"
)

// History pages through a channel with GetChatHistory and deletes messages
// with DeleteMessages.
type History struct {
	client *client.Client
	log    pkg.Logger
	cfg    config.HistoryConfig

	mu    sync.Mutex
	chats map[string]int64
}

func NewHistory(tdlibClient *client.Client, log pkg.Logger, cfg config.HistoryConfig) (*History, error) {
	me, err := tdlibClient.GetMe()
	if err != nil {
		return nil, fmt.Errorf("GetMe error: %w", err)
	}
	log.Info("Authorized successfully", "user_id", me.Id, "first_name", me.FirstName)
	return &History{
		client: tdlibClient,
		log:    log,
		cfg:    cfg,
		chats:  make(map[string]int64),
	}, nil
}

func (h *History) FetchNewest(ctx context.Context, account string) (model.Page, error) {
	return h.fetch(ctx, account, 0)
}

func (h *History) FetchOlder(ctx context.Context, account string, cursor model.Cursor) (model.Page, error) {
	return h.fetch(ctx, account, cursor.MaxID)
}

func (h *History) fetch(ctx context.Context, account string, fromMessageID int64) (model.Page, error) {
	if err := ctx.Err(); err != nil {
		return model.Page{}, err
	}

	chatID, err := h.FindChat(account)
	if err != nil {
		return model.Page{}, err
	}

	history, err := h.client.GetChatHistory(&client.GetChatHistoryRequest{
		ChatId:        chatID,
		FromMessageId: fromMessageID,
		Offset:        0,
		Limit:         h.cfg.PageSize,
		OnlyLocal:     h.cfg.OnlyLocal,
	})
	if err != nil {
		return model.Page{}, fmt.Errorf("GetChatHistory error: %w", classify(err))
	}

	posts := make([]model.Post, 0, len(history.Messages))
	for _, msg := range history.Messages {
		posts = append(posts, h.convert(msg))
	}

	page := model.Page{Posts: posts}
	if len(posts) > 0 {
		page.Cursor = model.Cursor{MaxID: posts[len(posts)-1].ID}
	}
	return page, nil
}

// FindChat resolves a public channel username once and caches the id.
func (h *History) FindChat(username string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.chats[username]; ok {
		return id, nil
	}

	chat, err := h.client.SearchPublicChat(&client.SearchPublicChatRequest{Username: username})
	if err != nil {
		return 0, fmt.Errorf("SearchPublicChat error: %w", classify(err))
	}
	if chat == nil {
		return 0, fmt.Errorf("chat is nil after SearchPublicChat")
	}
	h.log.Info("Chat found", "username", username, "chat_id", chat.Id)
	h.chats[username] = chat.Id
	return chat.Id, nil
}

func (h *History) Delete(ctx context.Context, post model.Post) (model.DeleteReceipt, error) {
	if err := ctx.Err(); err != nil {
		return model.DeleteReceipt{}, err
	}

	_, err := h.client.DeleteMessages(&client.DeleteMessagesRequest{
		ChatId:     post.ChatID,
		MessageIds: []int64{post.ID},
		Revoke:     true,
	})
	if err != nil {
		return model.DeleteReceipt{}, fmt.Errorf("DeleteMessages error: %w", classify(err))
	}
	return model.DeleteReceipt{PostID: post.ID}, nil
}

func (h *History) convert(raw *client.Message) model.Post {
	payload, err := json.Marshal(raw)
	if err != nil {
		h.log.Warn("Failed to encode message payload", "id", raw.Id, "err", err)
		payload = nil
	}

	return model.Post{
		ID:        raw.Id,
		ChatID:    raw.ChatId,
		CreatedAt: time.Unix(int64(raw.Date), 0).UTC(),
		Pinned:    raw.IsPinned,
		Protected: raw.IsPinned,
		Text:      messageText(raw.Content),
		Payload:   payload,
	}
}

func messageText(content client.MessageContent) string {
	var text *client.FormattedText
	switch c := content.(type) {
	case *client.MessageText:
		text = c.Text
	case *client.MessagePhoto:
		text = c.Caption
	case *client.MessageVideo:
		text = c.Caption
	case *client.MessageDocument:
		text = c.Caption
	case *client.MessageAnimation:
		text = c.Caption
	}
	if text == nil {
		return ""
	}
	return strings.TrimSpace(text.Text)
}
