package telegram

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
)

var floodWaitRe = regexp.MustCompile(`(?:FLOOD_WAIT_|retry after )(\d+)`)

// FloodWaitError is a TDLib "Too Many Requests" reply. It is not retried;
// the wait is only reported.
type FloodWaitError struct {
	RateLimit *model.RateLimit
	Err       error
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait %s: %v", e.RateLimit.RetryAfter, e.Err)
}

func (e *FloodWaitError) Unwrap() error {
	return e.Err
}

// classify wraps TDLib errors that carry rate-limit state.
func classify(err error) error {
	if err == nil {
		return nil
	}
	m := floodWaitRe.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	secs, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return err
	}
	return &FloodWaitError{
		RateLimit: &model.RateLimit{RetryAfter: time.Duration(secs) * time.Second},
		Err:       err,
	}
}
