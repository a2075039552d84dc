package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const longPollSeconds = 30

// Handler receives decoded operator input from the update loop. Handlers
// run sequentially: the loop dispatches one update at a time, which keeps
// session and queue access single-threaded on the operator side.
type Handler interface {
	HandleCommand(ctx context.Context, chatID, operatorID int64, command string)
	HandleCallback(ctx context.Context, chatID, operatorID int64, data string)
	HandleText(ctx context.Context, chatID, operatorID int64, text string)
}

// UpdateLoop long-polls getUpdates and dispatches messages, commands, and
// callback queries to the handler.
type UpdateLoop struct {
	apiBase  string
	botToken string
	client   *http.Client
	handler  Handler
	logger   *slog.Logger
}

// NewUpdateLoop wires the polling loop; the client timeout must exceed the
// long-poll window.
func NewUpdateLoop(botToken string, handler Handler, logger *slog.Logger) *UpdateLoop {
	return &UpdateLoop{
		apiBase:  apiBase,
		botToken: botToken,
		client:   &http.Client{Timeout: (longPollSeconds + 10) * time.Second},
		handler:  handler,
		logger:   logger,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		Data string `json:"data"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Run polls until the context is canceled. Polling errors are logged and
// retried after a short pause; they never stop the loop.
func (l *UpdateLoop) Run(ctx context.Context) error {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := l.fetch(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.warn("fetch updates", "error", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			l.dispatch(ctx, upd)
		}
	}
}

func (l *UpdateLoop) dispatch(ctx context.Context, upd update) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		l.answerCallback(ctx, cq.ID)
		chatID := cq.From.ID
		if cq.Message != nil {
			chatID = cq.Message.Chat.ID
		}
		l.handler.HandleCallback(ctx, chatID, cq.From.ID, cq.Data)

	case upd.Message != nil:
		msg := upd.Message
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return
		}
		if strings.HasPrefix(text, "/") {
			command := strings.ToLower(strings.SplitN(text, " ", 2)[0])
			if i := strings.Index(command, "@"); i >= 0 {
				command = command[:i]
			}
			l.handler.HandleCommand(ctx, msg.Chat.ID, msg.From.ID, command)
			return
		}
		l.handler.HandleText(ctx, msg.Chat.ID, msg.From.ID, text)
	}
}

func (l *UpdateLoop) fetch(ctx context.Context, offset int64) ([]update, error) {
	form := url.Values{}
	form.Set("timeout", strconv.Itoa(longPollSeconds))
	if offset > 0 {
		form.Set("offset", strconv.FormatInt(offset, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates", l.apiBase, l.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("telegram responded not ok")
	}

	return decoded.Result, nil
}

func (l *UpdateLoop) answerCallback(ctx context.Context, callbackID string) {
	form := url.Values{}
	form.Set("callback_query_id", callbackID)

	endpoint := fmt.Sprintf("%s/bot%s/answerCallbackQuery", l.apiBase, l.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		l.warn("answer callback", "error", err)
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	resp.Body.Close()
}

func (l *UpdateLoop) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
