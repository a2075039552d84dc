package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"PackCurator/internal/ports"
)

const apiBase = "https://api.telegram.org"

// Callback data values for the preview action buttons.
const (
	ActionQueue      = "queue"
	ActionPublishNow = "publish_now"
	ActionEdit       = "edit"
	ActionRegenerate = "regenerate"
	ActionReject     = "reject"
)

// Sender talks to the Telegram Bot API: channel posts, operator previews
// with action buttons, and plain notifications.
type Sender struct {
	apiBase   string
	botToken  string
	channelID string
	client    *http.Client
}

var _ ports.Transport = (*Sender)(nil)

// NewSender registers the bot token and the target channel identifier.
func NewSender(botToken, channelID string) *Sender {
	return &Sender{
		apiBase:   apiBase,
		botToken:  botToken,
		channelID: channelID,
		client:    &http.Client{Timeout: 35 * time.Second},
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

func downloadKeyboard(downloadURL string) inlineKeyboard {
	return inlineKeyboard{InlineKeyboard: [][]inlineButton{
		{{Text: "📥 Download pack", URL: downloadURL}},
	}}
}

func previewKeyboard(downloadURL string) inlineKeyboard {
	return inlineKeyboard{InlineKeyboard: [][]inlineButton{
		{
			{Text: "📦 Queue", CallbackData: ActionQueue},
			{Text: "🚀 Publish now", CallbackData: ActionPublishNow},
		},
		{
			{Text: "✏️ Edit", CallbackData: ActionEdit},
			{Text: "🔄 Regenerate", CallbackData: ActionRegenerate},
			{Text: "❌ Reject", CallbackData: ActionReject},
		},
		{{Text: "📥 Download pack", URL: downloadURL}},
	}}
}

// DeliverPost publishes a post to the channel: a captioned photo upload
// when a local image is available, a plain message otherwise. The post
// always carries the download button.
func (s *Sender) DeliverPost(ctx context.Context, text, imagePath, downloadURL string) error {
	if s.botToken == "" || s.channelID == "" {
		return fmt.Errorf("telegram sender misconfigured")
	}

	markup := downloadKeyboard(downloadURL)
	if imagePath != "" {
		if err := s.sendPhotoFile(ctx, s.channelID, imagePath, text, markup); err == nil {
			return nil
		} else if _, statErr := os.Stat(imagePath); statErr == nil {
			// Image exists but upload failed; surface the delivery error.
			return err
		}
		// Image file is gone, fall through to text-only delivery.
	}

	return s.sendMessage(ctx, s.channelID, text, &markup)
}

// ShowPreview sends the rendered post to the operator with the review
// action buttons attached. The preview image is referenced by URL so
// Telegram fetches it; on photo failure the preview degrades to text.
func (s *Sender) ShowPreview(ctx context.Context, chatID int64, text, imageURL, downloadURL string) error {
	markup := previewKeyboard(downloadURL)
	chat := strconv.FormatInt(chatID, 10)

	if imageURL != "" {
		if err := s.sendPhotoURL(ctx, chat, imageURL, text, markup); err == nil {
			return nil
		}
	}

	return s.sendMessage(ctx, chat, text, &markup)
}

// Notify sends a plain service message to an operator chat.
func (s *Sender) Notify(ctx context.Context, chatID int64, text string) error {
	return s.sendMessage(ctx, strconv.FormatInt(chatID, 10), text, nil)
}

func (s *Sender) sendMessage(ctx context.Context, chatID, text string, markup *inlineKeyboard) error {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")
	if markup != nil {
		raw, err := json.Marshal(markup)
		if err != nil {
			return fmt.Errorf("marshal keyboard: %w", err)
		}
		form.Set("reply_markup", string(raw))
	}

	return s.postForm(ctx, "sendMessage", form)
}

func (s *Sender) sendPhotoURL(ctx context.Context, chatID, photoURL, caption string, markup inlineKeyboard) error {
	raw, err := json.Marshal(markup)
	if err != nil {
		return fmt.Errorf("marshal keyboard: %w", err)
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("photo", photoURL)
	form.Set("caption", caption)
	form.Set("parse_mode", "Markdown")
	form.Set("reply_markup", string(raw))

	return s.postForm(ctx, "sendPhoto", form)
}

func (s *Sender) sendPhotoFile(ctx context.Context, chatID, imagePath, caption string, markup inlineKeyboard) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"chat_id":    chatID,
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	if raw, err := json.Marshal(markup); err == nil {
		fields["reply_markup"] = string(raw)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	fw, err := writer.CreateFormFile("photo", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("copy photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	endpoint := s.methodURL("sendPhoto")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return s.do(req)
}

func (s *Sender) postForm(ctx context.Context, method string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.methodURL(method), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req)
}

func (s *Sender) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}

func (s *Sender) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.botToken, method)
}
