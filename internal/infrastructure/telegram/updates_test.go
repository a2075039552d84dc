package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingHandler struct {
	commands  []string
	callbacks []string
	texts     []string
	chatIDs   []int64
}

func (h *recordingHandler) HandleCommand(_ context.Context, chatID, _ int64, command string) {
	h.commands = append(h.commands, command)
	h.chatIDs = append(h.chatIDs, chatID)
}

func (h *recordingHandler) HandleCallback(_ context.Context, chatID, _ int64, data string) {
	h.callbacks = append(h.callbacks, data)
	h.chatIDs = append(h.chatIDs, chatID)
}

func (h *recordingHandler) HandleText(_ context.Context, chatID, _ int64, text string) {
	h.texts = append(h.texts, text)
	h.chatIDs = append(h.chatIDs, chatID)
}

func decodeUpdate(t *testing.T, raw string) update {
	t.Helper()

	var upd update
	if err := json.Unmarshal([]byte(raw), &upd); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	return upd
}

func TestDispatchCommand(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	loop := NewUpdateLoop("token", handler, nil)

	upd := decodeUpdate(t, `{"update_id": 1, "message": {
		"text": "/search@pack_curator_bot now",
		"chat": {"id": 42}, "from": {"id": 7}}}`)
	loop.dispatch(context.Background(), upd)

	if len(handler.commands) != 1 || handler.commands[0] != "/search" {
		t.Fatalf("expected /search command, got %v", handler.commands)
	}
	if handler.chatIDs[0] != 42 {
		t.Fatalf("unexpected chat id: %d", handler.chatIDs[0])
	}
}

func TestDispatchCallback(t *testing.T) {
	t.Parallel()

	// The callback answer goes out over HTTP; point the loop at a stub.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	handler := &recordingHandler{}
	loop := NewUpdateLoop("token", handler, nil)
	loop.apiBase = server.URL
	loop.client = server.Client()

	upd := decodeUpdate(t, `{"update_id": 2, "callback_query": {
		"id": "cb1", "data": "queue",
		"from": {"id": 7},
		"message": {"chat": {"id": 42}}}}`)
	loop.dispatch(context.Background(), upd)

	if len(handler.callbacks) != 1 || handler.callbacks[0] != "queue" {
		t.Fatalf("expected queue callback, got %v", handler.callbacks)
	}
	if handler.chatIDs[0] != 42 {
		t.Fatalf("callback must use the message chat id, got %d", handler.chatIDs[0])
	}
}

func TestDispatchFreeText(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	loop := NewUpdateLoop("token", handler, nil)

	upd := decodeUpdate(t, `{"update_id": 3, "message": {
		"text": "  my custom post  ",
		"chat": {"id": 42}, "from": {"id": 7}}}`)
	loop.dispatch(context.Background(), upd)

	if len(handler.texts) != 1 || handler.texts[0] != "my custom post" {
		t.Fatalf("expected trimmed free text, got %v", handler.texts)
	}
	if len(handler.commands) != 0 {
		t.Fatal("free text must not dispatch as a command")
	}
}

func TestFetchDecodesUpdates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 10, "message": {"text": "/start", "chat": {"id": 1}, "from": {"id": 1}}}
		]}`))
	}))
	defer server.Close()

	loop := NewUpdateLoop("token", &recordingHandler{}, nil)
	loop.apiBase = server.URL
	loop.client = server.Client()

	updates, err := loop.fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(updates) != 1 || updates[0].UpdateID != 10 {
		t.Fatalf("unexpected updates: %+v", updates)
	}
}
