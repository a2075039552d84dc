package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordedCall struct {
	method string
	form   map[string]string
}

func newAPIServer(t *testing.T, calls *[]recordedCall, failPhoto bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		if failPhoto && method == "sendPhoto" {
			http.Error(w, `{"ok":false}`, http.StatusBadRequest)
			return
		}

		form := map[string]string{}
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			for key, values := range r.MultipartForm.Value {
				form[key] = values[0]
			}
			if _, ok := r.MultipartForm.File["photo"]; ok {
				form["photo"] = "<file>"
			}
		} else {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			for key := range r.PostForm {
				form[key] = r.PostForm.Get(key)
			}
		}

		*calls = append(*calls, recordedCall{method: method, form: form})
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
}

func TestDeliverPostTextOnly(t *testing.T) {
	t.Parallel()

	var calls []recordedCall
	server := newAPIServer(t, &calls, false)
	defer server.Close()

	s := NewSender("token", "@channel")
	s.apiBase = server.URL
	s.client = server.Client()

	err := s.DeliverPost(context.Background(), "hello channel", "", "https://example.org/dl")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(calls) != 1 || calls[0].method != "sendMessage" {
		t.Fatalf("expected one sendMessage call, got %+v", calls)
	}
	form := calls[0].form
	if form["chat_id"] != "@channel" {
		t.Fatalf("unexpected chat_id: %s", form["chat_id"])
	}
	if form["text"] != "hello channel" {
		t.Fatalf("unexpected text: %s", form["text"])
	}
	if !strings.Contains(form["reply_markup"], "https://example.org/dl") {
		t.Fatalf("download button missing: %s", form["reply_markup"])
	}
}

func TestDeliverPostWithImageUploads(t *testing.T) {
	t.Parallel()

	var calls []recordedCall
	server := newAPIServer(t, &calls, false)
	defer server.Close()

	imagePath := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(imagePath, []byte("fake png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	s := NewSender("token", "@channel")
	s.apiBase = server.URL
	s.client = server.Client()

	err := s.DeliverPost(context.Background(), "caption text", imagePath, "https://example.org/dl")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(calls) != 1 || calls[0].method != "sendPhoto" {
		t.Fatalf("expected one sendPhoto call, got %+v", calls)
	}
	form := calls[0].form
	if form["caption"] != "caption text" {
		t.Fatalf("unexpected caption: %s", form["caption"])
	}
	if form["photo"] != "<file>" {
		t.Fatal("photo must be uploaded as a file part")
	}
}

func TestDeliverPostMissingImageFallsBackToText(t *testing.T) {
	t.Parallel()

	var calls []recordedCall
	server := newAPIServer(t, &calls, false)
	defer server.Close()

	s := NewSender("token", "@channel")
	s.apiBase = server.URL
	s.client = server.Client()

	err := s.DeliverPost(context.Background(), "text", filepath.Join(t.TempDir(), "gone.png"), "https://example.org/dl")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(calls) != 1 || calls[0].method != "sendMessage" {
		t.Fatalf("expected text fallback, got %+v", calls)
	}
}

func TestShowPreviewKeyboardAndPhotoFallback(t *testing.T) {
	t.Parallel()

	var calls []recordedCall
	server := newAPIServer(t, &calls, true)
	defer server.Close()

	s := NewSender("token", "@channel")
	s.apiBase = server.URL
	s.client = server.Client()

	err := s.ShowPreview(context.Background(), 42, "preview", "https://cdn.example.org/x.png", "https://example.org/dl")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	// sendPhoto failed, so the preview degraded to a text message.
	last := calls[len(calls)-1]
	if last.method != "sendMessage" {
		t.Fatalf("expected text fallback, got %s", last.method)
	}
	if last.form["chat_id"] != "42" {
		t.Fatalf("unexpected chat_id: %s", last.form["chat_id"])
	}

	markup := last.form["reply_markup"]
	for _, action := range []string{ActionQueue, ActionPublishNow, ActionEdit, ActionRegenerate, ActionReject} {
		if !strings.Contains(markup, action) {
			t.Fatalf("preview keyboard missing action %q: %s", action, markup)
		}
	}
}

func TestMisconfiguredSender(t *testing.T) {
	t.Parallel()

	s := NewSender("", "")
	if err := s.DeliverPost(context.Background(), "x", "", ""); err == nil {
		t.Fatal("expected an error without token and channel")
	}
}
