package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

func TestNewMultiHandlerSkipsNil(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := NewMultiHandler(nil, slog.NewJSONHandler(&buf, nil), nil)

	if len(mh.handlers) != 1 {
		t.Errorf("got %d handlers after filtering nils, want 1", len(mh.handlers))
	}
}

func TestMultiHandlerEnabledIfAnyEnabled(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !mh.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = false, want true", level)
		}
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	t.Parallel()

	var stdout, ship bytes.Buffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&ship, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	slog.New(mh).Info("turn complete", "room_id", "r-1")

	for name, buf := range map[string]*bytes.Buffer{"stdout": &stdout, "ship": &ship} {
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s output is not JSON: %v", name, err)
		}
		if entry["msg"] != "turn complete" {
			t.Errorf("%s msg = %v, want 'turn complete'", name, entry["msg"])
		}
		if entry["room_id"] != "r-1" {
			t.Errorf("%s room_id = %v, want 'r-1'", name, entry["room_id"])
		}
	}
}

func TestMultiHandlerRespectsPerHandlerLevel(t *testing.T) {
	t.Parallel()

	var debugOut, errorOut bytes.Buffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorOut, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	slog.New(mh).Info("routine event")

	if debugOut.Len() == 0 {
		t.Error("debug handler got nothing, want the info record")
	}
	if errorOut.Len() != 0 {
		t.Error("error-level handler received an info record")
	}
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, nil)).
		WithAttrs([]slog.Attr{slog.String("module", "chat")})

	slog.New(h).Info("dispatched")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["module"] != "chat" {
		t.Errorf("module = %v, want 'chat'", entry["module"])
	}
}

func TestMultiHandlerWithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, nil)).
		WithGroup("request").
		WithAttrs([]slog.Attr{slog.String("id", "123")})

	slog.New(h).Info("done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	group, ok := entry["request"].(map[string]any)
	if !ok {
		t.Fatalf("missing 'request' group in %v", entry)
	}
	if group["id"] != "123" {
		t.Errorf("request.id = %v, want '123'", group["id"])
	}
}

type failingHandler struct {
	slog.Handler
}

func (h *failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("ship backend down")
}

func (h *failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func TestMultiHandlerCollectsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&buf, nil), &failingHandler{})

	var record slog.Record
	record.Message = "event"

	err := mh.Handle(context.Background(), record)
	if err == nil {
		t.Error("Handle() = nil, want the failing handler's error")
	}
	if buf.Len() == 0 {
		t.Error("healthy handler did not write despite sibling failure")
	}
}

func TestMultiHandlerConcurrent(t *testing.T) {
	t.Parallel()

	var out1, out2 syncBuffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&out1, nil),
		slog.NewJSONHandler(&out2, nil),
	)
	log := slog.New(mh)

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			log.Info("concurrent record", "iteration", i)
		})
	}
	wg.Wait()

	if n := out1.count("concurrent record"); n != 100 {
		t.Errorf("first handler wrote %d records, want 100", n)
	}
	if n := out2.count("concurrent record"); n != 100 {
		t.Errorf("second handler wrote %d records, want 100", n)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) count(substr string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Count(b.buf.Bytes(), []byte(substr))
}
