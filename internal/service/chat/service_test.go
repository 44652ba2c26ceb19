package chat_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/inbox-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/storage"
)

func TestServiceReadAllEmpty(t *testing.T) {
	svc := chatservice.NewService(storage.NewMemoryStore())

	got, err := svc.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil transcript, got %#v", got)
	}
}

func TestServiceAppendPreservesOrder(t *testing.T) {
	kv := storage.NewMemoryStore()
	svc := chatservice.NewService(kv)
	ctx := context.Background()

	turns := []chat.Turn{chat.UserTurn("Q1"), chat.BotTurn("A1"), chat.UserTurn("Q2")}
	for _, turn := range turns {
		if err := svc.Append(ctx, turn); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	got, err := svc.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("expected %d turns, got %d", len(turns), len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Fatalf("turn %d: got %+v want %+v", i, got[i], turns[i])
		}
	}

	raw, err := kv.Read(ctx, chatservice.TranscriptKey)
	if err != nil {
		t.Fatalf("raw read err: %v", err)
	}
	want := `[{"sender":"user","text":"Q1"},{"sender":"bot","text":"A1"},{"sender":"user","text":"Q2"}]`
	if string(raw) != want {
		t.Fatalf("unexpected stored layout:\n got %s\nwant %s", raw, want)
	}
}

func TestServiceClear(t *testing.T) {
	kv := storage.NewMemoryStore()
	svc := chatservice.NewService(kv)
	ctx := context.Background()

	if err := svc.Append(ctx, chat.UserTurn("hello")); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear err: %v", err)
	}

	got, err := svc.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty transcript after clear, got %d turns", len(got))
	}

	raw, _ := kv.Read(ctx, chatservice.TranscriptKey)
	if string(raw) != "[]" {
		t.Fatalf("expected [] stored after clear, got %s", raw)
	}
}

func TestServiceAppendRejectsUnknownSender(t *testing.T) {
	svc := chatservice.NewService(storage.NewMemoryStore())

	err := svc.Append(context.Background(), chat.Turn{Sender: "assistant", Text: "x"})
	if !errors.Is(err, chatservice.ErrInvalidSender) {
		t.Fatalf("expected ErrInvalidSender, got %v", err)
	}
}

func TestServiceCorruptTranscript(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	if err := kv.Write(ctx, chatservice.TranscriptKey, []byte(`{"not":"a list"}`)); err != nil {
		t.Fatalf("Write err: %v", err)
	}
	svc := chatservice.NewService(kv)

	if _, err := svc.ReadAll(ctx); !errors.Is(err, chatservice.ErrCorruptTranscript) {
		t.Fatalf("expected ErrCorruptTranscript, got %v", err)
	}
	if err := svc.Append(ctx, chat.UserTurn("x")); !errors.Is(err, chatservice.ErrCorruptTranscript) {
		t.Fatalf("expected Append to refuse corrupt transcript, got %v", err)
	}

	raw, _ := kv.Read(ctx, chatservice.TranscriptKey)
	if string(raw) != `{"not":"a list"}` {
		t.Fatalf("corrupt value was overwritten: %s", raw)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	if got, err := svc.ReadAll(ctx); err != nil || len(got) != 0 {
		t.Fatalf("expected clean transcript after clear, got %v, %v", got, err)
	}
}

type failingKV struct{ err error }

func (f failingKV) Read(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Write(context.Context, string, []byte) error { return f.err }

func TestServicePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := chatservice.NewService(failingKV{err: boom})
	ctx := context.Background()

	if _, err := svc.ReadAll(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if err := svc.Clear(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

// Unserialized concurrent appends may lose writes; the transcript must stay
// well-formed regardless.
func TestServiceConcurrentAppendsStayWellFormed(t *testing.T) {
	svc := chatservice.NewService(storage.NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Append(ctx, chat.UserTurn("q"))
		}()
	}
	wg.Wait()

	got, err := svc.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if len(got) < 1 || len(got) > 20 {
		t.Fatalf("unexpected transcript length %d", len(got))
	}
}

func TestServiceClearRecoversCorruptFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	kv, err := storage.NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	svc := chatservice.NewService(kv)
	ctx := context.Background()

	if _, err := svc.ReadAll(ctx); err == nil {
		t.Fatal("expected ReadAll to fail on a corrupt file")
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	if err := svc.Append(ctx, chat.UserTurn("Q")); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	got, err := svc.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if len(got) != 1 || got[0] != chat.UserTurn("Q") {
		t.Fatalf("expected one user turn, got %#v", got)
	}
}
