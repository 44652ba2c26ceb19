package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/storage"
)

// TranscriptKey is the single store key the chat history lives under.
const TranscriptKey = "messages"

var (
	ErrInvalidSender     = errors.New("turn sender must be user or bot")
	ErrCorruptTranscript = errors.New("stored transcript is corrupt")
)

// Service persists the transcript in a key-value store. It keeps no state
// between calls: every operation re-reads the store, so concurrent Appends
// race and the last full write wins. Callers that need ordering serialize
// access themselves.
type Service struct {
	kv storage.KV
}

// NewService binds the transcript to kv.
func NewService(kv storage.KV) *Service {
	return &Service{kv: kv}
}

// ReadAll returns the full transcript, empty if it was never written.
func (s *Service) ReadAll(ctx context.Context) (chat.Transcript, error) {
	raw, err := s.kv.Read(ctx, TranscriptKey)
	if errors.Is(err, storage.ErrNotFound) {
		return chat.Transcript{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	transcript, err := chat.DecodeTranscript(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTranscript, err)
	}
	return transcript, nil
}

// Append reads the transcript, adds turn to the end and writes it back.
func (s *Service) Append(ctx context.Context, turn chat.Turn) error {
	if !turn.Sender.Valid() {
		return ErrInvalidSender
	}

	transcript, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}

	return s.write(ctx, append(transcript, turn))
}

// Clear resets the stored transcript to an empty sequence.
func (s *Service) Clear(ctx context.Context) error {
	return s.write(ctx, chat.Transcript{})
}

func (s *Service) write(ctx context.Context, transcript chat.Transcript) error {
	data, err := transcript.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.kv.Write(ctx, TranscriptKey, data); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
