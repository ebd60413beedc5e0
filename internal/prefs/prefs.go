// Package prefs keeps the small pieces of user state that survive a
// reload: recent prompt history, pinned prompts, and the daily
// processed-image counter. Everything is stored through the key-value
// store interface.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/store"
)

// MaxHistory bounds the prompt history to the most recent non-duplicate,
// non-pinned entries.
const MaxHistory = 10

// Storage keys
const (
	keyPromptHistory = "prompt_history"
	keyPinnedPrompts = "pinned_prompts"
	keyDailyCounter  = "daily_processed_count"
)

// dailyCounter is the stored shape of the per-day processed counter.
// The counter resets whenever the stored date differs from the current
// date in the configured zone.
type dailyCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Service provides prompt history, pinned prompts, and the daily
// counter on top of a KeyValue store.
type Service struct {
	kv     store.KeyValue
	loc    *time.Location
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewService creates a prefs service. timezone is an IANA zone name for
// the daily counter's calendar date; empty means UTC.
func NewService(kv store.KeyValue, timezone string, logger *slog.Logger) (*Service, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid counter timezone %q: %w", timezone, err)
		}
	}

	return &Service{
		kv:     kv,
		loc:    loc,
		logger: logger.With("component", "prefs"),
		now:    time.Now,
	}, nil
}

// History returns the stored prompt history, most recent first.
func (s *Service) History(ctx context.Context) ([]string, error) {
	return s.getList(ctx, keyPromptHistory)
}

// RecordPrompt stores a prompt at the head of the history. Empty
// prompts, prompts already in the history, and pinned prompts are
// skipped. The history is truncated to MaxHistory entries.
func (s *Service) RecordPrompt(ctx context.Context, p string) error {
	if p == "" {
		return nil
	}

	history, err := s.getList(ctx, keyPromptHistory)
	if err != nil {
		return err
	}
	for _, existing := range history {
		if existing == p {
			return nil
		}
	}

	pins, err := s.getList(ctx, keyPinnedPrompts)
	if err != nil {
		return err
	}
	for _, pinned := range pins {
		if pinned == p {
			return nil
		}
	}

	history = append([]string{p}, history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	return s.setList(ctx, keyPromptHistory, history)
}

// RemovePrompt deletes a prompt from the history.
func (s *Service) RemovePrompt(ctx context.Context, p string) error {
	history, err := s.getList(ctx, keyPromptHistory)
	if err != nil {
		return err
	}
	return s.setList(ctx, keyPromptHistory, remove(history, p))
}

// Pins returns the pinned prompt list.
func (s *Service) Pins(ctx context.Context) ([]string, error) {
	return s.getList(ctx, keyPinnedPrompts)
}

// Pin adds a prompt to the pinned list and removes it from the rolling
// history, so pinned prompts do not consume history slots.
func (s *Service) Pin(ctx context.Context, p string) error {
	if p == "" {
		return nil
	}

	pins, err := s.getList(ctx, keyPinnedPrompts)
	if err != nil {
		return err
	}
	for _, pinned := range pins {
		if pinned == p {
			return nil
		}
	}

	if err := s.setList(ctx, keyPinnedPrompts, append(pins, p)); err != nil {
		return err
	}
	return s.RemovePrompt(ctx, p)
}

// Unpin removes a prompt from the pinned list.
func (s *Service) Unpin(ctx context.Context, p string) error {
	pins, err := s.getList(ctx, keyPinnedPrompts)
	if err != nil {
		return err
	}
	return s.setList(ctx, keyPinnedPrompts, remove(pins, p))
}

// DailyCount returns the number of images processed today in the
// configured zone. A stored counter from a previous date reads as zero.
func (s *Service) DailyCount(ctx context.Context) (int, error) {
	counter, err := s.loadCounter(ctx)
	if err != nil {
		return 0, err
	}
	if counter.Date != s.today() {
		return 0, nil
	}
	return counter.Count, nil
}

// IncrementDaily bumps today's processed counter, resetting it first if
// the stored date is stale. Returns the new count.
func (s *Service) IncrementDaily(ctx context.Context) (int, error) {
	counter, err := s.loadCounter(ctx)
	if err != nil {
		return 0, err
	}

	today := s.today()
	if counter.Date != today {
		counter = dailyCounter{Date: today}
	}
	counter.Count++

	encoded, err := json.Marshal(counter)
	if err != nil {
		return 0, fmt.Errorf("failed to encode daily counter: %w", err)
	}
	if err := s.kv.Set(ctx, keyDailyCounter, string(encoded)); err != nil {
		return 0, fmt.Errorf("failed to store daily counter: %w", err)
	}
	return counter.Count, nil
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func (s *Service) loadCounter(ctx context.Context) (dailyCounter, error) {
	var counter dailyCounter

	raw, err := s.kv.Get(ctx, keyDailyCounter)
	if errors.Is(err, store.ErrKeyNotFound) {
		return counter, nil
	}
	if err != nil {
		return counter, fmt.Errorf("failed to load daily counter: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &counter); err != nil {
		// A corrupt counter is not worth failing a batch over.
		s.logger.Warn("discarding unreadable daily counter", "error", err)
		return dailyCounter{}, nil
	}
	return counter, nil
}

func (s *Service) getList(ctx context.Context, key string) ([]string, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return list, nil
}

func (s *Service) setList(ctx context.Context, key string, list []string) error {
	encoded, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(encoded)); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func remove(list []string, value string) []string {
	out := list[:0]
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}
