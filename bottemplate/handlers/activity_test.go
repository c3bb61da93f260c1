package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordedCall struct {
	kind, guildID, userID, channelID string
}

type fakeEngine struct {
	mu       sync.Mutex
	calls    []recordedCall
	leaveErr error
}

func (f *fakeEngine) record(c recordedCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeEngine) TrackMessage(_ context.Context, communityID, userID, channelID string, _ time.Time) {
	f.record(recordedCall{"message", communityID, userID, channelID})
}

func (f *fakeEngine) TrackReaction(_ context.Context, communityID, userID, channelID string, _ time.Time) {
	f.record(recordedCall{"reaction", communityID, userID, channelID})
}

func (f *fakeEngine) Join(_ context.Context, communityID, userID string, _ time.Time) error {
	f.record(recordedCall{"join", communityID, userID, ""})
	return nil
}

func (f *fakeEngine) Leave(_ context.Context, communityID, userID string, _ time.Time) (time.Duration, error) {
	f.record(recordedCall{"leave", communityID, userID, ""})
	return 0, f.leaveErr
}

func TestActivityHandler(t *testing.T) {
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		run  func(h *ActivityHandler)
		want []recordedCall
	}{
		{
			name: "message",
			run:  func(h *ActivityHandler) { h.Message("g", "c", "u", false, at) },
			want: []recordedCall{{"message", "g", "u", "c"}},
		},
		{
			name: "bot message ignored",
			run:  func(h *ActivityHandler) { h.Message("g", "c", "bot", true, at) },
		},
		{
			name: "reaction",
			run:  func(h *ActivityHandler) { h.Reaction("g", "c", "u", false, at) },
			want: []recordedCall{{"reaction", "g", "u", "c"}},
		},
		{
			name: "voice join and leave",
			run: func(h *ActivityHandler) {
				h.VoiceJoin("g", "u", false, at)
				h.VoiceLeave("g", "u", at.Add(time.Minute))
			},
			want: []recordedCall{{"join", "g", "u", ""}, {"leave", "g", "u", ""}},
		},
		{
			name: "bot voice join ignored",
			run:  func(h *ActivityHandler) { h.VoiceJoin("g", "bot", true, at) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeEngine{}
			tt.run(NewActivityHandler(f, f))

			if len(f.calls) != len(tt.want) {
				t.Fatalf("calls = %+v, want %+v", f.calls, tt.want)
			}
			for i := range tt.want {
				if f.calls[i] != tt.want[i] {
					t.Errorf("call %d = %+v, want %+v", i, f.calls[i], tt.want[i])
				}
			}
		})
	}
}

func TestRunListenerRecoversPanics(t *testing.T) {
	ran := false
	runListener("panicky", "u", func(context.Context) error {
		ran = true
		panic("boom")
	})
	if !ran {
		t.Fatal("listener did not run")
	}

	f := &fakeEngine{leaveErr: errors.New("store down")}
	NewActivityHandler(f, f).VoiceLeave("g", "u", time.Now())
	if len(f.calls) != 1 {
		t.Errorf("leave not attempted: %+v", f.calls)
	}
}
