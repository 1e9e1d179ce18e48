package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/prep-deck-be/internal/services"
)

func TestEventsArePerUserAndPrunable(t *testing.T) {
	ctx := context.Background()
	svc := services.NewEventService(newTestDB(t))

	sessionID := "s1"
	for i := 0; i < 3; i++ {
		if err := svc.CreateEvent(ctx, "u1", "session.create", "info", "created", &sessionID); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}
	if err := svc.CreateEvent(ctx, "u2", "session.create", "info", "created", nil); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := svc.GetRecentEvents(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("GetRecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit to apply, got %d events", len(events))
	}
	if events[0].SessionID == nil || *events[0].SessionID != "s1" {
		t.Fatalf("session id not round-tripped: %+v", events[0])
	}

	removed, err := svc.PruneEvents(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if removed != 4 {
		t.Fatalf("pruned %d events, want 4", removed)
	}

	events, err = svc.GetRecentEvents(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events after prune, got %d", len(events))
	}
}
