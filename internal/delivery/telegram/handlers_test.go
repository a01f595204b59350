package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/memory"
	"github.com/NasaVasa/coinalert/internal/usecase"
	"go.uber.org/zap"
)

func newTestHandlers() *Handlers {
	clock := func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }
	store := usecase.NewAlertStore(memory.NewAlertRepository(), clock)
	manager := usecase.NewAlertManager(store, nil, clock, zap.NewNop())
	watcher := usecase.NewPriceWatcher(manager, nil, nil, usecase.WatcherConfig{}, zap.NewNop())
	return NewHandlers(manager, watcher, 0, zap.NewNop())
}

func TestHandlers_AlertFlow(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers()

	reply := h.Respond(ctx, "add", "bitcoin btc above 45000 email,push")
	if !strings.HasPrefix(reply, "Alert created:") || !strings.Contains(reply, "BTC above 45000") {
		t.Fatalf("unexpected add reply %q", reply)
	}
	alerts, _ := h.manager.List(ctx, domain.AlertFilter{Status: domain.StatusAll})
	id := alerts[0].ID

	if reply := h.Respond(ctx, "price", "bitcoin 43000 1.2"); reply != "Price recorded. No alerts fired." {
		t.Errorf("unexpected price reply %q", reply)
	}
	reply = h.Respond(ctx, "price", "bitcoin 45250 3.2")
	if !strings.Contains(reply, "1 alert(s) fired") || !strings.Contains(reply, "BTC (BTC) has risen above 45000") {
		t.Errorf("unexpected fire reply %q", reply)
	}

	if reply := h.Respond(ctx, "toggle", id); !strings.HasPrefix(reply, "Not allowed right now") {
		t.Errorf("toggle on triggered alert: %q", reply)
	}
	if reply := h.Respond(ctx, "alerts", "triggered"); !strings.Contains(reply, id) {
		t.Errorf("triggered list should contain %s: %q", id, reply)
	}
	if reply := h.Respond(ctx, "dismiss", id); !strings.Contains(reply, "dismissed") {
		t.Errorf("unexpected dismiss reply %q", reply)
	}
	if reply := h.Respond(ctx, "toggle", id); !strings.Contains(reply, "is now active") {
		t.Errorf("unexpected toggle reply %q", reply)
	}
	if reply := h.Respond(ctx, "stats", ""); reply != "Total: 1\nActive: 1\nTriggered: 0\nDisabled: 0" {
		t.Errorf("unexpected stats reply %q", reply)
	}
	if reply := h.Respond(ctx, "delete", id); !strings.Contains(reply, "deleted") {
		t.Errorf("unexpected delete reply %q", reply)
	}
	if reply := h.Respond(ctx, "delete", id); reply != "Alert not found." {
		t.Errorf("unexpected second delete reply %q", reply)
	}
}

func TestHandlers_UsageAndErrors(t *testing.T) {
	ctx := context.Background()
	h := newTestHandlers()

	tests := []struct {
		command, args, want string
	}{
		{"add", "bitcoin", "Usage: /add"},
		{"add", "bitcoin btc above 45000 fax", "Invalid input"},
		{"toggle", "", "Usage: /toggle"},
		{"dismiss", "missing", "Alert not found."},
		{"price", "bitcoin", "Usage: /price"},
		{"price", "bitcoin -5", "Invalid input"},
		{"alerts", "paused", "Usage: /alerts"},
		{"alerts", "", "No alerts yet"},
		{"help", "", "Commands:"},
		{"frobnicate", "", "Unknown command."},
	}
	for _, tt := range tests {
		t.Run(tt.command+" "+tt.args, func(t *testing.T) {
			if reply := h.Respond(ctx, tt.command, tt.args); !strings.HasPrefix(reply, tt.want) {
				t.Errorf("reply %q does not start with %q", reply, tt.want)
			}
		})
	}
}
