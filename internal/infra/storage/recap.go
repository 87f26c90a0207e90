package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/pocketmonster/internal/events"
)

// Impact classifies how an event affected the monster.
type Impact string

const (
	ImpactPositive Impact = "POSITIVE"
	ImpactNegative Impact = "NEGATIVE"
	ImpactNeutral  Impact = "NEUTRAL"
)

// RecapEvent is one line of the "what happened" history.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	Ago       string `json:"ago"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"`
	Impact    Impact `json:"impact"`
}

// Recapper turns the persisted ledger into a readable history.
type Recapper struct {
	eventRepo EventRepository
}

func NewRecapper(eventRepo EventRepository) *Recapper {
	return &Recapper{eventRepo: eventRepo}
}

// Recap returns up to limit of the newest events, oldest first.
// Decay ticks are left out unless includeTicks is set.
func (r *Recapper) Recap(ctx context.Context, limit int, includeTicks bool) ([]RecapEvent, error) {
	var stored []StoredEvent
	var err error
	if includeTicks {
		stored, err = r.eventRepo.Recent(ctx, limit)
	} else {
		stored, err = r.eventRepo.RecentExcept(ctx, string(events.EventTypeTimeTick), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read events for recap: %w", err)
	}

	recap := make([]RecapEvent, 0, len(stored))
	for _, e := range stored {
		recap = append(recap, RecapEvent{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04:05"),
			Ago:       humanize.Time(e.Timestamp),
			EventType: e.EventType,
			Summary:   summarizeEvent(e),
			Impact:    determineImpact(e),
		})
	}
	return recap, nil
}

func summarizeEvent(e StoredEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeSessionStart:
		return "A care session started."
	case events.EventTypeFeed:
		var p events.ActionPayload
		if decodePayload(e, &p) && p.Pooped {
			return "The monster ate and left a mess."
		}
		return "The monster ate."
	case events.EventTypePlay:
		return "The monster played."
	case events.EventTypeClean:
		return "The room was cleaned."
	case events.EventTypeTrain:
		var p events.ActionPayload
		if decodePayload(e, &p) {
			return fmt.Sprintf("The monster trained for %d EXP.", p.ExpGained)
		}
		return "The monster trained."
	case events.EventTypeActionRejected:
		var p events.ActionPayload
		if decodePayload(e, &p) {
			return fmt.Sprintf("%s was refused (%s).", p.Action, p.Notice)
		}
		return "An action was refused."
	case events.EventTypeTimeTick:
		var p events.TickPayload
		if decodePayload(e, &p) {
			return fmt.Sprintf("Time passed: hunger %d, happiness %d.", p.Hunger, p.Happiness)
		}
		return "Time passed."
	case events.EventTypeLevelUp:
		var p events.LevelUpPayload
		if decodePayload(e, &p) {
			return fmt.Sprintf("Reached level %d.", p.Level)
		}
		return "Leveled up."
	case events.EventTypeGameOver:
		var p events.GameOverPayload
		if decodePayload(e, &p) && p.Cause == "SADNESS" {
			return "The monster ran away."
		}
		return "The monster collapsed."
	case events.EventTypeManualSave:
		return "The game was saved."
	default:
		return "Something happened."
	}
}

func determineImpact(e StoredEvent) Impact {
	switch events.EventType(e.EventType) {
	case events.EventTypeFeed, events.EventTypePlay, events.EventTypeClean,
		events.EventTypeTrain, events.EventTypeLevelUp:
		return ImpactPositive
	case events.EventTypeTimeTick, events.EventTypeActionRejected, events.EventTypeGameOver:
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}

func decodePayload(e StoredEvent, v interface{}) bool {
	return len(e.Payload) > 0 && json.Unmarshal(e.Payload, v) == nil
}
