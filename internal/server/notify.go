package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bighelpmob/missionhub/internal/missions"
)

// Notification is a recorded lifecycle notification.
type Notification struct {
	ID              int64  `json:"id"`
	Kind            string `json:"kind"`
	UserID          int64  `json:"userId"`
	ParticipationID int64  `json:"participationId"`
	MissionID       int64  `json:"missionId"`
	CreatedAt       string `json:"createdAt"`
}

// notifier records lifecycle notifications and pushes them to SSE
// subscribers. It implements missions.Notifier.
type notifier struct {
	store  Store
	broker *Broker
	logger *slog.Logger
}

func newNotifier(store Store, broker *Broker, logger *slog.Logger) *notifier {
	return &notifier{store: store, broker: broker, logger: logger}
}

func (n *notifier) Notify(ctx context.Context, kind missions.NotificationKind, p *missions.Participation) error {
	if err := n.store.RecordNotification(ctx, kind, p); err != nil {
		return fmt.Errorf("recording %s notification: %w", kind, err)
	}
	n.broker.Publish(NotificationEvent{
		Kind:            string(kind),
		UserID:          p.UserID,
		ParticipationID: p.ID,
		MissionID:       p.MissionID,
		State:           string(p.State),
	}, adminTopic, userTopic(p.UserID))
	n.logger.Info("notification sent", "kind", kind, "user_id", p.UserID, "participation_id", p.ID)
	return nil
}
