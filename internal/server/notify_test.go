package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bighelpmob/missionhub/internal/missions"
)

func TestNotifierRecordsAndPublishes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	broker := NewBroker()

	adminCh := broker.Subscribe(adminTopic)
	defer broker.Unsubscribe(adminTopic, adminCh)
	userCh := broker.Subscribe(userTopic(3))
	defer broker.Unsubscribe(userTopic(3), userCh)
	otherCh := broker.Subscribe(userTopic(4))
	defer broker.Unsubscribe(userTopic(4), otherCh)

	p, err := store.Participation(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	n := newNotifier(store, broker, discardLogger())
	if err := n.Notify(ctx, missions.NotifyMissionRoleApproved, p); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	for name, ch := range map[string]chan []byte{"admin": adminCh, "user": userCh} {
		select {
		case data := <-ch:
			var ev NotificationEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Kind != string(missions.NotifyMissionRoleApproved) || ev.UserID != 3 || ev.ParticipationID != 3 {
				t.Errorf("%s event = %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("no event on %s topic", name)
		}
	}
	select {
	case data := <-otherCh:
		t.Errorf("unrelated user received %s", data)
	default:
	}

	list, err := store.ListNotifications(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Kind != string(missions.NotifyMissionRoleApproved) {
		t.Errorf("recorded = %+v", list)
	}
	if other, _ := store.ListNotifications(ctx, 4); len(other) != 0 {
		t.Errorf("user 4 notifications = %+v, want none", other)
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(adminTopic)
	b.Unsubscribe(adminTopic, ch)

	b.Publish(NotificationEvent{Kind: "x"}, adminTopic)
	select {
	case <-ch:
		t.Error("unsubscribed channel received an event")
	default:
	}
}
