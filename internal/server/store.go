package server

import (
	"context"
	"errors"

	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/missions"
)

var ErrNotFound = errors.New("not found")

// Store is everything the participation and email handlers need from
// storage.
type Store interface {
	missions.Repository
	email.Audience

	ListParticipations(ctx context.Context, vis missions.Visibility, f missions.Filter) ([]*missions.Participation, error)
	Participation(ctx context.Context, id int64) (*missions.Participation, error)
	NewParticipation(ctx context.Context, userID, missionID int64) (*missions.Participation, error)
	ListMissions(ctx context.Context) ([]missions.Mission, error)
	Mission(ctx context.Context, id int64) (*missions.Mission, error)
	Pickups(ctx context.Context, missionID int64) ([]missions.Pickup, error)
	Roles(ctx context.Context) (missions.RoleList, error)

	RecordNotification(ctx context.Context, kind missions.NotificationKind, p *missions.Participation) error
	ListNotifications(ctx context.Context, userID int64) ([]Notification, error)
}

// AdminStore handles administrator accounts and cookie sessions.
type AdminStore interface {
	Authenticate(ctx context.Context, email, password string) (adminSession, error)
	CreateAdminSession(ctx context.Context, adminID string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}
