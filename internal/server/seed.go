package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bighelpmob/missionhub/internal/missions"
)

// SeedDemo creates a demo mission with a handful of volunteers if no
// missions exist. Idempotent: does nothing otherwise.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	existing, err := store.ListMissions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	roles, err := store.Roles(ctx)
	if err != nil {
		return err
	}

	minSidekick, minCaptain, maxCaptain := 16, 18, 70
	m := &missions.Mission{
		Name: "Spring river cleanup",
		Questions: []missions.Question{
			{Text: "T-shirt size", Kind: missions.QuestionMultipleChoice, Required: true, Choices: []string{"S", "M", "L", "XL"}, Position: 1},
			{Text: "Can you bring gloves?", Kind: missions.QuestionBoolean, Position: 2},
			{Text: "Dietary needs", Kind: missions.QuestionString, Position: 3},
		},
		AgeLimits: map[string]missions.AgeRange{
			missions.RoleSidekick: {Min: &minSidekick},
			missions.RoleCaptain:  {Min: &minCaptain, Max: &maxCaptain},
		},
	}
	pickups, err := store.CreateMission(ctx, m, []missions.Pickup{
		{Name: "Central station", Address: "Station square 1"},
		{Name: "Harbour gate", Address: "Quay road 12"},
	})
	if err != nil {
		return fmt.Errorf("creating demo mission: %w", err)
	}

	volunteers := []struct {
		name, email, role string
		born              time.Time
		state             missions.State
		pickup            int
	}{
		{"Ada Brook", "ada@example.org", missions.RoleCaptain, time.Date(1985, 4, 2, 0, 0, 0, 0, time.UTC), missions.StateApproved, 0},
		{"Ben Marsh", "ben@example.org", missions.RoleSidekick, time.Date(1999, 9, 17, 0, 0, 0, 0, time.UTC), missions.StateApproved, 0},
		{"Cleo Fenn", "cleo@example.org", missions.RoleSidekick, time.Date(2001, 1, 30, 0, 0, 0, 0, time.UTC), missions.StateAwaitingApproval, 1},
		{"Dan Reed", "dan@example.org", missions.RoleSidekick, time.Date(1994, 6, 8, 0, 0, 0, 0, time.UTC), missions.StateCreated, 1},
	}
	for _, v := range volunteers {
		born := v.born
		u := &missions.User{Name: v.name, Email: v.email, DateOfBirth: &born}
		if err := store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("creating demo user %s: %w", v.email, err)
		}

		p := missions.NewParticipation(u, m)
		p.SetRoleName(roles, v.role)
		p.State = v.state
		if p.Sidekick() {
			p.SetPickup(&pickups[v.pickup])
		}
		if p.Captain() {
			u.CaptainApplication = &missions.CaptainApplication{UserID: u.ID, Body: "Led three cleanups last year."}
		}
		p.SetAnswers(map[string]any{
			missions.QuestionKey(m.Questions[0].ID): "M",
			missions.QuestionKey(m.Questions[1].ID): "1",
		})
		if err := store.SaveParticipation(ctx, p); err != nil {
			return fmt.Errorf("creating demo participation for %s: %w", v.email, err)
		}
	}

	logger.Info("demo mission seeded", "mission_id", m.ID, "volunteers", len(volunteers))
	return nil
}
