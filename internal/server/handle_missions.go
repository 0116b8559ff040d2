package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bighelpmob/missionhub/internal/missions"
)

type MissionSummary struct {
	ID        int64                        `json:"id"`
	Name      string                       `json:"name"`
	AgeLimits map[string]missions.AgeRange `json:"ageLimits"`
}

type QuestionItem struct {
	Key      string   `json:"key"`
	Text     string   `json:"text"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Choices  []string `json:"choices,omitempty"`
}

type PickupItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type MissionDetail struct {
	MissionSummary
	Questions []QuestionItem  `json:"questions"`
	Pickups   []PickupItem    `json:"pickups"`
	Roles     []missions.Role `json:"roles"`
}

func handleListMissions(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListMissions(r.Context())
		if err != nil {
			logger.Error("listing missions", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]MissionSummary, 0, len(list))
		for _, m := range list {
			out = append(out, MissionSummary{ID: m.ID, Name: m.Name, AgeLimits: m.AgeLimits})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetMission(logger *slog.Logger, store Store, roles missions.RoleList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid mission id")
			return
		}

		m, err := store.Mission(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "mission not found")
			return
		}
		if err != nil {
			logger.Error("loading mission", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		pickups, err := store.Pickups(r.Context(), id)
		if err != nil {
			logger.Error("loading pickups", "mission_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := MissionDetail{
			MissionSummary: MissionSummary{ID: m.ID, Name: m.Name, AgeLimits: m.AgeLimits},
			Questions:      []QuestionItem{},
			Pickups:        []PickupItem{},
			Roles:          roles,
		}
		for _, q := range m.Questions {
			resp.Questions = append(resp.Questions, QuestionItem{
				Key:      missions.QuestionKey(q.ID),
				Text:     q.Text,
				Kind:     string(q.Kind),
				Required: q.Required,
				Choices:  q.Choices,
			})
		}
		for _, pk := range pickups {
			resp.Pickups = append(resp.Pickups, PickupItem{ID: pk.ID, Name: pk.Name, Address: pk.Address})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
