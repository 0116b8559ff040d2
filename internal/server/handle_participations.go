package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bighelpmob/missionhub/internal/missions"
)

// ParticipationResponse is a participation as shown to clients.
type ParticipationResponse struct {
	ID                   int64                  `json:"id"`
	UserID               int64                  `json:"userId"`
	UserName             string                 `json:"userName"`
	UserEmail            string                 `json:"userEmail,omitempty"`
	MissionID            int64                  `json:"missionId"`
	Role                 string                 `json:"role"`
	State                string                 `json:"state"`
	StateLabel           string                 `json:"stateLabel"`
	PickupID             *int64                 `json:"pickupId"`
	Pickup               string                 `json:"pickup"`
	Comment              string                 `json:"comment"`
	PartakingWithFriends bool                   `json:"partakingWithFriends"`
	Answers              map[string]any         `json:"answers"`
	RecentlyJoined       bool                   `json:"recentlyJoined,omitempty"`
	Events               []missions.EventOption `json:"events,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

func participationResponse(lc *missions.Lifecycle, p *missions.Participation, admin bool) ParticipationResponse {
	resp := ParticipationResponse{
		ID:                   p.ID,
		UserID:               p.UserID,
		MissionID:            p.MissionID,
		Role:                 p.RoleName(),
		State:                string(p.State),
		StateLabel:           lc.HumanStateName(p),
		PickupID:             p.PickupID,
		Pickup:               lc.HumanizedPickup(p),
		Comment:              p.Comment,
		PartakingWithFriends: p.PartakingWithFriends,
		Answers:              p.Answers().Raw(),
		RecentlyJoined:       p.RecentlyJoined(),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.User != nil {
		resp.UserName = p.User.Name
		if admin {
			resp.UserEmail = p.User.Email
		}
	}
	if admin {
		resp.Events = lc.StateEventsForSelect(p)
	}
	return resp
}

// filterFromQuery reads mission_id, role, states, and pickups. List
// values may repeat or be comma separated.
func filterFromQuery(r *http.Request, roles missions.RoleList) missions.Filter {
	q := r.URL.Query()
	var f missions.Filter
	if id, err := strconv.ParseInt(q.Get("mission_id"), 10, 64); err == nil {
		f.MissionID = id
	}
	f.Role = q.Get("role")
	f.States = splitList(q["states"])
	for _, s := range splitList(q["pickups"]) {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			f.Pickups = append(f.Pickups, id)
		}
	}
	return f.Normalize(roles)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func handleListParticipations(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := viewerFrom(r)
		f := filterFromQuery(r, lc.Roles())

		list, err := store.ListParticipations(r.Context(), missions.ViewableBy(viewer), f)
		if err != nil {
			logger.Error("listing participations", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		admin := viewer != nil && viewer.Admin
		out := make([]ParticipationResponse, 0, len(list))
		for _, p := range list {
			out = append(out, participationResponse(lc, p, admin))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func loadParticipation(w http.ResponseWriter, r *http.Request, logger *slog.Logger, store Store) (*missions.Participation, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participation id")
		return nil, false
	}
	p, err := store.Participation(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "participation not found")
		return nil, false
	}
	if err != nil {
		logger.Error("loading participation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return p, true
}

func handleGetParticipation(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadParticipation(w, r, logger, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, participationResponse(lc, p, true))
	}
}

// CreateParticipationRequest is the request body for POST /api/admin/participations.
type CreateParticipationRequest struct {
	UserID    int64  `json:"userId"`
	MissionID int64  `json:"missionId"`
	Role      string `json:"role"`
	missions.UpdateAttributes
}

func handleCreateParticipation(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateParticipationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID <= 0 || req.MissionID <= 0 {
			writeError(w, http.StatusBadRequest, "userId and missionId are required")
			return
		}

		p, err := store.NewParticipation(r.Context(), req.UserID, req.MissionID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user or mission not found")
			return
		}
		if err != nil {
			logger.Error("building participation", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		p.SetRoleName(lc.Roles(), req.Role)

		if err := lc.Assign(r.Context(), p, req.UpdateAttributes); err != nil {
			writeAssignError(w, logger, err)
			return
		}
		errs, err := lc.Create(r.Context(), p)
		if err != nil {
			logger.Error("creating participation", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !errs.Empty() {
			writeValidation(w, errs)
			return
		}
		writeJSON(w, http.StatusCreated, participationResponse(lc, p, true))
	}
}

// UpdateParticipationRequest is the request body for PATCH
// /api/admin/participations/{id}. Save defaults to true; false only
// assigns and echoes the result.
type UpdateParticipationRequest struct {
	missions.UpdateAttributes
	Save *bool `json:"save,omitempty"`
}

func handleUpdateParticipation(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadParticipation(w, r, logger, store)
		if !ok {
			return
		}

		var req UpdateParticipationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		performSave := req.Save == nil || *req.Save

		errs, err := lc.Update(r.Context(), p, req.UpdateAttributes, performSave)
		if err != nil {
			writeAssignError(w, logger, err)
			return
		}
		if !errs.Empty() {
			writeValidation(w, errs)
			return
		}
		writeJSON(w, http.StatusOK, participationResponse(lc, p, true))
	}
}

func writeAssignError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusUnprocessableEntity, "pickup does not belong to this mission")
		return
	}
	logger.Error("updating participation", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// RoleRequest is the request body for PUT /api/admin/participations/{id}/role.
// A blank role switches to the alternate role.
type RoleRequest struct {
	Role string `json:"role"`
}

func handleChangeRole(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadParticipation(w, r, logger, store)
		if !ok {
			return
		}

		var req RoleRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		role := strings.TrimSpace(req.Role)
		if role == "" {
			role = p.AlternateRole(lc.Roles()).Name
		}
		if _, ok := lc.Roles().Lookup(role); !ok {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		p.SetRoleName(lc.Roles(), role)

		errs, err := lc.Save(r.Context(), p)
		if err != nil {
			logger.Error("saving participation", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !errs.Empty() {
			writeValidation(w, errs)
			return
		}
		writeJSON(w, http.StatusOK, participationResponse(lc, p, true))
	}
}

// FireEventRequest is the request body for POST /api/admin/participations/{id}/events.
type FireEventRequest struct {
	Event string `json:"event"`
}

func handleFireEvent(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadParticipation(w, r, logger, store)
		if !ok {
			return
		}

		var req FireEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ev, ok := missions.ParseEvent(req.Event)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown event")
			return
		}

		err := lc.Fire(r.Context(), p, ev)
		if errors.Is(err, missions.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			logger.Error("firing event", "event", ev, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, participationResponse(lc, p, true))
	}
}

func handleEventOptions(logger *slog.Logger, store Store, lc *missions.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadParticipation(w, r, logger, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, lc.StateEventsForSelect(p))
	}
}
