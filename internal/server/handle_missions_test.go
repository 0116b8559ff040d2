package server

import (
	"net/http"
	"testing"
)

func TestListMissions(t *testing.T) {
	r, _, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/missions", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	list := decode[[]MissionSummary](t, rec)
	if len(list) != 1 || list[0].Name != "Spring river cleanup" {
		t.Fatalf("missions = %+v", list)
	}
	if limits := list[0].AgeLimits["captain"]; limits.Min == nil || *limits.Min != 18 || limits.Max == nil || *limits.Max != 70 {
		t.Errorf("captain limits = %+v", limits)
	}
}

func TestGetMission(t *testing.T) {
	r, _, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/missions/1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	m := decode[MissionDetail](t, rec)
	if len(m.Questions) != 3 || len(m.Pickups) != 2 || len(m.Roles) != 2 {
		t.Fatalf("detail = %+v", m)
	}
	if m.Questions[0].Key != "question_1" || m.Questions[0].Kind != "multiple_choice" || !m.Questions[0].Required {
		t.Errorf("first question = %+v", m.Questions[0])
	}

	if rec := do(t, r, http.MethodGet, "/api/missions/42", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing mission status = %d, want 404", rec.Code)
	}
}
