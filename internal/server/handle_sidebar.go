package server

import (
	"net/http"
	"strconv"

	"github.com/bighelpmob/missionhub/internal/adminnav"
)

// adminResources are the admin pages that get a sidebar, keyed by the
// resource name clients pass in.
var adminResources = map[string]adminnav.Resource{
	"missions":               {Path: "admin/missions", Class: "Mission", URL: "/admin/missions"},
	"mission_participations": {Path: "admin/mission_participations", Class: "MissionParticipation", URL: "/admin/mission_participations"},
	"emails":                 {Path: "admin/emails", Class: "Email", URL: "/admin/emails"},
	"users":                  {Path: "admin/users", Class: "User", URL: "/admin/users"},
	"pickups":                {Path: "admin/pickups", Class: "Pickup", URL: "/admin/pickups"},
}

// SidebarResponse is the menu for one admin page.
type SidebarResponse struct {
	Title string          `json:"title"`
	Links []adminnav.Link `json:"links"`
}

// handleSidebar builds the menu for ?resource=&id=&parent=&parent_id=.
// Without id the collection menu is returned.
func handleSidebar(nav *adminnav.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		res, ok := adminResources[q.Get("resource")]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown resource")
			return
		}
		pg := adminnav.Page{Resource: res}

		if raw := q.Get("parent"); raw != "" {
			parent, ok := adminResources[raw]
			parentID, err := strconv.ParseInt(q.Get("parent_id"), 10, 64)
			if !ok || err != nil || parentID <= 0 {
				writeError(w, http.StatusBadRequest, "invalid parent")
				return
			}
			pg.Parent = &adminnav.Parent{Resource: parent, ID: parentID}
		}

		resp := SidebarResponse{Title: nav.ClassName(res)}
		if raw := q.Get("id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusBadRequest, "invalid id")
				return
			}
			pg.ID = id
			resp.Links = nav.Object(pg)
		} else {
			resp.Links = nav.Collection(pg)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
