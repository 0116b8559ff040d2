package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/bighelpmob/missionhub/internal/missions"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheck is one dependency's entry in the /healthz response.
type HealthCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// HealthResponse documents the /healthz body.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

type idPath struct {
	ID int64 `path:"id"`
}

type participationListQuery struct {
	MissionID int64    `query:"mission_id"`
	Role      string   `query:"role"`
	States    []string `query:"states"`
	Pickups   []int64  `query:"pickups"`
}

type sidebarQuery struct {
	Resource string `query:"resource" required:"true"`
	ID       int64  `query:"id"`
	Parent   string `query:"parent"`
	ParentID int64  `query:"parent_id"`
}

type userIDQuery struct {
	UserID int64 `query:"user_id"`
}

// EmailRequest documents the email draft body. Values may also be sent
// in form style ("1", "on", or a filter wrapped in "table").
type EmailRequest struct {
	Subject     string          `json:"subject"`
	HTMLContent string          `json:"html_content"`
	TextContent string          `json:"text_content"`
	ScopeType   string          `json:"scope_type" enum:"all_users,filtered_participations"`
	Filter      missions.Filter `json:"filter"`
	Confirmed   bool            `json:"confirmed"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	status int
	body   any
	ctype  string
}

func okResp(body any) response { return response{status: http.StatusOK, body: body} }

func statusResp(code int, body any) response { return response{status: code, body: body} }

const adminAuth = " Requires admin_session cookie."

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "MissionHub API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Back office API for volunteer missions: participations, roles, and admin email.")

	unauthorized := statusResp(http.StatusUnauthorized, ErrorResponse{})
	notFound := statusResp(http.StatusNotFound, ErrorResponse{})
	invalid := statusResp(http.StatusUnprocessableEntity, ValidationErrorResponse{})

	ops := []operation{
		{
			method: http.MethodGet, path: "/healthz",
			summary:     "Health check",
			description: "Returns the health status of backend dependencies.",
			resp:        []response{okResp(HealthResponse{}), statusResp(http.StatusServiceUnavailable, HealthResponse{})},
		},
		{
			method: http.MethodGet, path: "/api/missions",
			summary: "List missions",
			resp:    []response{okResp([]MissionSummary{})},
		},
		{
			method: http.MethodGet, path: "/api/missions/{id}",
			summary:     "Get mission",
			description: "Returns a mission with its questions, pickups, and public roles.",
			req:         idPath{},
			resp:        []response{okResp(MissionDetail{}), notFound},
		},
		{
			method: http.MethodGet, path: "/api/participations",
			summary:     "List participations",
			description: "Lists the participations visible to the caller. Anonymous callers only see approved and completed ones.",
			req:         participationListQuery{},
			resp:        []response{okResp([]ParticipationResponse{})},
		},
		{
			method: http.MethodPost, path: "/api/admin/login",
			summary:     "Admin login",
			description: "Authenticate with email and password. Sets admin_session cookie.",
			req:         AdminLoginRequest{},
			resp:        []response{okResp(AdminMeResponse{}), unauthorized},
		},
		{
			method: http.MethodPost, path: "/api/admin/logout",
			summary:     "Admin logout",
			description: "Clears admin session and cookie.",
			resp:        []response{okResp(nil)},
		},
		{
			method: http.MethodGet, path: "/api/admin/me",
			summary:     "Current admin",
			description: "Returns the currently authenticated admin." + adminAuth,
			resp:        []response{okResp(AdminMeResponse{}), unauthorized},
		},
		{
			method: http.MethodPost, path: "/api/admin/participations",
			summary:     "Create participation",
			description: "Validates and saves a new participation. New participations are never auto-approved." + adminAuth,
			req:         CreateParticipationRequest{},
			resp:        []response{statusResp(http.StatusCreated, ParticipationResponse{}), invalid, notFound, unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/participations/{id}",
			summary:     "Get participation",
			description: "Returns a participation with its available events." + adminAuth,
			req:         idPath{},
			resp:        []response{okResp(ParticipationResponse{}), notFound, unauthorized},
		},
		{
			method: http.MethodPatch, path: "/api/admin/participations/{id}",
			summary:     "Update participation",
			description: "Assigns attributes and saves. A valid participation awaiting approval is approved on save; recentlyJoined is then true." + adminAuth,
			req:         UpdateParticipationRequest{},
			resp:        []response{okResp(ParticipationResponse{}), invalid, notFound, unauthorized},
		},
		{
			method: http.MethodPut, path: "/api/admin/participations/{id}/role",
			summary:     "Change role",
			description: "Assigns a public role; a blank role switches to the alternate one." + adminAuth,
			req:         RoleRequest{},
			resp:        []response{okResp(ParticipationResponse{}), invalid, notFound, unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/participations/{id}/events",
			summary:     "Event options",
			description: "Labelled lifecycle events allowed from the current state." + adminAuth,
			req:         idPath{},
			resp:        []response{okResp([]missions.EventOption{}), notFound, unauthorized},
		},
		{
			method: http.MethodPost, path: "/api/admin/participations/{id}/events",
			summary:     "Fire event",
			description: "Applies a lifecycle event and dispatches its notifications." + adminAuth,
			req:         FireEventRequest{},
			resp:        []response{okResp(ParticipationResponse{}), statusResp(http.StatusConflict, ErrorResponse{}), notFound, unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/emails/scope-types",
			summary: "Email scope types",
			resp:    []response{okResp([]ScopeTypeOption{}), unauthorized},
		},
		{
			method: http.MethodPost, path: "/api/admin/emails/preview",
			summary:     "Preview email",
			description: "Validates a draft and counts its audience without sending." + adminAuth,
			req:         EmailRequest{},
			resp:        []response{okResp(EmailPreviewResponse{}), unauthorized},
		},
		{
			method: http.MethodPost, path: "/api/admin/emails",
			summary:     "Send email",
			description: "Validates a confirmed draft and queues it for delivery. Content containing {{ is rendered per recipient." + adminAuth,
			req:         EmailRequest{},
			resp:        []response{statusResp(http.StatusAccepted, EmailSentResponse{}), invalid, unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/sidebar",
			summary:     "Admin sidebar",
			description: "Menu links for an admin resource page. Without id the collection menu is returned." + adminAuth,
			req:         sidebarQuery{},
			resp:        []response{okResp(SidebarResponse{}), notFound, unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/notifications",
			summary:     "List notifications",
			description: "Newest lifecycle notifications, optionally for one user." + adminAuth,
			req:         userIDQuery{},
			resp:        []response{okResp([]Notification{}), unauthorized},
		},
		{
			method: http.MethodGet, path: "/api/admin/events",
			summary:     "SSE notification stream",
			description: "Server-Sent Events stream of lifecycle notifications, optionally for one user." + adminAuth,
			req:         userIDQuery{},
			resp:        []response{{status: http.StatusOK, ctype: "text/event-stream"}, unauthorized},
		},
	}

	for _, op := range ops {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.ctype != "" {
				opts = append(opts, openapi.WithContentType(resp.ctype))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
