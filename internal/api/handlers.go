package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/apexboard/linear-integration/internal/integration"
)

// IntegrationRequest is the POST /api/v1/integrations body. UserID may
// instead arrive in the X-User-ID header, typically set by an auth
// proxy in front of the server.
type IntegrationRequest struct {
	ProviderProjectID string   `json:"provider_project_id"`
	UserID            string   `json:"user_id"`
	MemberEmails      []string `json:"member_emails,omitempty"`
}

// Validate checks required fields.
func (r *IntegrationRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ProviderProjectID) == "" {
		missing = append(missing, "provider_project_id")
	}
	if strings.TrimSpace(r.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return &validationError{fields: missing}
	}
	return nil
}

type validationError struct {
	fields []string
}

func (e *validationError) Error() string {
	return "missing required fields: " + strings.Join(e.fields, ", ")
}

func (s *Server) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	var req IntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON request body", err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = r.Header.Get("X-User-ID")
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	project, err := s.service.IntegrateProject(r.Context(), integration.IntegrateRequest{
		ProviderProjectID: req.ProviderProjectID,
		RequestingUserID:  req.UserID,
		MemberEmails:      req.MemberEmails,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProviderProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProviderProjects(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleListProjectMembers(w http.ResponseWriter, r *http.Request) {
	providerProjectID := r.PathValue("id")
	if providerProjectID == "" {
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "project id is required", "")
		return
	}

	members, err := s.service.ListProjectMembers(r.Context(), providerProjectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, members)
}
