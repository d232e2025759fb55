package web

import (
	"net/http"

	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// handleOrganization renders the organisation chart.
func (s *Server) handleOrganization(w http.ResponseWriter, r *http.Request) {
	roots, err := s.service.OrgTree(r.Context(), token(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "Organization", "/organization", templates.OrgChart(roots))
}
