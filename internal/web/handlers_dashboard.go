package web

import (
	"net/http"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// handleDashboard shows a count tile for every registered resource.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := s.service.Counts(ctx, token(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var groups []templates.TileGroup
	index := map[string]int{}
	for _, c := range counts {
		i, ok := index[c.Info.Group]
		if !ok {
			i = len(groups)
			index[c.Info.Group] = i
			groups = append(groups, templates.TileGroup{Name: c.Info.Group})
		}
		tile := templates.Tile{Info: c.Info, Count: c.Count}
		if c.Err != nil {
			tile.Error = core.MapError(c.Err).Message
		}
		groups[i].Tiles = append(groups[i].Tiles, tile)
	}

	s.render(w, r, http.StatusOK, "Dashboard", "/", templates.Dashboard(core.GetUserFromContext(ctx), groups))
}
