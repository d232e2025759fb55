package templates

import (
	"github.com/JonMunkholm/hradmin/internal/core"
)

// Tile is one resource card on the dashboard.
type Tile struct {
	Info  core.ResourceInfo
	Count int
	Error string // Shown instead of the count when fetching it failed
}

// TileGroup is a titled row of tiles.
type TileGroup struct {
	Name  string
	Tiles []Tile
}

func greeting(user string) string {
	if user == "" {
		return "Dashboard"
	}
	return "Welcome, " + user
}
