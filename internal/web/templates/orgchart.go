package templates

import (
	"github.com/JonMunkholm/hradmin/internal/core"
)

func orgSize(roots []core.OrgNode) int {
	total := 0
	for _, n := range roots {
		total += n.Size()
	}
	return total
}
