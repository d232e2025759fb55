package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/hradmin/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

// MenuItem is one line of a menu. It either opens a submenu or a resource.
type MenuItem struct {
	Label    string
	Submenu  *Menu
	Resource string // Registry key opened in a Browser
}

// Menu is a titled list of items.
type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

const backLabel = "Back"

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == backLabel {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

// BuildMenu builds the resource menu from the registry: one submenu per
// navigation group.
func BuildMenu() *Menu {
	root := &Menu{Title: "HR Admin"}
	for _, group := range core.Groups() {
		sub := &Menu{Title: group}
		for _, def := range core.ByGroup(group) {
			sub.Items = append(sub.Items, MenuItem{Label: def.Info.Label, Resource: def.Info.Key})
		}
		sub.Items = append(sub.Items, MenuItem{Label: backLabel})
		root.Items = append(root.Items, MenuItem{Label: group + " ->", Submenu: sub})
	}

	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	APP
---------------------------------------- */

var menuKeys = struct {
	Up, Down, Open, Back, Quit key.Binding
}{
	Up:   key.NewBinding(key.WithKeys("up", "k")),
	Down: key.NewBinding(key.WithKeys("down", "j")),
	Open: key.NewBinding(key.WithKeys("enter", "right", "l")),
	Back: key.NewBinding(key.WithKeys("esc", "left", "h")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// App walks the menu tree and opens resources in a Browser.
type App struct {
	menu    *Menu
	cursor  int
	browser *Browser
	open    func(def core.Resource) Browser
}

// NewApp creates an App over menu. open builds the browser for a resource.
func NewApp(menu *Menu, open func(def core.Resource) Browser) App {
	return App{menu: menu, open: open}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update routes messages to the menu or the open browser.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.browser != nil {
		if _, ok := msg.(backMsg); ok {
			a.browser = nil
			return a, nil
		}
		m, cmd := a.browser.Update(msg)
		b := m.(Browser)
		a.browser = &b
		return a, cmd
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch {
	case key.Matches(km, menuKeys.Quit):
		return a, tea.Quit

	case key.Matches(km, menuKeys.Up):
		a.cursor = max(a.cursor-1, 0)

	case key.Matches(km, menuKeys.Down):
		a.cursor = min(a.cursor+1, len(a.menu.Items)-1)

	case key.Matches(km, menuKeys.Back):
		if a.menu.Parent != nil {
			a.menu, a.cursor = a.menu.Parent, 0
		}

	case key.Matches(km, menuKeys.Open):
		if len(a.menu.Items) == 0 {
			return a, nil
		}
		item := a.menu.Items[a.cursor]
		switch {
		case item.Submenu != nil:
			a.menu, a.cursor = item.Submenu, 0
		case item.Resource != "":
			def, err := core.Lookup(item.Resource)
			if err != nil {
				return a, nil
			}
			b := a.open(def)
			a.browser = &b
			return a, b.Init()
		}
	}
	return a, nil
}

// View renders the open browser or the current menu.
func (a App) View() string {
	if a.browser != nil {
		return a.browser.View()
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(a.menu.Title))
	s.WriteByte('\n')
	for i, item := range a.menu.Items {
		if i == a.cursor {
			s.WriteString(selectedItem.Render("> " + item.Label))
		} else {
			s.WriteString("  " + item.Label)
		}
		s.WriteByte('\n')
	}
	s.WriteByte('\n')
	s.WriteString(mutedStyle.Render("↑/↓ move · enter open · esc back · q quit"))
	s.WriteByte('\n')
	return s.String()
}
