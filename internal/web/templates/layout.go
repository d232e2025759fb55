// Package templates renders the admin console's HTML as templ components.
//
// The .templ files hold the markup; run `templ generate` after editing them.
// This file and its siblings keep the props and plain Go helpers.
package templates

import (
	"github.com/a-h/templ"

	"github.com/JonMunkholm/hradmin/internal/session"
)

// NavGroup is one section of the sidebar.
type NavGroup struct {
	Name  string
	Links []NavLink
}

// NavLink is one sidebar entry.
type NavLink struct {
	Label string
	Href  string
}

// Page carries the chrome around every authenticated screen.
type Page struct {
	Title  string
	User   string
	Theme  session.Theme
	Toasts []session.Toast
	Nav    []NavGroup
	Active string // Href of the current screen
}

// theme defaults an unset theme to light.
func (p Page) theme() session.Theme {
	if p.Theme == "" {
		return session.ThemeLight
	}
	return p.Theme
}

// themeToggle labels the button that switches to the other theme.
func (p Page) themeToggle() string {
	if p.theme() == session.ThemeDark {
		return "Light mode"
	}
	return "Dark mode"
}

func pageTitle(title string) string {
	if title == "" {
		return "HR Admin"
	}
	return title + " · HR Admin"
}

// Bare renders a minimal document for screens without navigation, such as
// the login page.
func Bare(title string, theme session.Theme, toasts []session.Toast, body templ.Component) templ.Component {
	return Layout(Page{Title: title, Theme: theme, Toasts: toasts}, body)
}
