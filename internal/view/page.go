package view

import (
	"github.com/proportfolio/gallery/internal/models"
	"github.com/proportfolio/gallery/internal/services"
)

// Screen selects the main content of a page
type Screen string

// Screen constants
const (
	ScreenLanding   Screen = "landing"
	ScreenGallery   Screen = "gallery"
	ScreenFavorites Screen = "favorites"
	ScreenSettings  Screen = "settings"
)

// Modal selects the dialog shown over a screen
type Modal string

// Modal constants
const (
	ModalNone     Modal = ""
	ModalLogin    Modal = "login"
	ModalRegister Modal = "register"
	ModalAddWork  Modal = "add-work"
	ModalWork     Modal = "work"
	ModalAdmin    Modal = "admin"
)

// Tab selects a section of the settings screen
type Tab string

// Tab constants
const (
	TabProfile Tab = "profile"
	TabWorks   Tab = "works"
	TabAdmin   Tab = "admin"
)

// ParseModal returns the modal named s, or ModalNone
func ParseModal(s string) Modal {
	switch Modal(s) {
	case ModalLogin, ModalRegister, ModalAddWork, ModalWork, ModalAdmin:
		return Modal(s)
	default:
		return ModalNone
	}
}

// ParseTab returns the settings tab named s, defaulting to the profile
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabProfile, TabWorks, TabAdmin:
		return Tab(s)
	default:
		return TabProfile
	}
}

// Params carries the selectors of a page request besides screen and modal
type Params struct {
	Tab    Tab
	WorkID int
}

// Card is a work as shown in a grid
type Card struct {
	Work      models.Work
	CanDelete bool
}

// Page is everything a template needs to render one response
type Page struct {
	Screen Screen
	Modal  Modal
	Tab    Tab

	User    *models.User
	IsAdmin bool

	// Cards is the grid of the gallery, favorites or "my works" view
	Cards []Card
	// Detail is the work opened in the detail modal
	Detail *Card

	Draft         models.WorkInput
	Notifications []models.Notification
}

// IsEmpty reports whether the grid has nothing to show
func (p Page) IsEmpty() bool {
	return len(p.Cards) == 0
}

// Build maps a state snapshot and the requested screen to a page.
// It is pure: the same input always yields the same page.
//
// Without a user only the landing screen with the auth modals is reachable.
// Delete buttons show in the gallery and the detail view only for an
// admin-elevated session, and in "my works" for the owner.
func Build(snap services.Snapshot, screen Screen, modal Modal, params Params) Page {
	page := Page{
		Screen:        screen,
		Modal:         modal,
		Notifications: snap.Notifications,
	}
	if snap.Draft != nil {
		page.Draft = *snap.Draft
	}

	sess := snap.Session
	if sess.User == nil {
		page.Screen = ScreenLanding
		if modal != ModalLogin && modal != ModalRegister {
			page.Modal = ModalNone
		}
		return page
	}

	page.User = sess.User
	page.IsAdmin = sess.IsAdminElevated
	if page.Screen == ScreenLanding {
		page.Screen = ScreenGallery
	}
	if page.Modal == ModalLogin || page.Modal == ModalRegister {
		page.Modal = ModalNone
	}

	switch page.Screen {
	case ScreenGallery:
		page.Cards = cards(snap.Works, sess.IsAdminElevated)
	case ScreenFavorites:
		page.Cards = cards(snap.Favorites, sess.IsAdminElevated)
	case ScreenSettings:
		page.Tab = params.Tab
		if page.Tab == "" || (page.Tab == TabAdmin && !sess.IsAdminElevated) {
			page.Tab = TabProfile
		}
		if page.Tab == TabWorks {
			page.Cards = cards(snap.OwnedBy(sess.User.ID), true)
		}
	}

	if page.Modal == ModalWork {
		work := snap.Find(params.WorkID)
		if work == nil {
			page.Modal = ModalNone
		} else {
			page.Detail = &Card{Work: *work, CanDelete: sess.CanDelete(work)}
		}
	}
	if page.Modal == ModalAdmin && sess.IsAdminElevated {
		page.Modal = ModalNone
	}

	return page
}

func cards(works []models.Work, canDelete bool) []Card {
	out := make([]Card, 0, len(works))
	for _, w := range works {
		out = append(out, Card{Work: w, CanDelete: canDelete})
	}
	return out
}
