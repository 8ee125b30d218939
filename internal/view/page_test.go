package view

import (
	"testing"

	"github.com/proportfolio/gallery/internal/models"
	"github.com/proportfolio/gallery/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(user *models.User, admin bool) services.Snapshot {
	return services.Snapshot{
		Session: models.Session{ID: "sid", User: user, IsAdminElevated: admin},
		Works: []models.Work{
			{ID: 3, UserID: 2, Title: "C"},
			{ID: 2, UserID: 1, Title: "B", IsFavorite: true},
			{ID: 1, UserID: 1, Title: "A"},
		},
		Favorites: []models.Work{{ID: 2, UserID: 1, Title: "B", IsFavorite: true}},
	}
}

func titles(cards []Card) []string {
	out := []string{}
	for _, c := range cards {
		out = append(out, c.Work.Title)
	}
	return out
}

func TestParse(t *testing.T) {
	assert.Equal(t, ModalAddWork, ParseModal("add-work"))
	assert.Equal(t, ModalNone, ParseModal("bogus"))
	assert.Equal(t, TabWorks, ParseTab("works"))
	assert.Equal(t, TabProfile, ParseTab(""))
}

func TestBuild_Unauthenticated(t *testing.T) {
	tests := []struct {
		name          string
		screen        Screen
		modal         Modal
		expectedModal Modal
	}{
		{name: "gallery", screen: ScreenGallery, modal: ModalNone, expectedModal: ModalNone},
		{name: "settings", screen: ScreenSettings, modal: ModalNone, expectedModal: ModalNone},
		{name: "login modal", screen: ScreenLanding, modal: ModalLogin, expectedModal: ModalLogin},
		{name: "register modal", screen: ScreenFavorites, modal: ModalRegister, expectedModal: ModalRegister},
		{name: "add work modal is hidden", screen: ScreenGallery, modal: ModalAddWork, expectedModal: ModalNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Build(snapshot(nil, false), tt.screen, tt.modal, Params{})

			assert.Equal(t, ScreenLanding, page.Screen)
			assert.Equal(t, tt.expectedModal, page.Modal)
			assert.Nil(t, page.User)
			assert.Empty(t, page.Cards)
		})
	}
}

func TestBuild_Gallery(t *testing.T) {
	tests := []struct {
		name           string
		admin          bool
		expectedDelete bool
	}{
		{name: "regular user sees no delete buttons", admin: false, expectedDelete: false},
		{name: "admin sees delete buttons", admin: true, expectedDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Build(snapshot(&models.User{ID: 1}, tt.admin), ScreenGallery, ModalNone, Params{})

			assert.Equal(t, ScreenGallery, page.Screen)
			assert.Equal(t, []string{"C", "B", "A"}, titles(page.Cards))
			for _, c := range page.Cards {
				assert.Equal(t, tt.expectedDelete, c.CanDelete)
			}
		})
	}
}

func TestBuild_LandingRedirectsToGallery(t *testing.T) {
	page := Build(snapshot(&models.User{ID: 1}, false), ScreenLanding, ModalLogin, Params{})

	assert.Equal(t, ScreenGallery, page.Screen)
	assert.Equal(t, ModalNone, page.Modal)
}

func TestBuild_Favorites(t *testing.T) {
	page := Build(snapshot(&models.User{ID: 1}, false), ScreenFavorites, ModalNone, Params{})

	assert.Equal(t, []string{"B"}, titles(page.Cards))
	assert.False(t, page.IsEmpty())

	empty := snapshot(&models.User{ID: 1}, false)
	empty.Favorites = []models.Work{}
	assert.True(t, Build(empty, ScreenFavorites, ModalNone, Params{}).IsEmpty())
}

func TestBuild_Settings(t *testing.T) {
	tests := []struct {
		name           string
		admin          bool
		tab            Tab
		expectedTab    Tab
		expectedTitles []string
	}{
		{name: "default tab", tab: "", expectedTab: TabProfile, expectedTitles: []string{}},
		{name: "my works are owned only", tab: TabWorks, expectedTab: TabWorks, expectedTitles: []string{"B", "A"}},
		{name: "admin tab hidden without elevation", tab: TabAdmin, expectedTab: TabProfile, expectedTitles: []string{}},
		{name: "admin tab with elevation", admin: true, tab: TabAdmin, expectedTab: TabAdmin, expectedTitles: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Build(snapshot(&models.User{ID: 1}, tt.admin), ScreenSettings, ModalNone, Params{Tab: tt.tab})

			assert.Equal(t, tt.expectedTab, page.Tab)
			assert.Equal(t, tt.expectedTitles, titles(page.Cards))
			for _, c := range page.Cards {
				assert.True(t, c.CanDelete)
			}
		})
	}
}

func TestBuild_WorkDetail(t *testing.T) {
	tests := []struct {
		name           string
		admin          bool
		workID         int
		expectedModal  Modal
		expectedDelete bool
	}{
		{name: "own work", workID: 1, expectedModal: ModalWork, expectedDelete: true},
		{name: "foreign work", workID: 3, expectedModal: ModalWork, expectedDelete: false},
		{name: "foreign work as admin", admin: true, workID: 3, expectedModal: ModalWork, expectedDelete: true},
		{name: "unknown work closes the modal", workID: 42, expectedModal: ModalNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Build(snapshot(&models.User{ID: 1}, tt.admin), ScreenGallery, ModalWork, Params{WorkID: tt.workID})

			assert.Equal(t, tt.expectedModal, page.Modal)
			if tt.expectedModal == ModalNone {
				assert.Nil(t, page.Detail)
				return
			}
			require.NotNil(t, page.Detail)
			assert.Equal(t, tt.workID, page.Detail.Work.ID)
			assert.Equal(t, tt.expectedDelete, page.Detail.CanDelete)
		})
	}
}

func TestBuild_AdminPromptHiddenOnceElevated(t *testing.T) {
	assert.Equal(t, ModalAdmin, Build(snapshot(&models.User{ID: 1}, false), ScreenSettings, ModalAdmin, Params{}).Modal)
	assert.Equal(t, ModalNone, Build(snapshot(&models.User{ID: 1}, true), ScreenSettings, ModalAdmin, Params{}).Modal)
}

func TestBuild_DraftAndNotifications(t *testing.T) {
	snap := snapshot(&models.User{ID: 1}, false)
	snap.Draft = &models.WorkInput{Title: "Sunset", Description: "kept"}
	snap.Notifications = []models.Notification{{Kind: models.NotificationError, Title: "Error"}}

	page := Build(snap, ScreenGallery, ModalAddWork, Params{})

	assert.Equal(t, ModalAddWork, page.Modal)
	assert.Equal(t, "Sunset", page.Draft.Title)
	assert.Len(t, page.Notifications, 1)
}

func TestBuild_IsDeterministic(t *testing.T) {
	snap := snapshot(&models.User{ID: 1}, true)

	first := Build(snap, ScreenSettings, ModalWork, Params{Tab: TabWorks, WorkID: 2})
	second := Build(snap, ScreenSettings, ModalWork, Params{Tab: TabWorks, WorkID: 2})

	assert.Equal(t, first, second)
}
