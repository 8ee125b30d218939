package services

import (
	"slices"
	"sync"
	"time"

	"github.com/proportfolio/gallery/internal/models"
)

// State is the application state of one browser: its session, the gallery
// cached for the session user and pending notifications.
//
// A State is created the first time a browser session is seen and its
// contents are torn down at logout. All access goes through its methods.
type State struct {
	mu        sync.RWMutex
	session   models.Session
	works     []models.Work
	favorites []models.Work
	notices   []models.Notification
	draft     *models.WorkInput
	loaded    bool
	lastSeen  time.Time
}

// NewState creates an empty, unauthenticated state for a browser session
func NewState(sessionID string) *State {
	return &State{
		session:   models.Session{ID: sessionID},
		works:     []models.Work{},
		favorites: []models.Work{},
		lastSeen:  time.Now(),
	}
}

// Snapshot is an immutable copy of a State taken for rendering
type Snapshot struct {
	Session       models.Session
	Works         []models.Work
	Favorites     []models.Work
	Notifications []models.Notification
	Draft         *models.WorkInput
	// Loaded is false until the gallery has been fetched for the current user
	Loaded bool
}

// Find returns the cached work with the given id, or nil
func (s Snapshot) Find(workID int) *models.Work {
	if i := indexOf(s.Works, workID); i >= 0 {
		work := s.Works[i]
		return &work
	}
	if i := indexOf(s.Favorites, workID); i >= 0 {
		work := s.Favorites[i]
		return &work
	}
	return nil
}

// OwnedBy returns the cached works whose owner is userID, keeping order
func (s Snapshot) OwnedBy(userID int) []models.Work {
	owned := []models.Work{}
	for _, w := range s.Works {
		if w.UserID == userID {
			owned = append(owned, w)
		}
	}
	return owned
}

// Session returns a copy of the session
func (s *State) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

// Snapshot copies the state. Notifications and the form draft are not consumed.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Session:       copySession(s.session),
		Works:         slices.Clone(s.works),
		Favorites:     slices.Clone(s.favorites),
		Notifications: slices.Clone(s.notices),
		Draft:         copyDraft(s.draft),
		Loaded:        s.loaded,
	}
}

// Notify queues a notification shown on the next render
func (s *State) Notify(kind models.NotificationKind, title, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, models.Notification{Kind: kind, Title: title, Description: description})
}

// TakeNotifications returns and clears the queued notifications
func (s *State) TakeNotifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.notices
	s.notices = nil
	return notices
}

// KeepDraft remembers the add-work form input so a failed submit does not lose it
func (s *State) KeepDraft(input models.WorkInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	input.ImageURL = ""
	s.draft = &input
}

// TakeDraft returns and clears the remembered add-work form input
func (s *State) TakeDraft() *models.WorkInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.draft
	s.draft = nil
	return draft
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *State) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *State) viewerID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return 0
	}
	return s.session.User.ID
}

// setUser stores the user. A different user invalidates the cached gallery.
func (s *State) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User == nil || s.session.User.ID != user.ID {
		s.works = []models.Work{}
		s.favorites = []models.Work{}
		s.loaded = false
	}
	u := *user
	s.session.User = &u
}

func (s *State) setAdminElevated(elevated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.IsAdminElevated = elevated
}

// reset clears the user, admin elevation and gallery. Notifications survive.
func (s *State) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = nil
	s.session.IsAdminElevated = false
	s.works = []models.Work{}
	s.favorites = []models.Work{}
	s.draft = nil
	s.loaded = false
}

// replaceGallery swaps both lists wholesale. Results fetched for a viewer who
// is no longer logged in are dropped.
func (s *State) replaceGallery(viewerID int, works, favorites []models.Work) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := 0
	if s.session.User != nil {
		current = s.session.User.ID
	}
	if current != viewerID {
		return false
	}
	s.works = works
	s.favorites = favorites
	s.loaded = true
	return true
}

// markStale makes the next page view refetch the gallery
func (s *State) markStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

type gallerySnapshot struct {
	works     []models.Work
	favorites []models.Work
}

// flipFavorite optimistically flips the favorite flag of a cached work.
// ok is false when the work is not cached or nobody is logged in.
func (s *State) flipFavorite(workID int) (viewerID int, previous gallerySnapshot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.User == nil {
		return 0, gallerySnapshot{}, false
	}
	i := indexOf(s.works, workID)
	if i < 0 {
		return 0, gallerySnapshot{}, false
	}

	previous = gallerySnapshot{works: slices.Clone(s.works), favorites: slices.Clone(s.favorites)}

	works := slices.Clone(s.works)
	works[i].IsFavorite = !works[i].IsFavorite
	favorites := []models.Work{}
	for _, w := range works {
		if w.IsFavorite {
			favorites = append(favorites, w)
		}
	}
	s.works = works
	s.favorites = favorites

	return s.session.User.ID, previous, true
}

func (s *State) restoreGallery(previous gallerySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.works = previous.works
	s.favorites = previous.favorites
}

func indexOf(works []models.Work, workID int) int {
	return slices.IndexFunc(works, func(w models.Work) bool { return w.ID == workID })
}

func copySession(sess models.Session) models.Session {
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

func copyDraft(draft *models.WorkInput) *models.WorkInput {
	if draft == nil {
		return nil
	}
	d := *draft
	return &d
}
