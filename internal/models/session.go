package models

// Session is the browser-local record of the authenticated user and admin elevation
type Session struct {
	ID              string `json:"id"`
	User            *User  `json:"user,omitempty"`
	IsAdminElevated bool   `json:"is_admin_elevated"`
}

// IsAuthenticated reports whether a user is logged in
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// CanDelete reports whether the session may delete the work.
// The check only gates the UI, the backend decides.
func (s Session) CanDelete(work *Work) bool {
	if s.User == nil || work == nil {
		return false
	}
	return s.IsAdminElevated || work.UserID == s.User.ID
}

// NotificationKind is the visual variant of a notification
type NotificationKind string

// NotificationKind constants
const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient message shown once to the user
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
}
