package settings

// Settings holds a user's app settings. NotificationsEnabled gates reminder
// scheduling and delivery; it defaults to true for users who never touched
// the toggle.
type Settings struct {
	UserID               string `db:"user_id" json:"userId"`
	NotificationsEnabled bool   `db:"notifications_enabled" json:"notificationsEnabled"`
}
