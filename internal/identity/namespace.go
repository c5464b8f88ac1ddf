package identity

// Namespace derives the storage key a user's conversation state lives under.
// Guest sessions share one transient key regardless of display name; named
// sessions get a per-name key. Switching identity means reinitializing against
// the new namespace, never merging the two.
func Namespace(u User) string {
	if u.IsGuest {
		return "emotic_guest_chats"
	}
	return "emotic_chats_" + u.Name
}
