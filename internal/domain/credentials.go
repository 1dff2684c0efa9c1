package domain

// Credentials is everything the player needs to rejoin its room after a
// restart. Durably mirrored by the credential store.
type Credentials struct {
	ServerURL string `json:"serverUrl"`
	Token     string `json:"-"`
	Username  string `json:"username"`
	UserID    UserID `json:"userId"`
	IsAdmin   bool   `json:"isAdmin"`
	RoomID    int    `json:"roomId"`
}

func (c Credentials) LoggedIn() bool {
	return c.Token != "" && c.ServerURL != ""
}
