package domain

// Profile is the open-ended user record returned by the backend. Different
// backends attach different fields to it, so it is kept as a raw map and only
// the username is given an accessor.
type Profile map[string]any

// NewProfile creates a minimal profile carrying only a username. Used when the
// backend response contains no usable user record.
func NewProfile(username string) Profile {
	return Profile{"username": username}
}

// Username returns the profile's username field, or the empty string if the
// profile is absent or carries no string username.
func (p Profile) Username() string {
	if p == nil {
		return ""
	}

	username, _ := p["username"].(string)

	return username
}

// Session is the client-held record of authentication status: an opaque bearer
// token and the user profile it belongs to. Both fields absent means anonymous.
type Session struct {
	Token string
	User  Profile
}

// Authenticated reports whether the session carries both a token and a user.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Anonymous reports whether the session carries neither a token nor a user.
func (s Session) Anonymous() bool {
	return s.Token == "" && s.User == nil
}

// Credentials is a username/password pair. It is only ever used as a request
// payload and is never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
