package engine

// Actor is the authenticated user performing an operation.
type Actor struct {
	Username string
	Admin    bool
}

// CanModify reports whether the actor may change something owned by username.
func (a Actor) CanModify(username string) bool {
	return a.Username != "" && (a.Admin || a.Username == username)
}
