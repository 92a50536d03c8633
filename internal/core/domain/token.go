package domain

// Claims is the identity quadruple carried inside a bearer token. A decoded
// token proves nothing about session liveness; the online registry does.
type Claims struct {
	UserID   int64
	Email    string
	Username string
	IsAdmin  bool
}
