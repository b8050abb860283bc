package session

import "portfoliosite/portfolio/internal/credentials"

// CredentialSource is the read side of the credential store.
type CredentialSource interface {
	Token() (string, bool)
	Profile() (credentials.Profile, bool)
}

// Oracle answers session questions from local state only. It never calls
// the server: a locally present but server-expired token still reads as
// authenticated until a rejected call clears the store.
type Oracle struct {
	creds CredentialSource
}

func NewOracle(creds CredentialSource) *Oracle {
	return &Oracle{creds: creds}
}

// IsAuthenticated reports whether a session token is present.
func (o *Oracle) IsAuthenticated() bool {
	_, ok := o.creds.Token()
	return ok
}

// CurrentUser returns the cached profile, or absent when the store is
// empty or the persisted profile cannot be read.
func (o *Oracle) CurrentUser() (credentials.Profile, bool) {
	return o.creds.Profile()
}
