package policy

import "github.com/google/uuid"

// Capability is a set of role flags.
type Capability uint8

const (
	CapAdmin Capability = 1 << iota
	CapBlogger
)

// Has reports whether every flag in c2 is set in c.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

// Viewer is the identity a request is evaluated for. The zero value is the
// anonymous viewer.
type Viewer struct {
	UserID        uuid.UUID
	Authenticated bool
	Caps          Capability
}

func Anonymous() Viewer {
	return Viewer{}
}

// NewViewer builds an authenticated viewer from the two role flags.
func NewViewer(userID uuid.UUID, isAdmin, isBlogger bool) Viewer {
	var caps Capability
	if isAdmin {
		caps |= CapAdmin
	}
	if isBlogger {
		caps |= CapBlogger
	}
	return Viewer{UserID: userID, Authenticated: true, Caps: caps}
}

func (v Viewer) IsAdmin() bool {
	return v.Authenticated && v.Caps.Has(CapAdmin)
}

func (v Viewer) IsBlogger() bool {
	return v.Authenticated && v.Caps.Has(CapBlogger)
}
