// Package identity supplies the player identity that gates play and score
// submission.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// Gate errors, in the order they are checked.
var (
	ErrNotAuthenticated = errors.New("please connect your wallet first")
	ErrAddressRequired  = errors.New("please link your game account address")
	ErrUsernameRequired = errors.New("please ensure you have a username set up")
)

// Identity is the player as seen by the game. Both fields are optional
// until the gate is checked.
type Identity struct {
	Address  string
	Username string
}

// Provider reports whether the player is authenticated and who they are.
type Provider interface {
	Authenticated() bool
	Identity() Identity
}

// Check returns nil when p is authenticated and has both an address and
// a username, or the first gate error otherwise.
func Check(p Provider) error {
	if p == nil || !p.Authenticated() {
		return ErrNotAuthenticated
	}
	id := p.Identity()
	if strings.TrimSpace(id.Address) == "" {
		return ErrAddressRequired
	}
	if strings.TrimSpace(id.Username) == "" {
		return ErrUsernameRequired
	}
	return nil
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s looks like a hex account address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Static is a fixed identity, used by the local terminal game.
type Static struct {
	Auth bool
	ID   Identity
}

// Compile-time check that Static implements Provider.
var _ Provider = Static{}

func (s Static) Authenticated() bool { return s.Auth }
func (s Static) Identity() Identity  { return s.ID }
