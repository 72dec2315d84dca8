package identity

import (
	"strings"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// AddressEnv is the session environment variable carrying the player's
// account address, e.g. ssh -o SetEnv=TYPEFALL_ADDRESS=0x... host.
const AddressEnv = "TYPEFALL_ADDRESS"

// Session is an identity read from an SSH session. The player counts as
// authenticated when they logged in with a public key; the SSH user name
// is the username.
type Session struct {
	auth        bool
	id          Identity
	fingerprint string
}

// Compile-time check that Session implements Provider.
var _ Provider = (*Session)(nil)

// FromSSH builds a provider from an SSH session. A malformed address is
// dropped so the gate reports it as missing.
func FromSSH(sess ssh.Session) *Session {
	s := &Session{
		id: Identity{Username: strings.TrimSpace(sess.User())},
	}
	if key := sess.PublicKey(); key != nil {
		s.auth = true
		s.fingerprint = gossh.FingerprintSHA256(key)
	}
	if addr := lookupEnv(sess.Environ(), AddressEnv); ValidAddress(addr) {
		s.id.Address = addr
	}
	return s
}

func (s *Session) Authenticated() bool { return s.auth }
func (s *Session) Identity() Identity  { return s.id }

// Fingerprint is the SHA256 fingerprint of the login key, or "".
func (s *Session) Fingerprint() string {
	return s.fingerprint
}

func lookupEnv(environ []string, key string) string {
	prefix := key + "="
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(kv, prefix))
		}
	}
	return ""
}
