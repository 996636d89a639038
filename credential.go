package journey

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tokenRE    = regexp.MustCompile(`^(ghp_|gho_|github_pat_)[a-zA-Z0-9_]+$`)
	remoteIDRE = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// Credential is what the remote client needs: a bearer token and the id of the
// remote document.
type Credential struct {
	Token    string
	RemoteID string
}

// Configured reports whether both parts of the credential are set.
func (c Credential) Configured() bool { return c.Token != "" && c.RemoteID != "" }

// Validate checks the format of both parts.
func (c Credential) Validate() error {
	if err := ValidateToken(c.Token); err != nil {
		return err
	}
	return ValidateRemoteID(c.RemoteID)
}

// ValidateToken checks that token looks like a GitHub token.
func ValidateToken(token string) error {
	if !tokenRE.MatchString(token) {
		return invalidf("token does not look like a GitHub token")
	}
	return nil
}

// ValidateRemoteID checks that id is a 32 characters lowercase hex string.
func ValidateRemoteID(id string) error {
	if !remoteIDRE.MatchString(id) {
		return invalidf("remote id %q is not a 32 characters hex string", id)
	}
	return nil
}

// ObfuscateToken hides token from casual reading. It is not encryption.
func ObfuscateToken(token string) string {
	if token == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(reverse(token)))
}

// RevealToken reverses ObfuscateToken. Values that were not obfuscated are
// returned unchanged.
func RevealToken(s string) string {
	if s == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(b) {
		return s
	}
	return reverse(string(b))
}

// Mask shows the first 8 characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) > 8 {
		r = r[:8]
	}
	return string(r) + strings.Repeat("•", 16)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
