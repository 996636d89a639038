package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObfuscateToken(t *testing.T) {
	token := "ghp_abcDEF123"
	hidden := ObfuscateToken(token)

	assert.NotContains(t, hidden, "abc")
	assert.Equal(t, token, RevealToken(hidden))
	assert.Equal(t, "", ObfuscateToken(""))
	assert.Equal(t, "", RevealToken(""))
	// a value stored in clear by hand is returned as is.
	assert.Equal(t, "not*base64", RevealToken("not*base64"))
}

func TestValidateToken(t *testing.T) {
	for token, valid := range map[string]bool{
		"ghp_abc123":          true,
		"gho_ABC_def":         true,
		"github_pat_11AA_bb":  true,
		"ghs_abc":             false,
		"ghp_with space":      false,
		"":                    false,
		"token ghp_abc123xyz": false,
	} {
		t.Run(token, func(t *testing.T) {
			err := ValidateToken(token)
			assert.Equal(t, valid, err == nil, "ValidateToken(%q) = %v", token, err)
		})
	}
}

func TestValidateRemoteID(t *testing.T) {
	assert.NoError(t, ValidateRemoteID("0123456789abcdef0123456789abcdef"))
	assert.ErrorIs(t, ValidateRemoteID("0123456789ABCDEF0123456789ABCDEF"), ErrValidation)
	assert.ErrorIs(t, ValidateRemoteID("0123456789abcdef"), ErrValidation)
	assert.ErrorIs(t, ValidateRemoteID("0123456789abcdef0123456789abcdeg"), ErrValidation)
}

func TestCredential(t *testing.T) {
	assert.False(t, Credential{Token: "ghp_x"}.Configured())
	assert.True(t, Credential{Token: "ghp_x", RemoteID: "id"}.Configured())
	assert.Equal(t, "ghp_abcd••••••••••••••••", Mask("ghp_abcdefgh"))
}
