package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordAndVerify(t *testing.T) {
	encoded, err := Password("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordSaltsAreUnique(t *testing.T) {
	first, err := Password("secret123")
	require.NoError(t, err)

	second, err := Password("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := Verify("secret123", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = Verify("secret123", "$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
