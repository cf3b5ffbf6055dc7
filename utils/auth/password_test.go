package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password"), ErrPasswordMismatch)
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("same password here")
	assert.NoError(t, err)
	second, err := HashPassword("same password here")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second, "bcrypt hashes must differ per call")
}
