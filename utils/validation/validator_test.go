package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.org",
		"first.last@sub.example.co.uk",
		"user+tag@example.io",
	}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), "expected %q to be valid", email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@example.org",
		"user@",
		"user@nodot",
	}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), "expected %q to be invalid", email)
	}
}

func TestValidateHours(t *testing.T) {
	assert.True(t, ValidateHours(0.5))
	assert.True(t, ValidateHours(8))
	assert.True(t, ValidateHours(24))

	assert.False(t, ValidateHours(0))
	assert.False(t, ValidateHours(-1))
	assert.False(t, ValidateHours(24.01))
}

func TestValidateStruct(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required"`
	}

	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(form{Email: "user@example.org", Name: "User"}))

	err := v.ValidateStruct(form{Email: "bad"})
	assert.Error(t, err)

	formatted := FormatValidationErrors(err)
	assert.Equal(t, "Invalid email format", formatted["email"])
	assert.Contains(t, formatted["name"], "required")
}
