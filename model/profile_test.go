package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleInstructor.Valid())
	assert.True(t, RoleAdmin.Valid())

	assert.False(t, Role("").Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("Student").Valid(), "roles are case sensitive")
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleStudent.CanSubmitLogs())
	assert.False(t, RoleInstructor.CanSubmitLogs())
	assert.False(t, RoleAdmin.CanSubmitLogs())

	assert.True(t, RoleInstructor.CanReviewLogs())
	assert.False(t, RoleStudent.CanReviewLogs())
	assert.False(t, RoleAdmin.CanReviewLogs())

	assert.True(t, RoleAdmin.CanManageUsers())
	assert.False(t, RoleStudent.CanManageUsers())
	assert.False(t, RoleInstructor.CanManageUsers())
}
