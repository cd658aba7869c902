package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct(t *testing.T) {
	type form struct {
		Name     string `json:"name" validate:"required,max=5"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Status   string `json:"status" validate:"omitempty,oneof=todo done"`
	}

	require.NoError(t, ValidateStruct(form{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}))

	err := ValidateStruct(form{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "email is required")
	assert.Contains(t, err.Error(), "password is required")

	err = ValidateStruct(form{Name: "toolong", Email: "not-an-email", Password: "123", Status: "doing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be at most 5 characters")
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
	assert.Contains(t, err.Error(), "status must be one of: todo done")
}
