package authz

import (
	"testing"

	"github.com/dkolesnikov/expensio/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementFor_FirstMatchWins(t *testing.T) {
	p := New([]Rule{
		{Pattern: "/api/auth/**", Requirement: RequirePublic},
		{Pattern: "/api/auth/logout", Requirement: RequireAuthenticated}, // shadowed
		{Pattern: "*", Requirement: RequireAuthenticated},
	})

	assert.Equal(t, RequirePublic, p.RequirementFor("/api/auth/login"))
	assert.Equal(t, RequirePublic, p.RequirementFor("/api/auth/logout"))
	assert.Equal(t, RequireAuthenticated, p.RequirementFor("/api/expenses"))
}

func TestRequirementFor_DefaultIsAuthenticated(t *testing.T) {
	p := New([]Rule{
		{Pattern: "/api/ping", Requirement: RequirePublic},
	})

	assert.Equal(t, RequirePublic, p.RequirementFor("/api/ping"))
	assert.Equal(t, RequireAuthenticated, p.RequirementFor("/anything/else"))
	assert.Equal(t, RequireAuthenticated, New(nil).RequirementFor("/"))
}

func TestRequirementFor_SubtreePatterns(t *testing.T) {
	p := New([]Rule{
		{Pattern: "/api/auth/**", Requirement: RequirePublic},
	})

	assert.Equal(t, RequirePublic, p.RequirementFor("/api/auth"))
	assert.Equal(t, RequirePublic, p.RequirementFor("/api/auth/register"))
	assert.Equal(t, RequirePublic, p.RequirementFor("/api/auth/deep/nested"))
	// not the subtree: sibling prefix must not match
	assert.Equal(t, RequireAuthenticated, p.RequirementFor("/api/authx"))
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig([]config.AuthRule{
		{Pattern: "/api/ping", Access: config.AccessPublic},
		{Pattern: "*", Access: config.AccessAuthenticated},
	})
	require.NoError(t, err)
	assert.Equal(t, RequirePublic, p.RequirementFor("/api/ping"))
	assert.Equal(t, RequireAuthenticated, p.RequirementFor("/api/expenses"))
}

func TestFromConfig_UnknownAccess(t *testing.T) {
	_, err := FromConfig([]config.AuthRule{{Pattern: "*", Access: "whatever"}})
	require.Error(t, err)
}
