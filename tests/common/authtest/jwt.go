//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"edupass/internal/domain/actor"
	"edupass/internal/pkg/config"
	"edupass/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

// TokenFor mints a bearer token the way the platform's auth service would.
// Identity lives entirely in the token; there is no users table here.
func TokenFor(t *testing.T, cfg config.JWTConfig, a actor.Actor) string {
	t.Helper()

	duration, err := time.ParseDuration(cfg.Duration)
	require.NoError(t, err)

	token, err := jwt.NewService(cfg.Secret, duration).GenerateToken(a)
	require.NoError(t, err)
	return token
}

// ExpiredTokenFor mints a token that is already past its expiry.
func ExpiredTokenFor(t *testing.T, cfg config.JWTConfig, a actor.Actor) string {
	t.Helper()

	token, err := jwt.NewService(cfg.Secret, 1*time.Millisecond).GenerateToken(a)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}

func Teacher(institutionID string) actor.Actor {
	return actor.Actor{ID: "user-teacher-001", InstitutionID: institutionID, Role: actor.RoleTeacher}
}

func Parent(institutionID string) actor.Actor {
	return actor.Actor{ID: "user-parent-001", InstitutionID: institutionID, Role: actor.RoleParent}
}

func Admin(institutionID string) actor.Actor {
	return actor.Actor{ID: "user-admin-001", InstitutionID: institutionID, Role: actor.RoleAdmin}
}
