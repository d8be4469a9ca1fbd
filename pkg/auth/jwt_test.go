package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    primitive.NewObjectID(),
		Name:  "Asha",
		Email: "asha@clinic.in",
		Role:  model.RoleCounsellor,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("a-very-secret-signing-key", time.Hour)
	user := testUser()

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, model.RoleCounsellor, claims.Role)
	assert.Equal(t, "asha@clinic.in", claims.Email)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-number-one-xx", time.Hour).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("secret-number-two-xx", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("a-very-secret-signing-key", time.Minute).(*hmacService)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
