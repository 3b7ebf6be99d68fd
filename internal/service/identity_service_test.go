package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
)

const testSecret = "0123456789abcdef0123"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(false)
	svc := NewIdentityService(f.users, &infrastructure.JWTConfig{SecretKey: testSecret, Issuer: "sql-dojo"}, testTracer(), testLogger())

	valid := jwt.RegisteredClaims{
		Subject:   f.user.ID.String(),
		Issuer:    "sql-dojo",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	withSubject := func(sub string) jwt.RegisteredClaims {
		c := valid
		c.Subject = sub
		return c
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid)},
		{name: "expired", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired), wantErr: domain.ErrInvalidToken},
		{name: "wrong issuer", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer), wantErr: domain.ErrInvalidToken},
		{name: "no expiry", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry), wantErr: domain.ErrInvalidToken},
		{name: "wrong secret", token: signToken(t, jwt.SigningMethodHS256, []byte("another-secret-value"), valid), wantErr: domain.ErrInvalidToken},
		{name: "other algorithm", token: signToken(t, jwt.SigningMethodHS512, []byte(testSecret), valid), wantErr: domain.ErrInvalidToken},
		{name: "subject not a uuid", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), withSubject("ada")), wantErr: domain.ErrInvalidToken},
		{name: "unknown user", token: signToken(t, jwt.SigningMethodHS256, []byte(testSecret), withSubject(uuid.NewString())), wantErr: domain.ErrInvalidToken},
		{name: "garbage", token: "not.a.token", wantErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.user.ID, user.ID)
		})
	}
}
