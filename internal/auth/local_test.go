package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct
var testTeardown func(context.Context) error

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	testTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := testTeardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "teardown error: %v\n", err)
	}
	os.Exit(code)
}

func newHandler() *LocalAuthHandler {
	return NewLocalAuthHandler(testDB, TestTokenIssuer, nil)
}

// assertValidAccessToken validates the access token in resp and returns its claims.
func assertValidAccessToken(t *testing.T, resp map[string]interface{}) *jwt.RegisteredClaims {
	t.Helper()
	tokenStr, ok := resp["access_token"].(string)
	require.True(t, ok, "access_token not a string")
	token, err := TestTokenIssuer.ValidatedToken(tokenStr)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	require.True(t, ok, "claims type mismatch")
	assert.Equal(t, JwtIssuer, claims.Issuer)

	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok, "user missing in response")
	assert.Equal(t, user["id"], claims.Subject)
	assert.NotContains(t, user, "password")
	return claims
}

func TestRegisterCandidate(t *testing.T) {
	payload := map[string]string{
		"username": "new_candidate",
		"password": "password123",
		"email":    "new@example.com",
		"role":     model.RoleCandidate,
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	assertValidAccessToken(t, resp)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, model.RoleCandidate, user["role"])
	assert.Equal(t, "new_candidate", user["name"])
}

func TestRegisterRecruiter(t *testing.T) {
	payload := map[string]string{
		"username": "new_recruiter",
		"password": "recruiterPass1",
		"name":     "Nina Recruiter",
		"role":     model.RoleRecruiter,
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	assertValidAccessToken(t, resp)
	assert.Equal(t, "Nina Recruiter", resp["user"].(map[string]interface{})["name"])
}

func TestRegisterPasswordTooShort(t *testing.T) {
	payload := map[string]string{
		"username": "short_pwd_user",
		"password": "1234567",
		"role":     model.RoleCandidate,
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "Password should longer or equal to 8 characters")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	payload := map[string]string{
		"username": database.TestCandidate1.Username,
		"password": "password123",
		"role":     model.RoleCandidate,
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already exist", resp["error"])
}

func TestRegisterInvalidRole(t *testing.T) {
	payload := map[string]string{
		"username": "invalid_role_user",
		"password": "password123",
		"role":     model.RoleAdmin,
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalRegisterHandler, "/register", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "Only 'candidate' or 'recruiter'")
}

func TestLoginSuccess(t *testing.T) {
	for _, user := range []model.User{database.TestCandidate1, database.TestRecruiterUser1, database.TestAdminUser} {
		payload := map[string]string{
			"username": user.Username,
			"password": database.TestSeedPassword,
		}
		rec, resp, err := testutil.SimulateAPICall(newHandler().LocalLoginHandler, "/login", http.MethodPost, payload)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		claims := assertValidAccessToken(t, resp)
		assert.Equal(t, user.ID.String(), claims.Subject)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	payload := map[string]string{
		"username": database.TestCandidate1.Username,
		"password": "WrongPass999!",
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalLoginHandler, "/login", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Username or password is incorrect", resp["error"])
}

func TestLoginUserNotFound(t *testing.T) {
	payload := map[string]string{
		"username": "non_existent_user_xyz",
		"password": "SomePassword1!",
	}
	rec, resp, err := testutil.SimulateAPICall(newHandler().LocalLoginHandler, "/login", http.MethodPost, payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Username or password is incorrect", resp["error"])
}

func TestValidatedToken_WrongSecretOrIssuer(t *testing.T) {
	token, err := NewTokenIssuer("other-secret").GenerateStandardToken(uuid.New())
	require.NoError(t, err)
	_, err = TestTokenIssuer.ValidatedToken(token)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte(TestSecretKey))
	require.NoError(t, err)
	_, err = TestTokenIssuer.ValidatedToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidatedToken_Expired(t *testing.T) {
	issuer := NewTokenIssuer(TestSecretKey)
	issuer.ttl = -time.Minute
	token, err := issuer.GenerateStandardToken(uuid.New())
	require.NoError(t, err)

	_, err = TestTokenIssuer.ValidatedToken(token)
	var validationErr *jwt.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotZero(t, validationErr.Errors&jwt.ValidationErrorExpired)
}
