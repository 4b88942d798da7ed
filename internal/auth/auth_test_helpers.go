package auth

import (
	"fmt"
	"net/http"
	"testing"

	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/testutil"
)

// TestSecretKey signs tokens in tests
const TestSecretKey = "test-secret-key"

// TestTokenIssuer is shared by tests of packages that need authenticated requests.
var TestTokenIssuer = NewTokenIssuer(TestSecretKey)

// GetAccessToken is a helper function to obtain an access token for a user by simulating a login API call.
func GetAccessToken(
	t *testing.T,
	db *database.DBinstanceStruct,
	username string,
	password string,
) (string, error) {
	t.Helper()
	handler := NewLocalAuthHandler(db, TestTokenIssuer, nil)
	rec, resp, err := testutil.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if rec.Code != http.StatusOK {
		return "", fmt.Errorf("login Failed: status %d, body: %s", rec.Code, rec.Body.String())
	}
	token, ok := resp["access_token"].(string)
	if !ok {
		return "", fmt.Errorf("login Failed: no access_token in response: %s", rec.Body.String())
	}
	return token, nil
}
