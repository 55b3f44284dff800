package e2e

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the running server over HTTP with playwright's request API
type E2ETestSuite struct {
	suite.Suite
	pw  *playwright.Playwright
	api playwright.APIRequestContext
}

type result map[string]any

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	api, err := pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.api = api
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.api != nil {
		suite.api.Dispose()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

func (suite *E2ETestSuite) post(path, token string, data any) (int, result) {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	resp, err := suite.api.Post(path, playwright.APIRequestContextPostOptions{
		Data:    data,
		Headers: headers,
	})
	require.NoError(suite.T(), err, "POST %s", path)
	return suite.decode(resp)
}

func (suite *E2ETestSuite) get(path, token string) (int, result) {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	resp, err := suite.api.Get(path, playwright.APIRequestContextGetOptions{
		Headers: headers,
	})
	require.NoError(suite.T(), err, "GET %s", path)
	return suite.decode(resp)
}

func (suite *E2ETestSuite) decode(resp playwright.APIResponse) (int, result) {
	var out result
	require.NoError(suite.T(), resp.JSON(&out), "response is not JSON")
	return resp.Status(), out
}

// uniqueEmail keeps tests independent on the shared server database.
func uniqueEmail() string {
	return "e2e-" + uuid.NewString() + "@example.com"
}

func (suite *E2ETestSuite) register(email, password string) string {
	code, body := suite.post("/api/register", "", map[string]string{"email": email, "password": password})
	require.Equal(suite.T(), http.StatusOK, code)
	require.Equal(suite.T(), true, body["ok"], "register failed: %v", body)
	return body["token"].(string)
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	email := uniqueEmail()
	suite.register(email, "flow-pass")

	code, body := suite.post("/api/login", "", map[string]string{"email": email, "password": "flow-pass"})
	require.Equal(suite.T(), http.StatusOK, code)
	require.Equal(suite.T(), true, body["ok"])
	token := body["token"].(string)

	_, types := suite.get("/api/expense-types", token)
	require.Equal(suite.T(), true, types["ok"])
	assert.Len(suite.T(), types["types"], 3)

	_, accounts := suite.get("/api/accounts", token)
	require.Equal(suite.T(), true, accounts["ok"])
	assert.Len(suite.T(), accounts["accounts"], 2)

	code, created := suite.post("/api/expenses", token, map[string]any{
		"date":        "2024-01-08",
		"description": "Lunch Test",
		"category":    "food",
		"amount":      12.5,
		"type_id":     1,
		"account_id":  1,
	})
	require.Equal(suite.T(), http.StatusOK, code)
	require.Equal(suite.T(), true, created["ok"], "create failed: %v", created)
	assert.NotZero(suite.T(), created["id"])

	_, listed := suite.get("/api/expenses?from=2024-01-01&to=2024-02-01", token)
	require.Equal(suite.T(), true, listed["ok"])
	expenses := listed["expenses"].([]any)
	require.Len(suite.T(), expenses, 1)
	assert.Equal(suite.T(), "Lunch Test", expenses[0].(map[string]any)["description"])
	assert.Equal(suite.T(), 12.5, expenses[0].(map[string]any)["amount"])

	code, report := suite.get("/api/report", token)
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Contains(suite.T(), report, "from")
	assert.Contains(suite.T(), report, "to")
	assert.NotNil(suite.T(), report["data"])
}

func (suite *E2ETestSuite) TestRejectsInvalidExpense() {
	token := suite.register(uniqueEmail(), "secret")

	_, body := suite.post("/api/expenses", token, map[string]any{
		"date": "2024-01-08", "amount": 1, "type_id": 999, "account_id": 1,
	})
	assert.Equal(suite.T(), false, body["ok"])
	assert.Equal(suite.T(), "Invalid expense type", body["error"])

	_, body = suite.post("/api/expenses", token, map[string]any{
		"date": "2024-01-08", "amount": 1, "type_id": 1, "account_id": 999,
	})
	assert.Equal(suite.T(), false, body["ok"])
	assert.Equal(suite.T(), "Invalid account", body["error"])
}

func (suite *E2ETestSuite) TestProtectedRoutesRequireToken() {
	for _, path := range []string{"/api/expense-types", "/api/accounts", "/api/expenses", "/api/report"} {
		code, body := suite.get(path, "")
		assert.Equal(suite.T(), http.StatusUnauthorized, code, path)
		assert.Equal(suite.T(), "Invalid Authentication Token", body["error"], path)
	}
}

func (suite *E2ETestSuite) TestPasswordResetFlow() {
	email := uniqueEmail()
	accessToken := suite.register(email, "old-pass")

	code, body := suite.post("/api/request-reset", "", map[string]string{"email": email})
	require.Equal(suite.T(), http.StatusOK, code)
	resetToken, ok := body["token"].(string)
	require.True(suite.T(), ok, "reset token is returned in development")

	code, _ = suite.get("/api/report", resetToken)
	assert.Equal(suite.T(), http.StatusUnauthorized, code, "reset token must not authorize requests")

	code, body = suite.post("/api/reset-password", "", map[string]string{"token": accessToken, "new_password": "new-pass"})
	assert.Equal(suite.T(), http.StatusBadRequest, code, "access token must not reset passwords")
	assert.Equal(suite.T(), "Invalid or expired reset token", body["error"])

	code, body = suite.post("/api/reset-password", "", map[string]string{"token": resetToken, "new_password": "new-pass"})
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "Password successfully reset", body["message"])

	_, body = suite.post("/api/login", "", map[string]string{"email": email, "password": "old-pass"})
	assert.Equal(suite.T(), "Invalid credentials", body["error"])

	_, body = suite.post("/api/login", "", map[string]string{"email": email, "password": "new-pass"})
	assert.Equal(suite.T(), true, body["ok"])
}

func (suite *E2ETestSuite) TestRequestResetUnknownEmail() {
	code, body := suite.post("/api/request-reset", "", map[string]string{"email": uniqueEmail()})
	assert.Equal(suite.T(), http.StatusOK, code)
	assert.NotContains(suite.T(), body, "token")
	assert.NotEmpty(suite.T(), body["message"])
}

// TestE2ESuite runs the end-to-end test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
