// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "parkledger/internal"
	"parkledger/internal/domain"
)

// These tests exercise the full stack against a real PostgreSQL instance and
// only run when INTEGRATION_TEST is set. Point DB_NAME at a disposable test
// database; every test truncates the tables it touches.
var (
	testApp    *app.Application
	testServer *httptest.Server
)

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		fmt.Println("INTEGRATION_TEST not set; skipping API integration tests")
		os.Exit(0)
	}
	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	code := m.Run()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

func setupEnvVars() {
	if os.Getenv("DB_HOST") == "" {
		os.Setenv("DB_HOST", "localhost")
	}
	if os.Getenv("DB_PORT") == "" {
		os.Setenv("DB_PORT", "5432")
	}
	if os.Getenv("DB_USER") == "" {
		os.Setenv("DB_USER", "user")
	}
	if os.Getenv("DB_PASSWORD") == "" {
		os.Setenv("DB_PASSWORD", "password")
	}
	if os.Getenv("DB_NAME") == "" {
		os.Setenv("DB_NAME", "parkledger_test")
	}
	if os.Getenv("DB_SSLMODE") == "" {
		os.Setenv("DB_SSLMODE", "disable")
	}
}

func clearDatabase(t *testing.T) {
	tables := []string{"wallet_transactions", "parking_sessions", "default_pricing_rules", "pricing_rules", "wallets"}
	for _, table := range tables {
		_, err := testApp.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", table))
		require.NoError(t, err, "Failed to truncate table %s", table)
	}
}

func createTestWallet(t *testing.T, userID int64, currency string, balance decimal.Decimal) int64 {
	wallet := domain.NewWallet(userID, currency)
	err := testApp.WalletRepository.CreateWallet(context.Background(), testApp.DB, wallet)
	require.NoError(t, err)

	_, err = testApp.DB.ExecContext(context.Background(), "UPDATE wallets SET balance = $1 WHERE id = $2", balance, wallet.ID)
	require.NoError(t, err)
	return wallet.ID
}

// seedDefaultRule installs a CAR rule for the lot: base rate 10/h blocks,
// initial charge 5, 15 free minutes, 10 grace minutes.
func seedDefaultRule(t *testing.T, lotID int64) int64 {
	var ruleID int64
	err := testApp.DB.QueryRowContext(context.Background(), `
		INSERT INTO pricing_rules
			(vehicle_type, currency, base_rate, deposit_fee, initial_charge,
			 initial_duration_minutes, free_minutes, grace_period_minutes,
			 is_active, valid_from, valid_until, created_at, updated_at)
		VALUES ('CAR', 'USD', 10, 0, 5, 60, 15, 10, TRUE,
			NOW() - INTERVAL '1 day', NOW() + INTERVAL '1 day', NOW(), NOW())
		RETURNING id`).Scan(&ruleID)
	require.NoError(t, err)

	_, err = testApp.DB.ExecContext(context.Background(),
		`INSERT INTO default_pricing_rules (lot_id, vehicle_type, pricing_rule_id) VALUES ($1, 'CAR', $2)`,
		lotID, ruleID)
	require.NoError(t, err)
	return ruleID
}

func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func decodeJSON(t *testing.T, body string) map[string]interface{} {
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func TestTopUpIntegration(t *testing.T) {
	clearDatabase(t)
	createTestWallet(t, 42, "USD", decimal.NewFromInt(100))

	t.Run("SuccessfulTopUp", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/wallets/42/topup", strings.NewReader(`{"amount": "100.00", "currency": "USD"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		responseMap := decodeJSON(t, body)
		assert.Equal(t, "Top-up successful", responseMap["message"])
		newBalance, err := decimal.NewFromString(responseMap["new_balance"].(string))
		require.NoError(t, err)
		assert.True(t, newBalance.Equal(decimal.NewFromInt(200)))
		assert.NotEmpty(t, responseMap["external_transaction_id"])
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/wallets/42/topup", strings.NewReader(`{"amount": "-10.00", "currency": "USD"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "invalid input provided")
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/wallets/42/topup", strings.NewReader(`{"amount": "10.00", "currency": "EUR"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", "/wallets/9999/topup", strings.NewReader(`{"amount": "10.00", "currency": "USD"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSessionLifecycleIntegration(t *testing.T) {
	clearDatabase(t)
	seedDefaultRule(t, 9)
	createTestWallet(t, 42, "USD", decimal.NewFromInt(500))

	entry := time.Now().UTC().Add(-80 * time.Minute)

	// Entry
	entryBody := fmt.Sprintf(`{"user_id": 42, "vehicle_id": "AB-123-CD", "vehicle_type": "CAR", "lot_id": 9, "entry_time": %q}`,
		entry.Format(time.RFC3339Nano))
	resp, body := makeRequest(t, "POST", "/sessions", strings.NewReader(entryBody))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	sessionID := decodeJSON(t, body)["id"].(string)
	require.NotEmpty(t, sessionID)

	// The gate lookup resolves the open session.
	respLookup, bodyLookup := makeRequest(t, "GET", "/lots/9/vehicles/AB-123-CD/session", nil)
	defer respLookup.Body.Close()
	assert.Equal(t, http.StatusOK, respLookup.StatusCode)
	assert.Equal(t, sessionID, decodeJSON(t, bodyLookup)["id"])

	// A second entry for the same plate is rejected while the session is open.
	respDup, _ := makeRequest(t, "POST", "/sessions", strings.NewReader(entryBody))
	defer respDup.Body.Close()
	assert.Equal(t, http.StatusBadRequest, respDup.StatusCode)

	// Exit
	respExit, bodyExit := makeRequest(t, "POST", "/sessions/"+sessionID+"/exit", strings.NewReader(`{}`))
	defer respExit.Body.Close()
	require.Equal(t, http.StatusOK, respExit.StatusCode, bodyExit)
	assert.Equal(t, "CLOSED", decodeJSON(t, bodyExit)["status"])

	// Settle: 80 minutes under the seeded rule is one block plus the initial
	// charge, 15 USD.
	respSettle, bodySettle := makeRequest(t, "POST", "/sessions/"+sessionID+"/settle", nil)
	defer respSettle.Body.Close()
	require.Equal(t, http.StatusOK, respSettle.StatusCode, bodySettle)
	settleMap := decodeJSON(t, bodySettle)
	assert.Equal(t, "SETTLED", settleMap["status"])
	amount, err := decimal.NewFromString(settleMap["amount"].(string))
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(15)), "amount %s", amount)
	firstTransactionID := settleMap["transaction_id"]
	require.NotNil(t, firstTransactionID)

	// Settling again replays the stored result without a second charge.
	respReplay, bodyReplay := makeRequest(t, "POST", "/sessions/"+sessionID+"/settle", nil)
	defer respReplay.Body.Close()
	require.Equal(t, http.StatusOK, respReplay.StatusCode)
	replayMap := decodeJSON(t, bodyReplay)
	assert.Equal(t, "SETTLED", replayMap["status"])
	assert.Equal(t, firstTransactionID, replayMap["transaction_id"])

	// The wallet was debited exactly once.
	respWallet, bodyWallet := makeRequest(t, "GET", "/wallets/42", nil)
	defer respWallet.Body.Close()
	require.Equal(t, http.StatusOK, respWallet.StatusCode)
	balance, err := decimal.NewFromString(decodeJSON(t, bodyWallet)["balance"].(string))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(485)), "balance %s", balance)

	// And exactly one deduction is on the statement.
	respStatement, bodyStatement := makeRequest(t, "GET", "/wallets/42/transactions?limit=10&offset=0", nil)
	defer respStatement.Body.Close()
	require.Equal(t, http.StatusOK, respStatement.StatusCode)
	statementMap := decodeJSON(t, bodyStatement)
	transactions := statementMap["data"].([]interface{})
	require.Len(t, transactions, 1)
	first := transactions[0].(map[string]interface{})
	assert.Equal(t, "DEDUCTION", first["type"])
	assert.Equal(t, sessionID, first["external_transaction_id"])
}

func TestSettlementFailureIntegration(t *testing.T) {
	clearDatabase(t)
	seedDefaultRule(t, 9)
	createTestWallet(t, 42, "USD", decimal.NewFromInt(1))

	entry := time.Now().UTC().Add(-3 * time.Hour)
	entryBody := fmt.Sprintf(`{"user_id": 42, "vehicle_id": "AB-123-CD", "vehicle_type": "CAR", "lot_id": 9, "entry_time": %q}`,
		entry.Format(time.RFC3339Nano))
	resp, body := makeRequest(t, "POST", "/sessions", strings.NewReader(entryBody))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	sessionID := decodeJSON(t, body)["id"].(string)

	respExit, _ := makeRequest(t, "POST", "/sessions/"+sessionID+"/exit", strings.NewReader(`{}`))
	defer respExit.Body.Close()
	require.Equal(t, http.StatusOK, respExit.StatusCode)

	// The wallet cannot cover the charge; the session lands in
	// SETTLEMENT_FAILED with the owed amount recorded.
	respSettle, bodySettle := makeRequest(t, "POST", "/sessions/"+sessionID+"/settle", nil)
	defer respSettle.Body.Close()
	require.Equal(t, http.StatusOK, respSettle.StatusCode, bodySettle)
	settleMap := decodeJSON(t, bodySettle)
	assert.Equal(t, "SETTLEMENT_FAILED", settleMap["status"])
	assert.Equal(t, "INSUFFICIENT_BALANCE", settleMap["reason"])

	// The failed state is terminal for the settle endpoint.
	respAgain, _ := makeRequest(t, "POST", "/sessions/"+sessionID+"/settle", nil)
	defer respAgain.Body.Close()
	assert.Equal(t, http.StatusConflict, respAgain.StatusCode)

	// No money moved.
	respWallet, bodyWallet := makeRequest(t, "GET", "/wallets/42", nil)
	defer respWallet.Body.Close()
	balance, err := decimal.NewFromString(decodeJSON(t, bodyWallet)["balance"].(string))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1)))

	// The session records the owed amount for manual collection.
	respSession, bodySession := makeRequest(t, "GET", "/sessions/"+sessionID, nil)
	defer respSession.Body.Close()
	sessionMap := decodeJSON(t, bodySession)
	assert.Equal(t, "SETTLEMENT_FAILED", sessionMap["status"])
	assert.Equal(t, "INSUFFICIENT_BALANCE", sessionMap["failure_reason"])
}

func TestFreeStaySettlesToZeroIntegration(t *testing.T) {
	clearDatabase(t)
	seedDefaultRule(t, 9)
	createTestWallet(t, 42, "USD", decimal.NewFromInt(100))

	entry := time.Now().UTC().Add(-10 * time.Minute)
	entryBody := fmt.Sprintf(`{"user_id": 42, "vehicle_id": "AB-123-CD", "vehicle_type": "CAR", "lot_id": 9, "entry_time": %q}`,
		entry.Format(time.RFC3339Nano))
	resp, body := makeRequest(t, "POST", "/sessions", strings.NewReader(entryBody))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	sessionID := decodeJSON(t, body)["id"].(string)

	respExit, _ := makeRequest(t, "POST", "/sessions/"+sessionID+"/exit", strings.NewReader(`{}`))
	defer respExit.Body.Close()
	require.Equal(t, http.StatusOK, respExit.StatusCode)

	respSettle, bodySettle := makeRequest(t, "POST", "/sessions/"+sessionID+"/settle", nil)
	defer respSettle.Body.Close()
	require.Equal(t, http.StatusOK, respSettle.StatusCode)
	settleMap := decodeJSON(t, bodySettle)
	assert.Equal(t, "SETTLED", settleMap["status"])
	amount, err := decimal.NewFromString(settleMap["amount"].(string))
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
	assert.Nil(t, settleMap["transaction_id"])

	// No ledger record exists for a free stay.
	respStatement, bodyStatement := makeRequest(t, "GET", "/wallets/42/transactions", nil)
	defer respStatement.Body.Close()
	statementMap := decodeJSON(t, bodyStatement)
	assert.Len(t, statementMap["data"], 0)
}
