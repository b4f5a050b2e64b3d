package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shipost/wallet-ledger/internal/adapter/http/middleware"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDebits_NoDoubleSpend fires two simultaneous debits that each
// consume the full balance. The transaction around lock-check-write must let
// exactly one through; the other sees the drained balance and fails.
func TestConcurrentDebits_NoDoubleSpend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	accountID := uuid.New().String()
	write := app.token(t, middleware.ScopeWrite)
	read := app.token(t, middleware.ScopeRead)

	code, _ := app.do(t, "POST", "/api/v1/accounts/"+accountID+"/credit", write,
		`{"amount":10000,"description":"recharge"}`, nil)
	require.Equal(t, http.StatusCreated, code)

	var succeeded, insufficient int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			status, _ := app.do(t, "POST", "/api/v1/accounts/"+accountID+"/debit", write,
				`{"amount":10000,"description":"full drain"}`, nil)
			switch status {
			case http.StatusCreated:
				atomic.AddInt32(&succeeded, 1)
			case http.StatusPaymentRequired:
				atomic.AddInt32(&insufficient, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded)
	assert.Equal(t, int32(1), insufficient)

	code, body := app.do(t, "GET", "/api/v1/accounts/"+accountID+"/balance", read, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), data(body)["balance"])
}

// TestConcurrentMutations_LogConsistent hammers one account with parallel
// credits and debits, then verifies the stored balance, lifetime counters,
// and entry log all agree via the reconciliation endpoint.
func TestConcurrentMutations_LogConsistent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	accountID := uuid.New().String()
	write := app.token(t, middleware.ScopeWrite)
	admin := app.token(t, middleware.ScopeAdmin)

	// Seed enough that every debit can succeed regardless of ordering.
	code, _ := app.do(t, "POST", "/api/v1/accounts/"+accountID+"/credit", write,
		`{"amount":1000000,"description":"seed recharge"}`, nil)
	require.Equal(t, http.StatusCreated, code)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var status int
			if n%2 == 0 {
				status, _ = app.do(t, "POST", "/api/v1/accounts/"+accountID+"/credit", write,
					fmt.Sprintf(`{"amount":%d,"description":"concurrent credit"}`, 1000+n), nil)
			} else {
				status, _ = app.do(t, "POST", "/api/v1/accounts/"+accountID+"/debit", write,
					fmt.Sprintf(`{"amount":%d,"description":"concurrent debit"}`, 1000+n), nil)
			}
			assert.Equal(t, http.StatusCreated, status)
		}(i)
	}
	wg.Wait()

	code, body := app.do(t, "GET", "/api/v1/admin/accounts/"+accountID+"/reconciliation", admin, "", nil)
	require.Equal(t, http.StatusOK, code)
	d := data(body)
	assert.Empty(t, d["discrepancies"])
	assert.Equal(t, float64(workers+1), d["entry_count"])
}
