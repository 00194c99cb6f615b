package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/certs"
	"github.com/Veraticus/spice-dashboard/internal/config"
	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/testutil"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 9, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ledger := testutil.NewLedger(20000).
		Credit(day(time.January, 1), 50000, "SALARY acme").
		Credit(day(time.February, 1), 50000, "SALARY acme").
		Debit(day(time.February, 10), 30000, "RENT landlord").
		Credit(day(time.March, 1), 50000, "SALARY acme").
		Debit(day(time.March, 5), 4200, "GROCER weekly", "food").
		Debit(day(time.March, 14), 900, "SWIGGY order", "food")

	db := testutil.SetupTestDB(t, &model.Snapshot{
		Transactions: ledger.Build(),
		Tags:         []model.Tag{{ID: "food", Name: "Food"}},
		Budgets:      []model.Budget{{TagID: "food", Period: "2024-03", MonthlyLimit: 6000}},
		Limits:       []model.SpendingLimit{{Type: model.LimitMerchant, TargetID: "swiggy", Limit: 1000, IsActive: true}},
		Goals: []model.SavingsGoal{{
			ID:           "car",
			Name:         "Car",
			TargetAmount: 200000,
			CreatedAt:    day(time.January, 1),
			Deadline:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	})

	settings := config.DefaultAnalytics()
	settings.Location = time.UTC
	e := engine.New(db.Storage, settings, engine.WithClock(func() time.Time { return now }))

	srv := httptest.NewServer(NewServer(e).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, wantStatus, resp.StatusCode, path)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]any
	getJSON(t, srv, "/api/health", http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestReports(t *testing.T) {
	srv := newTestServer(t)

	var monthly struct {
		Summary struct {
			TotalIncome   float64 `json:"totalIncome"`
			TotalExpenses float64 `json:"totalExpenses"`
		} `json:"summary"`
	}
	getJSON(t, srv, "/api/reports/monthly/2024/3", http.StatusOK, &monthly)
	assert.Equal(t, 50000.0, monthly.Summary.TotalIncome)
	assert.Equal(t, 5100.0, monthly.Summary.TotalExpenses)

	var yearly struct {
		Months []any `json:"months"`
	}
	getJSON(t, srv, "/api/reports/yearly/2024", http.StatusOK, &yearly)
	assert.Len(t, yearly.Months, 3)

	t.Run("csv", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/reports/monthly/2024/3?format=csv")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	})

	t.Run("invalid", func(t *testing.T) {
		var e errorResponse
		getJSON(t, srv, "/api/reports/monthly/2024/13", http.StatusBadRequest, &e)
		assert.Equal(t, "Month must be between 1 and 12", e.Error)

		getJSON(t, srv, "/api/reports/yearly/abc", http.StatusBadRequest, &e)
		assert.Contains(t, e.Error, "year must be a number")
	})
}

func TestForecasting(t *testing.T) {
	srv := newTestServer(t)

	var f struct {
		DaysAhead int `json:"daysAhead"`
	}
	getJSON(t, srv, "/api/forecast", http.StatusOK, &f)
	assert.Equal(t, 16, f.DaysAhead)

	getJSON(t, srv, "/api/forecast?until=2024-03-25", http.StatusOK, &f)
	assert.Equal(t, 10, f.DaysAhead)

	var e errorResponse
	getJSON(t, srv, "/api/forecast?until=25-03-2024", http.StatusBadRequest, &e)

	var p struct {
		HorizonDays int `json:"horizonDays"`
	}
	getJSON(t, srv, "/api/cashflow?days=30", http.StatusOK, &p)
	assert.Equal(t, 30, p.HorizonDays)
	getJSON(t, srv, "/api/cashflow?days=0", http.StatusBadRequest, &e)

	var recurring []any
	getJSON(t, srv, "/api/recurring", http.StatusOK, &recurring)
	assert.Empty(t, recurring)
}

func TestBudgetsAndLimits(t *testing.T) {
	srv := newTestServer(t)

	var statuses []struct {
		Status       string  `json:"status"`
		CurrentSpend float64 `json:"currentSpend"`
	}
	getJSON(t, srv, "/api/budgets", http.StatusOK, &statuses)
	require.Len(t, statuses, 1)
	assert.Equal(t, "warning", statuses[0].Status)
	assert.Equal(t, 5100.0, statuses[0].CurrentSpend)

	getJSON(t, srv, "/api/budgets?period=2024-04", http.StatusOK, &statuses)
	assert.Empty(t, statuses)

	var e errorResponse
	getJSON(t, srv, "/api/budgets?period=March", http.StatusBadRequest, &e)

	var limits []struct {
		CurrentSpend float64 `json:"currentSpend"`
	}
	getJSON(t, srv, "/api/limits", http.StatusOK, &limits)
	require.Len(t, limits, 1)
	assert.Equal(t, 900.0, limits[0].CurrentSpend)
}

func TestCheckTransaction(t *testing.T) {
	srv := newTestServer(t)

	post := func(body string) (*http.Response, checkResponse) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
			srv.URL+"/api/limits/check", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out checkResponse
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		}
		return resp, out
	}

	resp, out := post(`{"amount": 250, "details": "SWIGGY dinner"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.Allowed)
	require.Len(t, out.Breaches, 1)
	assert.Equal(t, 150.0, out.Breaches[0].Overage)

	resp, out = post(`{"amount": 50, "details": "SWIGGY"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Allowed)
	assert.NotNil(t, out.Breaches)

	resp, _ = post(`{"amount": -5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGoals(t *testing.T) {
	srv := newTestServer(t)

	var progress []struct {
		Goal struct {
			Name string `json:"name"`
		} `json:"goal"`
	}
	getJSON(t, srv, "/api/goals", http.StatusOK, &progress)
	require.Len(t, progress, 1)
	assert.Equal(t, "Car", progress[0].Goal.Name)

	var proj struct {
		SavingsRate float64 `json:"savingsRate"`
		Reachable   bool    `json:"reachable"`
	}
	getJSON(t, srv, "/api/goals/car/whatif?rate=50", http.StatusOK, &proj)
	assert.Equal(t, 50.0, proj.SavingsRate)
	assert.True(t, proj.Reachable)

	var e errorResponse
	getJSON(t, srv, "/api/goals/missing/whatif?rate=50", http.StatusNotFound, &e)
	getJSON(t, srv, "/api/goals/car/whatif?rate=150", http.StatusBadRequest, &e)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	settings := config.DefaultAnalytics()
	s := NewServer(engine.New(nil, settings))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServeTLS_ServesHealth(t *testing.T) {
	tlsConfig, err := certs.NewStore(t.TempDir()).TLSConfig()
	require.NoError(t, err)

	settings := config.DefaultAnalytics()
	s := NewServer(engine.New(nil, settings))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServeTLS(ctx, addr, tlsConfig) }()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed test certificate
	}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("https://" + addr + "/api/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
