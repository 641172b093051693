package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/duolingo"
	"github.com/comitanigiacomo/duo-sync-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/duo-sync-engine/internal/config"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
)

const apiToken = "e2e-token"

func fakeDuolingo(t *testing.T) string {
	t.Helper()
	r := gin.New()

	r.GET("/2017-06-30/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": []gin.H{{"id": 7, "username": "learner", "siteStreak": 12}}})
	})
	r.GET("/2017-06-30/users/7/xp_summaries", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"summaries": []gin.H{
			{"date": "2024/06/03", "gainedXp": 30, "numSessions": 2, "totalSessionTime": 420},
			{"date": "2024/06/01", "gainedXp": 10, "numSessions": 1, "totalSessionTime": 120},
		}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestEndToEnd_SyncLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(apiToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Username:      "learner",
		Credential:    config.Bearer{Token: "remote-jwt"},
		Location:      time.UTC,
		ProgressKey:   "duolingo-progress.json",
		StatisticsKey: "statistics.json",
		Store:         config.StoreConfig{Backend: config.BackendMemory},
		Server:        config.ServerConfig{APITokenHash: string(hash)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := repository.OpenStores(ctx, cfg)
	require.NoError(t, err)

	client := duolingo.NewClient(duolingo.Options{BaseURL: fakeDuolingo(t), Location: time.UTC})
	a := newApp(cfg, stores, client, time.Now())
	require.NotNil(t, a.worker)
	a.worker.Start(ctx)

	do := func(method, path string, auth bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if auth {
			req.Header.Set("Authorization", "Bearer "+apiToken)
		}
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		return w
	}

	t.Run("1. History starts empty", func(t *testing.T) {
		w := do(http.MethodGet, "/api/v1/progress", false)
		require.Equal(t, http.StatusOK, w.Code)

		var report domain.ProgressReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Empty(t, report.Days)
	})

	t.Run("2. Sync requires the api token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/v1/sync", false).Code)
	})

	t.Run("3. Trigger sync", func(t *testing.T) {
		assert.Equal(t, http.StatusAccepted, do(http.MethodPost, "/api/v1/sync", true).Code)

		assert.Eventually(t, func() bool {
			return a.worker.Status().LastRunID != ""
		}, 5*time.Second, 20*time.Millisecond)
		assert.Empty(t, a.worker.Status().LastError)
	})

	t.Run("4. Reconciled history is served", func(t *testing.T) {
		w := do(http.MethodGet, "/api/v1/progress?from=2024/06/01&to=2024/06/03", false)
		require.Equal(t, http.StatusOK, w.Code)

		var report domain.ProgressReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		require.Len(t, report.Days, 3)

		assert.Equal(t, "2024/06/02", report.Days[1].Date, "Gap day is filled")
		assert.True(t, report.Days[1].IsPlaceholder())
		assert.Equal(t, 12, report.Days[2].Streak, "Today carries the current streak")
		assert.Equal(t, 40, report.TotalXP)
	})

	t.Run("5. Single day and statistics", func(t *testing.T) {
		w := do(http.MethodGet, "/api/v1/progress/2024-06-03", false)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"xp_today":30`)

		w = do(http.MethodGet, "/api/v1/statistics", false)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, "{}", w.Body.String())
	})

	t.Run("6. Health", func(t *testing.T) {
		w := do(http.MethodGet, "/health", false)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestNewApp_WithoutAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}
	stores, err := repository.OpenStores(context.Background(), cfg)
	require.NoError(t, err)

	a := newApp(cfg, stores, nil, time.Now())
	assert.Nil(t, a.worker)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
