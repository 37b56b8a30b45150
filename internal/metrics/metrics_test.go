package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, reg)

	m.Submission(0, OutcomeSent)
	m.Submission(0, OutcomeSent)
	m.Submission(1, OutcomeRejected)
	m.Mail("admin", nil)
	m.Mail("confirmation", errors.New("relay down"))
	m.Advisory("status")
	m.CacheFilesRemoved(3)

	body := scrape(t, m)
	assert.Contains(t, body, `formicula_submissions_total{form="0",outcome="sent"} 2`)
	assert.Contains(t, body, `formicula_submissions_total{form="1",outcome="rejected"} 1`)
	assert.Contains(t, body, `formicula_mails_total{kind="admin",outcome="sent"} 1`)
	assert.Contains(t, body, `formicula_mails_total{kind="confirmation",outcome="failed"} 1`)
	assert.Contains(t, body, `formicula_advisories_total{type="status"} 1`)
	assert.Contains(t, body, `formicula_captcha_cache_files_removed_total 3`)
}

func TestMetrics_DefaultRegistryIncludesRuntimeCollectors(t *testing.T) {
	m := New()
	m.Submission(2, OutcomeStored)

	body := scrape(t, m)
	assert.Contains(t, body, `formicula_submissions_total{form="2",outcome="stored"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
