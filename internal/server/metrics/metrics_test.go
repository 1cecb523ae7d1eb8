package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/tokens"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ tokens.Recorder = (*Metrics)(nil)

func TestCounters(t *testing.T) {
	m := New()

	m.Issued(models.AccessToken)
	m.Issued(models.AccessToken)
	m.Issued(models.RefreshToken)
	m.Rotated()
	m.Replayed()
	m.Replayed()
	m.Revoked()
	m.ObserveRPC("/sessionkeeper.AuthService/Login", "OK")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issued.WithLabelValues("access")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issued.WithLabelValues("refresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rotations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.replays))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.revocations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcs.WithLabelValues("/sessionkeeper.AuthService/Login", "OK")))
}

func TestHandler_ExposesTextFormat(t *testing.T) {
	m := New()
	m.Rotated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "sessionkeeper_refresh_rotations_total 1"), string(body))
}
