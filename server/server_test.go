package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cst "wuyrush.io/chronos/constants"
)

func setupTestServer(t *testing.T, seed bool) *chronosServer {
	gin.SetMode(gin.TestMode)
	viper.Reset()
	setDefaults()
	viper.Set(cst.EnvSeed, seed)
	viper.Set(cst.EnvOracleAPIKey, "")
	viper.Set(cst.EnvSessionSecret, "fakeSecretfakeSecretfakeSecret32")
	svr, err := setup()
	require.NoError(t, err)
	t.Cleanup(svr.Close)
	return svr
}

func TestDispatchByMethod(t *testing.T) {
	svr := setupTestServer(t, true)
	tcs := []struct {
		name         string
		method, path string
		expectedCode int
	}{
		{name: "ReadHealthz", method: http.MethodGet, path: "/healthz", expectedCode: http.StatusOK},
		{name: "ReadMetrics", method: http.MethodGet, path: "/metrics", expectedCode: http.StatusOK},
		{name: "ReadTimeline", method: http.MethodGet, path: "/timeline", expectedCode: http.StatusOK},
		{name: "WriteOverview", method: http.MethodPost, path: "/timeline/overview", expectedCode: http.StatusOK},
		{name: "WriteUnknown", method: http.MethodPost, path: "/healthz", expectedCode: http.StatusNotFound},
		{name: "ReadUnknown", method: http.MethodGet, path: "/nowhere", expectedCode: http.StatusNotFound},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			wrec := httptest.NewRecorder()
			svr.ServeHTTP(wrec, httptest.NewRequest(c.method, c.path, nil))
			assert.Equal(t, c.expectedCode, wrec.Code)
		})
	}
}

func TestSeedToggle(t *testing.T) {
	assert.Len(t, setupTestServer(t, true).Reader.Capsules.List(), 3)
	assert.Empty(t, setupTestServer(t, false).Reader.Capsules.List())
}

// a silent oracle still answers, and both routers see the same visitor state
func TestSummaryWithoutAPIKey(t *testing.T) {
	svr := setupTestServer(t, true)
	wrec := httptest.NewRecorder()
	svr.ServeHTTP(wrec, httptest.NewRequest(http.MethodPost, "/timeline/years/1969", nil))
	require.Equal(t, http.StatusOK, wrec.Code)
	cookies := wrec.Result().Cookies()
	require.NotEmpty(t, cookies)

	r := httptest.NewRequest(http.MethodPost, "/timeline/months/7", nil)
	r.AddCookie(cookies[0])
	wrec = httptest.NewRecorder()
	svr.ServeHTTP(wrec, r)
	require.Equal(t, http.StatusOK, wrec.Code)
	assert.Contains(t, wrec.Body.String(), "The stars are silent today...")

	r = httptest.NewRequest(http.MethodGet, "/timeline", nil)
	r.AddCookie(wrec.Result().Cookies()[0])
	wrec = httptest.NewRecorder()
	svr.ServeHTTP(wrec, r)
	require.Equal(t, http.StatusOK, wrec.Code)
	assert.Contains(t, wrec.Body.String(), `"level":"MONTH_DETAIL"`)
	assert.Contains(t, wrec.Body.String(), "The stars are silent today...")
}
