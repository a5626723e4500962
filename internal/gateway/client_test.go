package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightowl-sec/vantage/pkg/models"
)

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Token() (string, bool) {
	return f.token, f.token != ""
}

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := models.APIConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}
	return NewClient(cfg, tokens, nil), srv
}

func TestLogin_ReturnsAccessToken(t *testing.T) {
	var gotBody models.AuthRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Empty(t, r.Header.Get("Authorization"), "login is unauthenticated")

		json.NewEncoder(w).Encode(models.AuthResponse{AccessToken: "tok-xyz", TokenType: "bearer"})
	})

	c, _ := newTestClient(t, handler, &fakeTokens{})

	tok, err := c.Login(context.Background(), "op@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", tok)
	assert.Equal(t, "op@example.com", gotBody.Email)
}

func TestLogin_InvalidCredentialsShape(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler(), &fakeTokens{})

	_, err := c.Login(context.Background(), "not-an-email", "pw")
	require.Error(t, err)
	assert.True(t, IsValidation(err), "local validation failures are validation errors")
}

func TestAuthedRequest_CarriesBearerToken(t *testing.T) {
	tokens := &fakeTokens{token: "tok-live"}
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Target{})
	})

	c, _ := newTestClient(t, handler, tokens)

	_, err := c.ListTargets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-live", gotAuth)

	// After logout the very next request goes out bare.
	tokens.token = ""
	_, err = c.ListTargets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		detail string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 is auth",
			status: http.StatusUnauthorized,
			detail: "Could not validate credentials",
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuth(err))
			},
		},
		{
			name:   "403 is auth",
			status: http.StatusForbidden,
			detail: "Not enough privileges",
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuth(err))
			},
		},
		{
			name:   "422 is validation with verbatim detail",
			status: http.StatusUnprocessableEntity,
			detail: "Target with this name already exists",
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "Target with this name already exists", apiErr.Message)
			},
		},
		{
			name:   "500 is server",
			status: http.StatusInternalServerError,
			detail: "internal error",
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, ErrServer, apiErr.Kind)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]string{"detail": tc.detail})
			})
			c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

			_, err := c.ListScans(context.Background())
			require.Error(t, err)
			tc.check(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.HTTPStatus)
		})
	}
}

func TestStatusError_FallsBackToStatusText(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nginx</html>"))
	})
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	_, err := c.ListTargets(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestNetworkFailure_IsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := models.APIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}
	srv.Close() // connection refused from here on

	c := NewClient(cfg, &fakeTokens{token: "tok"}, nil)

	_, err := c.ListFindings(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestMalformedBody_IsDecodeKind(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	_, err := c.ListTargets(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrDecode, apiErr.Kind)
}

func TestCreateScan_PostsTargetAndModule(t *testing.T) {
	var got models.ScanCreateRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scans/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(models.Scan{ID: 7, TargetID: got.TargetID, ScanType: got.ScanType, Status: models.ScanStatusPending})
	})
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	scan, err := c.CreateScan(context.Background(), models.ScanCreateRequest{TargetID: 3, ScanType: "SUBDOMAIN"})
	require.NoError(t, err)
	assert.Equal(t, 7, scan.ID)
	assert.Equal(t, models.ScanCreateRequest{TargetID: 3, ScanType: "SUBDOMAIN"}, got)
}

func TestCreateScan_RejectsUnknownModuleLocally(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	_, err := c.CreateScan(context.Background(), models.ScanCreateRequest{TargetID: 3, ScanType: "BANANA"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.False(t, called, "invalid requests never reach the wire")
}

func TestDeleteTarget_NoContent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/targets/12", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	assert.NoError(t, c.DeleteTarget(context.Background(), 12))
}

func TestFetchReport_ReturnsRawBytes(t *testing.T) {
	payload := []byte("%PDF-1.4 fake")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/4", r.URL.Path)
		require.Equal(t, "pdf", r.URL.Query().Get("format"))
		w.Write(payload)
	})
	c, _ := newTestClient(t, handler, &fakeTokens{token: "tok"})

	data, err := c.FetchReport(context.Background(), 4, "pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = c.FetchReport(context.Background(), 4, "docx")
	assert.True(t, IsValidation(err))
}
