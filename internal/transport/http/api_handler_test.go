package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pionia-project/pionia/internal/auth"
	"github.com/pionia-project/pionia/internal/middleware"
	"github.com/pionia-project/pionia/internal/services"
	"github.com/pionia-project/pionia/internal/shared/testutil"
)

type stubService struct {
	services.BaseService
}

func newStubService() services.Service {
	s := &stubService{BaseService: services.NewBaseService("todo")}
	s.RegisterAction("ping", func(req services.Request) (services.Response, error) {
		return services.OK("pong", req.Data), nil
	})
	s.RegisterAction("upload", func(req services.Request) (services.Response, error) {
		return services.OK("received", map[string]any{
			"fields": req.Data,
			"files":  len(req.Files["attachment"]),
		}), nil
	})
	s.RegisterAction("retired", func(req services.Request) (services.Response, error) {
		return services.OK("unreachable", nil), nil
	})
	s.DeactivateActions("retired")
	return s
}

func newLockedService() services.Service {
	s := &stubService{BaseService: services.NewBaseService("locked")}
	s.SetRequiresAuth(true)
	s.RegisterAction("read", func(req services.Request) (services.Response, error) {
		return services.OK("secret data", nil), nil
	})
	return s
}

func newTestAPIHandler(t *testing.T) *APIHandler {
	t.Helper()
	registry := services.NewRegistry()
	registry.MustRegister("todo", newStubService)
	registry.MustRegister("locked", newLockedService)
	logger, _ := testutil.NewTestLogger(t)
	dispatcher := services.NewDispatcher(registry, auth.NewGuard(), logger)
	return NewAPIHandler(dispatcher, registry, logger, 0)
}

func postJSON(t *testing.T, handler *APIHandler, body string, identity *auth.Identity) (*httptest.ResponseRecorder, services.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	var resp services.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestDispatchEndpoint(t *testing.T) {
	handler := newTestAPIHandler(t)

	t.Run("success is return code zero over HTTP 200", func(t *testing.T) {
		rec, resp := postJSON(t, handler, `{"service":"todo","action":"ping","title":"x"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, resp.ReturnCode)
		assert.Equal(t, "pong", resp.Message)
	})

	t.Run("unknown service is 404 in the envelope, HTTP stays 200", func(t *testing.T) {
		rec, resp := postJSON(t, handler, `{"service":"ghost","action":"ping"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusNotFound, resp.ReturnCode)
	})

	t.Run("deactivated action reports not found", func(t *testing.T) {
		_, resp := postJSON(t, handler, `{"service":"todo","action":"retired"}`, nil)
		assert.Equal(t, http.StatusNotFound, resp.ReturnCode)
	})

	t.Run("auth-required service blocks anonymous callers", func(t *testing.T) {
		rec, resp := postJSON(t, handler, `{"service":"locked","action":"read"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, resp.ReturnCode)
		assert.Contains(t, resp.Message, "requires authentication")
	})

	t.Run("authenticated caller passes", func(t *testing.T) {
		_, resp := postJSON(t, handler, `{"service":"locked","action":"read"}`, auth.NewIdentity("alice"))
		assert.Zero(t, resp.ReturnCode)
		assert.Equal(t, "secret data", resp.Message)
	})

	t.Run("invalid JSON body fails with invalid data", func(t *testing.T) {
		_, resp := postJSON(t, handler, `{"service":`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.ReturnCode)
	})
}

func TestDispatchMultipart(t *testing.T) {
	handler := newTestAPIHandler(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("service", "todo"))
	require.NoError(t, writer.WriteField("action", "upload"))
	require.NoError(t, writer.WriteField("title", "report"))
	part, err := writer.CreateFormFile("attachment", "report.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	var resp services.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.ReturnCode)

	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 1, data["files"])
	fields := data["fields"].(map[string]any)
	assert.Equal(t, "report", fields["title"])
}

func TestListServices(t *testing.T) {
	handler := newTestAPIHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp services.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.ReturnCode)

	names := resp.Data.([]any)
	assert.ElementsMatch(t, []any{"todo", "locked"}, names)
}
