package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

type recordingService struct {
	got []query.Query
}

func (s *recordingService) Handle(_ context.Context, q query.Query) query.Response {
	s.got = append(s.got, q)
	return query.Response{
		Route:  query.RouteData,
		Answer: &query.FusedAnswer{Narrative: "ok", Sources: []query.Source{query.SourceDataStore}},
	}
}

func (s *recordingService) Status(context.Context) Status {
	return Status{Database: "ok", Table: "employees", IDColumn: "employee_id", Columns: 3}
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc, zap.NewNop()))
	return r
}

func TestHandleQuery(t *testing.T) {
	svc := &recordingService{}
	srv := httptest.NewServer(newRouter(svc))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/query", "application/json",
		strings.NewReader(`{"question": " what is my salary ", "employee_id": "E007", "role": "employee"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out query.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, query.RouteData, out.Route)
	require.NotNil(t, out.Answer)
	assert.Equal(t, "ok", out.Answer.Narrative)

	require.Len(t, svc.got, 1)
	assert.Equal(t, query.Query{Text: "what is my salary", CallerID: "E007", Role: query.RoleEmployee}, svc.got[0])
}

func TestHandleQuery_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing question", `{"role": "hr"}`},
		{"unknown role", `{"question": "x", "role": "admin"}`},
		{"employee without id", `{"question": "x", "role": "employee"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingService{}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(tt.body))

			newRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.got)
		})
	}
}

func TestHandleQuery_HRWithoutID(t *testing.T) {
	svc := &recordingService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question": "list employees", "role": "HR"}`))

	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.got, 1)
	assert.Equal(t, query.RoleHR, svc.got[0].Role)
}

func TestHandleStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&recordingService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"database":"ok","table":"employees","id_column":"employee_id","columns":3}`, rec.Body.String())
}
