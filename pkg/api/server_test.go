package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tssouza/cnpjgraph/pkg/expand"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

type fakeAdjacency struct {
	links map[identity.Key][]store.Link
	err   error
}

func (f *fakeAdjacency) Neighbors(_ context.Context, key identity.Key) ([]store.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links[key], nil
}

var (
	testCompany = identity.CompanyKey("00000000000001")
	testPartner = identity.PersonKey("11122233344", "SOCIO SANCIONADO")
)

func newTestServer(t *testing.T, adjacency *fakeAdjacency) *Server {
	t.Helper()
	engine := expand.NewEngine(adjacency, nil, nil, expand.Budget{MaxLayers: 10})
	return NewServer(identity.NewResolver(nil), engine, 0, Options{
		Reference: map[string]string{"referencia": "2026-06"},
		Version:   "test",
	})
}

func defaultAdjacency() *fakeAdjacency {
	return &fakeAdjacency{links: map[identity.Key][]store.Link{
		testCompany: {{Label: "socio", Neighbor: testPartner, Forward: true}},
	}}
}

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	rec := doRequest(t, s, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "2026-06", resp.Reference["referencia"])
}

func TestGraphPost(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	// Punctuated form of 00000000000001 (root 00.000.000, order 0000, check 01).
	body := bytes.NewBufferString(`{"ids":"00.000.000/0000-01","layers":1}`)
	rec := doRequest(t, s, http.MethodPost, "/graph", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc expand.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "PJ_00000000000001", doc.Edges[0].From)
	assert.Equal(t, "socio", doc.Edges[0].Relation)
}

func TestGraphGetPath(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	rec := doRequest(t, s, http.MethodGet, "/graph/1/PJ_00000000000001", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc expand.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Nodes, 2)
}

func TestGraphMultipleSeeds(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	body := bytes.NewBufferString(`{"ids":"00000000000001;PF_11122233344-SOCIO SANCIONADO","layers":0}`)
	rec := doRequest(t, s, http.MethodPost, "/graph", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc expand.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Empty(t, doc.Edges)
}

func TestGraphInvalidSeedBecomesWarning(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	body := bytes.NewBufferString(`{"ids":"00000000000001;123","layers":1}`)
	rec := doRequest(t, s, http.MethodPost, "/graph", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc expand.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Nodes, 2, "valid seed still traversed")
	require.NotEmpty(t, doc.Warnings)
	assert.Contains(t, doc.Warnings[0], "invalid identifier")
}

func TestGraphNoSeeds(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	body := bytes.NewBufferString(`{"ids":"  ; ","layers":1}`)
	rec := doRequest(t, s, http.MethodPost, "/graph", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphBadLayerSegment(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	rec := doRequest(t, s, http.MethodGet, "/graph/abc/PJ_00000000000001", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphStoreUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeAdjacency{
		err: fmt.Errorf("querying links: %w", store.ErrStoreUnavailable),
	})
	body := bytes.NewBufferString(`{"ids":"00000000000001","layers":1}`)
	rec := doRequest(t, s, http.MethodPost, "/graph", body)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestGraphMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())
	rec := doRequest(t, s, http.MethodDelete, "/graph", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(RequestIDHeader))
}

func TestBodySizeLimit(t *testing.T) {
	engine := expand.NewEngine(defaultAdjacency(), nil, nil, expand.Budget{MaxLayers: 10})
	s := NewServer(identity.NewResolver(nil), engine, 0, Options{MaxBodyBytes: 64})

	big := fmt.Sprintf(`{"ids":%q,"layers":1}`, strings.Repeat("0", 200))
	rec := doRequest(t, s, http.MethodPost, "/graph", bytes.NewBufferString(big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, defaultAdjacency())

	// Generate one request so counters exist, then scrape.
	doRequest(t, s, http.MethodGet, "/health", nil)
	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cnpjgraph_http_requests_total")
}
