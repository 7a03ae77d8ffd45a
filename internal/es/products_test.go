package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.respond(w, r)
}

func (f *fakeES) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestIndex(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*ProductIndex, *fakeES) {
	t.Helper()
	fake := &fakeES{respond: respond}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &ProductIndex{Client: client, Index: "products"}, fake
}

func TestProductIndex_IndexProduct(t *testing.T) {
	t.Parallel()

	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	p := models.Product{ID: uuid.New(), Name: "Phone", Description: "Smart", Price: decimal.RequireFromString("10.5")}
	require.NoError(t, idx.IndexProduct(context.Background(), p))

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/"+p.ID.String(), req.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Phone", doc["name"])
}

func TestProductIndex_Search(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"` + id.String() + `","name":"Phone","price":"10.5"}}]}}`))
	})

	total, prods, err := idx.Search(context.Background(), "phne", 10, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, prods, 1)
	assert.Equal(t, id, prods[0].ID)
	assert.Equal(t, "Phone", prods[0].Name)

	req := fake.last()
	assert.True(t, strings.HasSuffix(req.Path, "/products/_search"), req.Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.EqualValues(t, 10, body["from"])
	assert.EqualValues(t, 5, body["size"])
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "phne", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestProductIndex_SearchError(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad query"}`))
	})

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad query")
}

func TestProductIndex_DeleteMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	id := uuid.New()
	require.NoError(t, idx.DeleteProduct(context.Background(), id))
	assert.Equal(t, http.MethodDelete, fake.last().Method)
}

func TestProductIndex_EnsureIndexCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	idx, fake := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products", req.Path)
	assert.Contains(t, req.Body, `"mappings"`)
}
