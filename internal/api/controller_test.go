package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"productos/internal/api"
	"productos/internal/db/dbtest"
	"productos/internal/models"
	"productos/internal/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) http.Handler {
	return api.NewRouter(dbtest.New(t), zerolog.Nop())
}

func do(c *qt.C, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](c *qt.C, w *httptest.ResponseRecorder) T {
	var v T
	c.Assert(json.Unmarshal(w.Body.Bytes(), &v), qt.IsNil, qt.Commentf("body: %s", w.Body.String()))
	return v
}

func create(c *qt.C, h http.Handler, body string) schema.Producto {
	w := do(c, h, http.MethodPost, "/productos", body)
	c.Assert(w.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", w.Body.String()))
	return decode[schema.Producto](c, w)
}

func TestListEmpty(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	w := do(c, h, http.MethodGet, "/productos", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Content-Type"), qt.Contains, "application/json")
	c.Assert(w.Body.String(), qt.Equals, "[]")
}

func TestCreateThenGet(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	created := create(c, h, `{"nombre":"A","precio":10,"stock":5,"imagen":"a.png"}`)
	c.Assert(created.ID, qt.Not(qt.Equals), uint(0))

	w := do(c, h, http.MethodGet, fmt.Sprintf("/productos/%d", created.ID), "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Equals, fmt.Sprintf(`{"id":%d,"nombre":"A","precio":10,"stock":5,"imagen":"a.png"}`, created.ID))
}

func TestRoundTrip(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	in := map[string]any{"imagen": "https://cdn/x.jpg", "stock": 0, "nombre": "Café", "precio": 3.75}
	body, err := json.Marshal(in)
	c.Assert(err, qt.IsNil)
	created := create(c, h, string(body))

	got := decode[map[string]any](c, do(c, h, http.MethodGet, fmt.Sprintf("/productos/%d", created.ID), ""))
	c.Assert(got["id"], qt.Equals, float64(created.ID))
	delete(got, "id")
	c.Assert(got, qt.DeepEquals, map[string]any{"imagen": "https://cdn/x.jpg", "stock": float64(0), "nombre": "Café", "precio": 3.75})
}

func TestListReturnsAllInIDOrder(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	a := create(c, h, `{"nombre":"A","precio":1,"stock":1,"imagen":"a.png"}`)
	b := create(c, h, `{"nombre":"B","precio":2,"stock":2,"imagen":"b.png"}`)

	items := decode[[]schema.Producto](c, do(c, h, http.MethodGet, "/productos", ""))
	c.Assert(items, qt.HasLen, 2)
	c.Assert(items[0].ID, qt.Equals, a.ID)
	c.Assert(items[1].ID, qt.Equals, b.ID)
	c.Assert(items[1].Precio.Equal(decimal.NewFromInt(2)), qt.IsTrue)
}

func TestGetMissingIsNull(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	w := do(c, h, http.MethodGet, "/productos/12345", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Equals, "null")
}

func TestUpdateOverwrites(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	p := create(c, h, `{"nombre":"A","precio":10,"stock":5,"imagen":"a.png"}`)
	path := fmt.Sprintf("/productos/%d", p.ID)

	w := do(c, h, http.MethodPut, path, `{"nombre":"B","precio":0.5,"stock":0,"imagen":"b.png"}`)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	updated := decode[schema.Producto](c, w)
	c.Assert(updated.ID, qt.Equals, p.ID)

	w = do(c, h, http.MethodGet, path, "")
	c.Assert(w.Body.String(), qt.Equals, fmt.Sprintf(`{"id":%d,"nombre":"B","precio":0.5,"stock":0,"imagen":"b.png"}`, p.ID))
}

func TestDeleteReturnsPriorState(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	keep := create(c, h, `{"nombre":"K","precio":1,"stock":1,"imagen":"k.png"}`)
	gone := create(c, h, `{"nombre":"G","precio":2,"stock":3,"imagen":"g.png"}`)
	path := fmt.Sprintf("/productos/%d", gone.ID)

	w := do(c, h, http.MethodDelete, path, "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Equals, fmt.Sprintf(`{"id":%d,"nombre":"G","precio":2,"stock":3,"imagen":"g.png"}`, gone.ID))

	items := decode[[]schema.Producto](c, do(c, h, http.MethodGet, "/productos", ""))
	c.Assert(items, qt.HasLen, 1)
	c.Assert(items[0].ID, qt.Equals, keep.ID)

	w = do(c, h, http.MethodGet, path, "")
	c.Assert(w.Body.String(), qt.Equals, "null")
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		errMsg string
	}{
		{
			name:   "update missing id",
			method: http.MethodPut,
			path:   "/productos/999",
			body:   `{"nombre":"B","precio":1,"stock":1,"imagen":"b.png"}`,
			errMsg: "updating producto 999: producto 999 not found",
		},
		{
			name:   "delete missing id",
			method: http.MethodDelete,
			path:   "/productos/999",
			errMsg: "deleting producto 999: producto 999 not found",
		},
		{
			name:   "create missing field",
			method: http.MethodPost,
			path:   "/productos",
			body:   `{"nombre":"A","precio":1,"imagen":"a.png"}`,
			errMsg: "reading producto: .*Stock.*required.*",
		},
		{
			name:   "create malformed json",
			method: http.MethodPost,
			path:   "/productos",
			body:   `{"nombre":`,
			errMsg: "reading producto: .*",
		},
		{
			name:   "update missing field",
			method: http.MethodPut,
			path:   "/productos/1",
			body:   `{"precio":1,"stock":1,"imagen":"a.png"}`,
			errMsg: "reading producto: .*Nombre.*required.*",
		},
		{
			name:   "non numeric id",
			method: http.MethodGet,
			path:   "/productos/abc",
			errMsg: `producto id "abc" not valid`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			h := newServer(t)

			w := do(c, h, tt.method, tt.path, tt.body)
			c.Assert(w.Code, qt.Equals, http.StatusInternalServerError)
			body := decode[map[string]string](c, w)
			c.Assert(body["error"], qt.Matches, tt.errMsg)

			// Nothing was fabricated.
			c.Assert(do(c, h, http.MethodGet, "/productos", "").Body.String(), qt.Equals, "[]")
		})
	}
}

type brokenStore struct{}

var errBroken = errors.New("connection reset")

func (brokenStore) All(context.Context) ([]models.Product, error) { return nil, errBroken }
func (brokenStore) Get(context.Context, uint) (*models.Product, error) { return nil, errBroken }
func (brokenStore) Create(context.Context, *models.Product) error { return errBroken }
func (brokenStore) Delete(context.Context, uint) (*models.Product, error) { return nil, errBroken }
func (brokenStore) Update(context.Context, uint, func(*models.Product)) (*models.Product, error) {
	return nil, errBroken
}

func TestStoreFault(t *testing.T) {
	c := qt.New(t)

	r := gin.New()
	api.NewProductController(brokenStore{}, zerolog.Nop()).Register(r)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/productos", ""},
		{http.MethodGet, "/productos/1", ""},
		{http.MethodPost, "/productos", `{"nombre":"A","precio":1,"stock":1,"imagen":"a.png"}`},
		{http.MethodPut, "/productos/1", `{"nombre":"A","precio":1,"stock":1,"imagen":"a.png"}`},
		{http.MethodDelete, "/productos/1", ""},
	} {
		w := do(c, r, req.method, req.path, req.body)
		c.Assert(w.Code, qt.Equals, http.StatusInternalServerError, qt.Commentf("%s %s", req.method, req.path))
		c.Assert(decode[map[string]string](c, w), qt.DeepEquals, map[string]string{"error": "connection reset"})
	}
}

func TestHealth(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	w := do(c, h, http.MethodGet, "/health", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Equals, `{"ok":true}`)
}

func TestMetricsExposed(t *testing.T) {
	c := qt.New(t)
	h := newServer(t)

	do(c, h, http.MethodGet, "/productos", "")
	w := do(c, h, http.MethodGet, "/metrics", "")
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Body.String(), qt.Contains, `productos_http_requests_total{method="GET",route="/productos",status="200"} 1`)
}
