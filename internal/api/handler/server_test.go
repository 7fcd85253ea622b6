package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newServerHandler() *Server {
	return &Server{}
}

func TestServerCreate_InvalidJSON(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/servers", "not json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerCreate_MissingRequiredFields(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/servers", map[string]any{"name": "pve01"})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestServerCreate_UnknownType(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/servers", map[string]any{
		"name": "pve01",
		"host": "10.0.0.10",
		"type": "mainframe",
	})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerCreate_InvalidPort(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/servers", map[string]any{
		"name": "pve01",
		"host": "10.0.0.10",
		"type": "pve",
		"port": 99999,
	})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerGet_MissingID(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/servers/", nil), "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerDelete_MissingID(t *testing.T) {
	h := newServerHandler()
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodDelete, "/servers/", nil), "id", "")

	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
