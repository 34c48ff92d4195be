package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusNotFound, "not_found", "product 1 not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"not_found","details":"product 1 not found"}`, rr.Body.String())
}

func TestDecode(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	t.Run("ok", func(t *testing.T) {
		var b body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"rice"}`))
		require.NoError(t, Decode(r, &b))
		assert.Equal(t, "rice", b.Name)
	})
	t.Run("empty", func(t *testing.T) {
		var b body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
		assert.EqualError(t, Decode(r, &b), "request body is empty")
	})
	t.Run("unknown field", func(t *testing.T) {
		var b body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nme":"rice"}`))
		assert.Error(t, Decode(r, &b))
	})
}
