package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/response"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, per int
		total     int64
		want      response.Pagination
	}{
		{1, 20, 0, response.Pagination{Page: 1, PerPage: 20, Total: 0, LastPage: 1}},
		{2, 20, 41, response.Pagination{Page: 2, PerPage: 20, Total: 41, LastPage: 3}},
		{9, 20, 41, response.Pagination{Page: 3, PerPage: 20, Total: 41, LastPage: 3}},
		{-1, 0, 5, response.Pagination{Page: 1, PerPage: 20, Total: 5, LastPage: 1}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, response.NewPagination(c.page, c.per, c.total))
	}

	p := response.NewPagination(2, 10, 25)
	assert.Equal(t, 10, p.Offset())
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
}

func TestValidationErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ValidationError(rec, map[string]string{"name": "The name field is required."})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, map[string]interface{}{"name": "The name field is required."}, body["errors"])
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, response.WantsJSON(r))
	r.Header.Set("Accept", "text/html,application/json;q=0.9")
	assert.True(t, response.WantsJSON(r))
}
