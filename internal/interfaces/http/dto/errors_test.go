package dto

import (
	"net/http"
	"testing"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shared.CodeInvalidTransition, http.StatusConflict},
		{shared.CodeCountsPending, http.StatusConflict},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeInvalidAmount, http.StatusBadRequest},
		{shared.CodeCurrencyMismatch, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeForbidden, http.StatusForbidden},
		{shared.CodeArchiveFailure, http.StatusInternalServerError},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, &Meta{Total: 41, Page: 2, PageSize: 20, TotalPages: 3}, resp.Meta)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 20)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{}
	p.Normalize()
	assert.Equal(t, PageRequest{Page: 1, PageSize: 20}, p)

	p = PageRequest{Page: 3, PageSize: 50}
	p.Normalize()
	assert.Equal(t, PageRequest{Page: 3, PageSize: 50}, p)
}
