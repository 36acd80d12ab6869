package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	OwnerType string `json:"owner_type" validate:"required,owner_type"`
	Rate      string `json:"rate" validate:"omitempty,rate"`
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("Valid Body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":5000,"owner_type":"patient","rate":"0.05"}`))
		var dst sampleRequest
		require.NoError(t, DecodeAndValidate(r, &dst))
		assert.Equal(t, int64(5000), dst.Amount)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":`))
		var dst sampleRequest
		err := DecodeAndValidate(r, &dst)
		assert.ErrorIs(t, err, exceptions.ErrInvalidInput)
	})

	t.Run("Custom Tags Reject Bad Values", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":5000,"owner_type":"robot","rate":"1.2"}`))
		var dst sampleRequest
		err := DecodeAndValidate(r, &dst)
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, 400, customErr.StatusCode)
		assert.Contains(t, customErr.ClientMessage, "ownertype")
	})
}

func TestBuildPaginationRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&page_size=500", nil)
	pagination := BuildPaginationRequest(r)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 100, pagination.PageSize)

	r = httptest.NewRequest("GET", "/", nil)
	pagination = BuildPaginationRequest(r)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestValidateUrlParamID(t *testing.T) {
	assert.NoError(t, ValidateUrlParamID("0b0f7f02-3a8e-4a86-9a0e-6d0d4b5d1e11", "wallet_id"))
	assert.ErrorIs(t, ValidateUrlParamID("", "wallet_id"), exceptions.ErrInvalidInput)
	assert.ErrorIs(t, ValidateUrlParamID("nope", "wallet_id"), exceptions.ErrInvalidInput)
}
