package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pitboss/internal/token"
	"pitboss/pkg/domain"
	"pitboss/pkg/logger"
	"pitboss/pkg/validator"
)

func newTokenHandler() *TokenHandler {
	service := token.NewService(nil, domain.NetworkLocal, nil, time.Minute, logger.NewNop())
	return NewTokenHandler(service, validator.New(), logger.NewNop())
}

func postBalances(t *testing.T, h *TokenHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/coinbase/token-balances", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.GetBalances(rr, req)
	return rr
}

func TestGetBalancesOK(t *testing.T) {
	h := newTokenHandler()

	rr := postBalances(t, h, `{"address":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","network":"local"}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp token.BalancesResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "static", resp.Source)
	assert.Equal(t, domain.NetworkLocal, resp.Network)
	assert.NotEmpty(t, resp.Balances)
	assert.Equal(t, "ETH", resp.Balances[0].Symbol)
}

func TestGetBalancesMalformedAddress(t *testing.T) {
	h := newTokenHandler()

	cases := []string{
		`{"address":"nothex","network":"local"}`,
		`{"address":"0x123","network":"local"}`,
		`{"address":"","network":"local"}`,
		`{"network":"local"}`,
	}
	for _, body := range cases {
		rr := postBalances(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body %s", body)
	}
}

func TestGetBalancesUnsupportedNetwork(t *testing.T) {
	h := newTokenHandler()

	rr := postBalances(t, h, `{"address":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","network":"dogecoin"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetBalancesEmptyBody(t *testing.T) {
	h := newTokenHandler()

	rr := postBalances(t, h, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetBalancesUnknownField(t *testing.T) {
	h := newTokenHandler()

	rr := postBalances(t, h, `{"address":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","network":"local","bogus":1}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListTokensByNetwork(t *testing.T) {
	h := newTokenHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens?network=base", nil)
	rr := httptest.NewRecorder()
	h.ListTokens(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Network domain.Network    `json:"network"`
		Tokens  []token.TokenInfo `json:"tokens"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domain.NetworkBase, resp.Network)
	assert.NotEmpty(t, resp.Tokens)
}

func TestListTokensUnknownNetwork(t *testing.T) {
	h := newTokenHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens?network=dogecoin", nil)
	rr := httptest.NewRecorder()
	h.ListTokens(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
