package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)

	assert.True(t, VerifySignature("secret", body, sign("secret", body)))
	assert.False(t, VerifySignature("secret", body, sign("other", body)))
	assert.False(t, VerifySignature("secret", []byte("tampered"), sign("secret", body)))
	assert.False(t, VerifySignature("secret", body, ""))
	assert.False(t, VerifySignature("", body, sign("", body)), "empty secret must never verify")
}

func TestHandleLineRejectsBadSignature(t *testing.T) {
	e := echo.New()
	body := `{"destination":"d","events":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	req.Header.Set(signatureHeader, "bogus")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctrl := NewWebhookController(nil, nil, "secret")
	err := ctrl.HandleLine(c)

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestHandleLineAcceptsEmptyEventList(t *testing.T) {
	e := echo.New()
	body := `{"destination":"d","events":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign("secret", []byte(body)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctrl := NewWebhookController(nil, nil, "secret")
	require.NoError(t, ctrl.HandleLine(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleLineRejectsMalformedPayload(t *testing.T) {
	e := echo.New()
	body := `not json`
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign("secret", []byte(body)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctrl := NewWebhookController(nil, nil, "secret")
	err := ctrl.HandleLine(c)

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
