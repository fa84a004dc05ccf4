package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	t.Run("forwarded-for takes precedence", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/applicant/signIn", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		r.Header.Set("X-Real-IP", "10.0.0.2")
		assert.Equal(t, "203.0.113.7", ClientIP(r))
	})

	t.Run("real-ip fallback", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/applicant/signIn", nil)
		r.Header.Set("X-Real-IP", "203.0.113.8")
		assert.Equal(t, "203.0.113.8", ClientIP(r))
	})

	t.Run("remote addr strips port", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/applicant/signIn", nil)
		r.RemoteAddr = "192.0.2.4:51234"
		assert.Equal(t, "192.0.2.4", ClientIP(r))
	})
}
