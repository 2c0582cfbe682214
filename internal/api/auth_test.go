package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agenda/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		wantErr  bool
	}{
		{"EmptyListAllowsAll", nil, permManageSchedule, false},
		{"Granted", []string{permReadSlots, " " + permWriteBookings}, permWriteBookings, false},
		{"Denied", []string{permReadSlots}, permManageBookings, true},
		{"NoRequirement", []string{permReadSlots}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPermission(config.APIClientKey{Permissions: tt.perms}, tt.required)
			if tt.wantErr {
				assert.ErrorIs(t, err, errPermissionDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithUser(t *testing.T) {
	var got int64
	h := withUser(func(w http.ResponseWriter, r *http.Request) {
		got = actingUser(r)
		w.WriteHeader(http.StatusNoContent)
	})

	for _, bad := range []string{"", "abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(userIDHeader, bad)
		rec := httptest.NewRecorder()
		h(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, bad)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(userIDHeader, " 42 ")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), got)
}

func TestClientKey(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{Auth: config.APIAuthConfig{HeaderAPIKey: "X-Key"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", auth.clientKey(req))

	req.Header.Set("X-Key", "front")
	assert.Equal(t, "front", auth.clientKey(req))
}

func TestRateLimiter(t *testing.T) {
	assert.False(t, newRateLimiter(config.APIRateLimitConfig{}).enabled())

	l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 1})
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	// у каждого ключа своё ведро
	assert.True(t, l.allow("b"))
}
