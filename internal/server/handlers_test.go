package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleMeAdmin(t *testing.T) {
	s := &Server{admins: map[string]bool{"coach@example.com": true}}
	tests := []struct {
		login     string
		wantAdmin bool
	}{
		{"coach@example.com", true},
		{"athlete@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), 2, UserInfo{Login: tt.login, DisplayName: "X"})
			rec := httptest.NewRecorder()
			s.handleMe(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			info := decode[UserInfo](t, rec)
			assert.Equal(t, tt.login, info.Login)
			assert.Equal(t, tt.wantAdmin, info.Admin)
		})
	}
}

func TestHandleMeDevUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	DevIdentity(http.HandlerFunc(s.handleMe)).ServeHTTP(rec, req)

	info := decode[UserInfo](t, rec)
	assert.Equal(t, "local", info.Login)
	assert.False(t, info.Admin)
}
