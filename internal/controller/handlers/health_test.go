package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz_AlwaysOK(t *testing.T) {
	h := newTestHandlers(&fakeStore{}, fakePlanEngine{}, &fakeStateEngine{}, fakeAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestReadyz_Success(t *testing.T) {
	h := newTestHandlers(&fakeStore{}, fakePlanEngine{}, &fakeStateEngine{}, fakeAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestReadyz_DatabaseUnavailable(t *testing.T) {
	h := newTestHandlers(&fakeStore{pingErr: errors.New("db down")}, fakePlanEngine{}, &fakeStateEngine{}, fakeAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
