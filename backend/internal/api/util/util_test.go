package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"acadpulse/backend/internal/shared"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid argument", shared.ErrInvalidArgument("bad input"), http.StatusBadRequest},
		{"not found", shared.ErrNotFound("missing"), http.StatusNotFound},
		{"unauthenticated", shared.ErrUnauthenticated("no token"), http.StatusUnauthorized},
		{"permission denied", shared.ErrPermissionDenied("nope"), http.StatusForbidden},
		{"already exists", shared.ErrAlreadyExists("dup"), http.StatusConflict},
		{"failed precondition", shared.ErrFailedPrecondition("published"), http.StatusUnprocessableEntity},
		{"internal", shared.ErrInternal(errors.New("db down"), "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("anonymous"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleServiceError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var body JSONError
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Response is not JSON: %v", err)
			}
			if body.Success {
				t.Error("Error response claims success")
			}
			if body.Message == "" {
				t.Error("Error response missing message")
			}
		})
	}
}

func TestHandleServiceErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleServiceError(rec, shared.ErrInternal(errors.New("connection string mongodb://secret"), "db query failed"))

	var body JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Message != "internal server error" {
		t.Errorf("Internal error leaked details: %q", body.Message)
	}
}

func TestWriteJSONWrapsPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"k": "v"})

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var body JSONResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Error("2xx response must report success")
	}
	if body.Data == nil {
		t.Error("Payload missing from wrapper")
	}
}

func TestExtractToken(t *testing.T) {
	t.Run("Valid bearer token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")

		token, err := ExtractToken(r)
		if err != nil {
			t.Fatalf("ExtractToken failed: %v", err)
		}
		if token != "abc.def.ghi" {
			t.Errorf("Expected abc.def.ghi, got %s", token)
		}
	})

	t.Run("Case-insensitive scheme", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "bearer tok")
		if _, err := ExtractToken(r); err != nil {
			t.Errorf("Lowercase scheme rejected: %v", err)
		}
	})

	t.Run("Missing header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := ExtractToken(r); err == nil {
			t.Error("Expected error for missing header")
		}
	})

	t.Run("Malformed header", func(t *testing.T) {
		for _, h := range []string{"Bearer", "Basic abc", "Bearer a b"} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", h)
			if _, err := ExtractToken(r); err == nil {
				t.Errorf("Expected error for %q", h)
			}
		}
	})
}
