package util

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"acadpulse/backend/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Maps carrying their own "success" key pass through unwrapped
	var response interface{}
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else {
		response = JSONResponse{Success: status >= 200 && status < 300, Data: payload}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	log.Printf("HTTP Error %d: %s", status, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResponse := JSONError{
		Success: false,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// HandleServiceError translates service errors to HTTP responses. This is the
// single place error codes become status codes.
func HandleServiceError(w http.ResponseWriter, err error) {
	svcErr := shared.AsServiceError(err)

	status := svcErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		// Internal details stay in the log, not the response
		log.Printf("HTTP Error %d: %v", status, err)
		writeServiceError(w, status, svcErr.Code, "internal server error")
		return
	}

	log.Printf("HTTP Error %d: %s", status, svcErr.Message)
	writeServiceError(w, status, svcErr.Code, svcErr.Message)
}

func writeServiceError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(JSONError{Success: false, Code: code, Message: message}); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// DecodeJSON decodes a request body into v, rejecting unknown garbage early.
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return shared.ErrInvalidArgument("invalid request body: %v", err)
	}
	return nil
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the authenticated user on a request context.
func WithUser(ctx context.Context, user *shared.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user injected by the auth
// middleware.
func UserFromContext(ctx context.Context) (*shared.User, bool) {
	user, ok := ctx.Value(userContextKey).(*shared.User)
	return user, ok
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	// Expect header: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
