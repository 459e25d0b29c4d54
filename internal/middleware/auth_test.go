package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/formcheck/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTokenChecker := NewMocktokenChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockTokenChecker, "session-frame", "session-finish")

	r := mux.NewRouter()
	ok := func(w http.ResponseWriter, r *http.Request) {}
	r.HandleFunc("/sessions", ok).Methods("POST", "OPTIONS").Name("session-start")
	r.HandleFunc("/sessions/{id}/frames", ok).Methods("POST", "OPTIONS").Name("session-frame")
	r.HandleFunc("/sessions/{id}/finish", ok).Methods("POST", "OPTIONS").Name("session-finish")
	r.Use(authMiddleware.AuthCheck())

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		expectVerify       bool
		mockValid          bool
		mockErr            error
		expectedStatusCode int
	}{
		{
			name:               "UnprotectedRoute",
			path:               "/sessions",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Options",
			path:               "/sessions/abc/frames",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MissingToken",
			path:               "/sessions/abc/frames",
			method:             "POST",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/sessions/abc/frames",
			method:             "POST",
			token:              "valid-token",
			expectVerify:       true,
			mockValid:          true,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "InvalidToken",
			path:               "/sessions/abc/finish",
			method:             "POST",
			token:              "invalid-token",
			expectVerify:       true,
			mockValid:          false,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "CheckerError",
			path:               "/sessions/abc/finish",
			method:             "POST",
			token:              "valid-token",
			expectVerify:       true,
			mockErr:            errors.New("redis down"),
			expectedStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(middleware.SessionTokenHeader, tc.token)
			}

			if tc.expectVerify {
				mockTokenChecker.EXPECT().
					Verify(gomock.Any(), "abc", tc.token).
					Return(tc.mockValid, tc.mockErr)
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}
