package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/audit"
	request "brokerdesk/pkg/platform/middleware/request"
	"brokerdesk/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	OperatorID string
	Name       string
	JTI        string
}

// FailureRecorder receives a security audit event for every rejected token.
type FailureRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth admits requests carrying a valid operator bearer token and puts
// the operator id in the request context. recorder may be nil.
func RequireAuth(validator JWTValidator, recorder FailureRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(reason, desc string, err error) {
				logger.WarnContext(ctx, "unauthorized access - "+reason,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				if recorder != nil {
					_ = recorder.Emit(ctx, audit.Event{
						Timestamp: requestcontext.Now(ctx),
						Action:    string(audit.EventAuthFailed),
						Decision:  "denied",
						Reason:    reason,
						RequestID: request.GetRequestID(ctx),
					})
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", desc)
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				reject("missing token", "Missing or invalid Authorization header", nil)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				reject("invalid token", "Invalid or expired token", err)
				return
			}
			operatorID, err := id.ParseOperatorID(claims.OperatorID)
			if err != nil {
				reject("invalid operator", "Invalid or expired token", err)
				return
			}

			ctx = requestcontext.WithOperatorID(ctx, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
