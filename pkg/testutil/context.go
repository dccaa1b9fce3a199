package testutil

import (
	"context"
	"net/http"

	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/requestcontext"
)

// WithOperator puts an operator and request id in the request context, as the
// auth and request-id middleware would.
func WithOperator(req *http.Request, operatorID id.OperatorID, requestID string) *http.Request {
	ctx := requestcontext.WithOperatorID(req.Context(), operatorID)
	ctx = requestcontext.WithRequestID(ctx, requestID)
	return req.WithContext(ctx)
}

// OperatorContext is WithOperator for code that takes a context directly.
func OperatorContext(operatorID id.OperatorID, requestID string) context.Context {
	ctx := requestcontext.WithOperatorID(context.Background(), operatorID)
	return requestcontext.WithRequestID(ctx, requestID)
}
