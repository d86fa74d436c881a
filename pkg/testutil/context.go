package testutil

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"dua/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context.
// This simulates what the auth middleware would do for a valid bearer token.
// A non-hex caller is silently ignored.
func WithCaller(req *http.Request, caller string) *http.Request {
	if !common.IsHexAddress(caller) {
		return req
	}
	ctx := requestcontext.WithCaller(req.Context(), common.HexToAddress(caller))
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID, as the request middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
