package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Gateways, catalogs and caches
// return these (optionally wrapped) so services can translate them into
// domain errors:
//   - ErrNotFound: record does not exist in the backend
//   - ErrConflict: backend rejected a write because of concurrent state
//   - ErrUnavailable: backend or reference service temporarily unavailable
//   - ErrClosed: the owning session or component was already torn down
//
// Field-level validation failures never use these; see internal/identity.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
