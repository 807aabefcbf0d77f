package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// transport responses with errors.Is.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no entity matched (a normal outcome, not a fault)
// - ErrConflict: an exclusive resource is already held
// - ErrUnavailable: a backend could not be reached or failed mid-query
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
