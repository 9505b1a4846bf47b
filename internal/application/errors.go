package application

import "errors"

// Collaborator failures surfaced by the application services. Both wrap the
// underlying error, so errors.Is/As still reach it.
var (
	ErrFetchFailure = errors.New("fetch failure")
	ErrStoreFailure = errors.New("store failure")

	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownPromotion = errors.New("unknown promotion kind")
)
