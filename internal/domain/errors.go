package domain

import "errors"

var (
	// ErrProductNotFound is returned when no catalog entry matches a query
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrOrderNotFound is returned when a customer has no active order
	ErrOrderNotFound = errors.New("order not found")

	// ErrItemNotFound is returned when removing a line that is not in the order
	ErrItemNotFound = errors.New("item not found in order")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrLLMUnavailable is returned when the language-model service cannot be reached
	ErrLLMUnavailable = errors.New("language model service unavailable")

	// ErrCatalogSourceFailure is returned when the catalog source request fails
	ErrCatalogSourceFailure = errors.New("catalog source request failed")
)
