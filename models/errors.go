package models

import "errors"

// Engine failure taxonomy. Every computation returns one of these explicitly
// so the UI layer can surface a specific, actionable message.
var (
	// ErrInvalidQuantity covers bad per/case inputs, including a zero divisor.
	ErrInvalidQuantity = errors.New("invalid quantity inputs")

	// ErrInvalidDiscount is returned for a discount percent outside [0,100].
	ErrInvalidDiscount = errors.New("discount percent out of range")

	// ErrInvalidParameter covers negative gst/packing percentages and
	// unrecognized regions or offices.
	ErrInvalidParameter = errors.New("invalid invoice parameter")

	// ErrDuplicateDocumentNumber is returned when a manually supplied invoice
	// number collides with an already issued one.
	ErrDuplicateDocumentNumber = errors.New("invoice number already exists")

	// ErrSubTotalUnavailable means every recovery step for a legacy invoice's
	// sub total failed; commission for that invoice degrades to zero.
	ErrSubTotalUnavailable = errors.New("sub total unavailable")
)
