package apperrors

import "errors"

var (
	// ErrNotFound is returned by repositories when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat is returned for files whose extension has no loader.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDecode is returned when file bytes cannot be decoded to text, even
	// after the fallback encoding was attempted.
	ErrDecode = errors.New("text decoding failed")

	// ErrPharmacyUnresolvable is returned when a file has no pharmacy column
	// and its name does not match the derivation pattern.
	ErrPharmacyUnresolvable = errors.New("pharmacy unresolvable")

	// ErrNoAssociatedPharmacy is returned in owner-key mode when the owner has
	// no pharmacy on record. Owner-key mode never auto-creates.
	ErrNoAssociatedPharmacy = errors.New("no pharmacy associated with owner")

	// ErrMissingRequiredField marks a row lacking NDC or a resolved pharmacy.
	// Row-level: the row is skipped, the file continues.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrStoreUnavailable is returned when the backing store cannot be opened
	// or reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDebounced signals that a trigger arrived inside the cooldown window
	// of an already-processed modification and was ignored.
	ErrDebounced = errors.New("duplicate trigger debounced")
)
