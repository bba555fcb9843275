package domain

import "errors"

// Error taxonomy shared by both sync paths. Handlers translate these into
// HTTP statuses; services wrap them with context using fmt.Errorf and %w.
var (
	// ErrAuth covers a missing or wrong agent token and an inadequate
	// admin session. Rejected before any work happens.
	ErrAuth = errors.New("not authorized")

	// ErrValidation covers malformed payloads and unknown providers.
	// Rejected with field detail and zero side effects.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound means no connection is configured for the provider.
	ErrNotFound = errors.New("not found")

	// ErrGuardrail means an ingest payload exceeds the batch size caps.
	ErrGuardrail = errors.New("payload too large")

	// ErrUpstream means the remote platform failed, timed out or returned
	// unparsable data. Recorded on the connection, never partially applied.
	ErrUpstream = errors.New("upstream platform error")

	// ErrCapabilityNotSupported means the adapter cannot perform the
	// requested read for its platform. Reportable, not a crash.
	ErrCapabilityNotSupported = errors.New("capability not supported")

	// ErrSyncInProgress means another sync attempt already holds the
	// per-connection replace lock. The caller should retry later.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrDecrypt means a stored credential blob could not be decrypted.
	// Decrypt failures are always reported, never passed through.
	ErrDecrypt = errors.New("credential decrypt failed")
)
