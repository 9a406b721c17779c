package bridge

import "errors"

var (
	// ErrBackendUnavailable means a backend session could not be created.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrRelayFailed means the backend rejected or failed a session message.
	ErrRelayFailed = errors.New("relay failed")
	// ErrUnknownModel is returned when selecting a model absent from the registry.
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidRequest marks an inbound body the bridge cannot interpret.
	ErrInvalidRequest = errors.New("invalid request")
)
