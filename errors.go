package cadence

import "errors"

// Errors returned by the scheduler and the track/timeline constructors. All of
// them are recoverable; test with errors.Is since most are wrapped with detail.
var (
	// ErrStaleHandle is returned when an id's generation no longer matches its
	// slot, i.e. the animation was unregistered or pruned.
	ErrStaleHandle = errors.New("cadence: stale handle")

	// ErrNotInitialized is returned by operations on a scheduler that was not
	// created through New or Init, and by Default before Init has run.
	ErrNotInitialized = errors.New("cadence: scheduler not initialized")

	// ErrAlreadyInitialized is returned by a second call to Init. The running
	// instance is still available through Default.
	ErrAlreadyInitialized = errors.New("cadence: scheduler already initialized")

	// ErrInvalidConfiguration is returned when a spring config, keyframe track,
	// timeline or stagger request is rejected at construction time.
	ErrInvalidConfiguration = errors.New("cadence: invalid configuration")
)
