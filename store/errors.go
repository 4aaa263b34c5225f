package store

import "errors"

// Store mutation errors are returned to the caller; callers are
// systems running inside one scheduler worker and are expected to
// log-and-skip rather than propagate further.
var (
	// ErrRewound is returned by any workspace mutation or push while
	// head < highest.
	ErrRewound = errors.New("store: mutation forbidden while rewound")

	// ErrOutOfOrderCommit is returned by Commit when T is not strictly
	// greater than the prior highest timestamp.
	ErrOutOfOrderCommit = errors.New("store: commit timestamp not strictly increasing")

	// ErrFutureCheckout is returned by Checkout when T > highest.
	ErrFutureCheckout = errors.New("store: checkout requests a timestamp beyond highest")

	// ErrConsumerAhead is reported (not fatal) by Pull when the
	// caller's last-seen timestamp is already beyond highest; the
	// caller's timestamp is snapped back to highest and the pull
	// proceeds.
	ErrConsumerAhead = errors.New("store: consumer claims more history than was published")
)
