// README: Per-identity turn quota with a fixed ceiling.
package quota

import "context"

// DefaultCeiling is the number of turns an identity may spend before an
// administrative reset is required.
const DefaultCeiling = 15

// Tracker counts turns consumed per identity against a fixed ceiling.
//
// Remaining never blocks a later Consume: callers are expected to check
// Remaining first and then call Consume exactly once per turn that is
// allowed to proceed. Consume increments unconditionally.
type Tracker interface {
	// Remaining lazily initializes a zero counter for unseen identities and
	// reports whether the identity may still proceed plus how many turns are
	// left before the ceiling.
	Remaining(ctx context.Context, identity string) (ok bool, left int, err error)

	// Consume records one spent turn.
	Consume(ctx context.Context, identity string) error

	// Used returns the number of turns the identity has spent.
	Used(ctx context.Context, identity string) (int, error)

	// Reset zeroes the identity's counter. Administrative use only.
	Reset(ctx context.Context, identity string) error
}
