package localdb

import "errors"

var (
	// ErrUnknownTable is returned for queries on tables the store does not hold.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownRelation is returned when a join names a table with no known
	// foreign key from the queried table.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrJoinRequiresFilter is returned by join queries without an Eq filter.
	ErrJoinRequiresFilter = errors.New("join query requires a filter")
	// ErrFilterRequired is returned by Update and Delete without an Eq filter.
	ErrFilterRequired = errors.New("mutation requires a filter")
	// ErrDuplicateID is returned when an insert supplies an id already present.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidQuery is returned for malformed query input.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotSignedIn is returned by RequireSession when no user is signed in.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrCorruptSnapshot is returned when a stored document cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
