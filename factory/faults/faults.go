// Package faults declares the sentinel errors factory operations
// return for caller mistakes. Operations wrap them with detail via
// fmt.Errorf("%w: ...") so errors.Is still matches; anything that is
// not one of these is a storage fault and surfaces as such.
package faults

import "errors"

var (
	// ErrDuplicateJobNo means the job number already names a block.
	ErrDuplicateJobNo = errors.New("job number already exists")
	// ErrDuplicateName means the staff name is already taken.
	ErrDuplicateName = errors.New("staff name already exists")
	// ErrInvalidQuantity means a sale or split quantity is not
	// positive or exceeds what the block holds.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrPermissionDenied means the operator may not write blocks of
	// this company.
	ErrPermissionDenied = errors.New("operator not permitted for this company")
	// ErrInvalidTransition means the block's current status does not
	// allow the requested lifecycle move.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrMachineBusy means the target cutting machine already holds a
	// block.
	ErrMachineBusy = errors.New("cutting machine is occupied")
	// ErrResinLineBusy means a resin batch is already running.
	ErrResinLineBusy = errors.New("resin line already has a running batch")
	// ErrInvalidArgument means a required field is missing or a value
	// is malformed (bad time window, bad PIN, unknown treatment type).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound means no record matches the given identifier.
	ErrNotFound = errors.New("record not found")
)
