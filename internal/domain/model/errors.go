package model

import "errors"

// Sentinel kinds shared by every court operation. Callers match them with errors.Is.
var (
	ErrDuplicateCourt      = errors.New("court already exists")
	ErrUnknownCourt        = errors.New("unknown court")
	ErrUnknownReferee      = errors.New("unknown referee")
	ErrInvalidCredential   = errors.New("invalid court or secret")
	ErrInvalidCourt        = errors.New("invalid court definition")
	ErrInvalidPlayer       = errors.New("invalid player")
	ErrDuplicateSubmission = errors.New("duplicate submission")
)
