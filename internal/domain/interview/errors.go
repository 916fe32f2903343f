package interview

import "errors"

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrFamilyNotFound    = errors.New("family not found")
	ErrNoScheduledVisit  = errors.New("no scheduled visit")
	ErrInvalidInput      = errors.New("invalid input")
)
