package model

import "errors"

// Configuration errors. Each is detected before any candidate is evaluated.
var (
	// ErrInvalidRange signifies an empty or inverted range, or a start that
	// cannot be normalised to an odd value >= 3.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidTrialCount signifies a non-positive trial count; the error
	// rate would divide by zero.
	ErrInvalidTrialCount = errors.New("trials per candidate must be positive")

	// ErrInvalidTopK signifies a report size below TopKAll.
	ErrInvalidTopK = errors.New("top-k must be non-negative, or -1 for every composite")

	// ErrInvalidWorkers signifies a negative worker count.
	ErrInvalidWorkers = errors.New("workers must not be negative")

	// ErrInvalidConfidence signifies a confidence level outside (0, 1).
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

	// ErrArithmeticOverflow signifies a range reaching past the largest
	// candidate the modular arithmetic is proven safe for.
	ErrArithmeticOverflow = errors.New("range exceeds safe arithmetic width")
)
