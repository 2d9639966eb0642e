package models

import (
	"errors"
	"fmt"
)

// Error classes of a pipeline run. Every failure aborts the run; callers
// classify with errors.Is.
var (
	// ErrInput covers missing or misnamed columns, bad values and empty data.
	ErrInput = errors.New("input error")
	// ErrParse is returned when a date value cannot be parsed.
	ErrParse = errors.New("parse error")
	// ErrEstimation is returned when a model fit fails or yields invalid parameters.
	ErrEstimation = errors.New("estimation error")
	// ErrSegmentation is returned when CLV quantile binning is undefined.
	ErrSegmentation = errors.New("segmentation error")
)

// InputErrorf wraps ErrInput with a formatted message.
func InputErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}

// ParseErrorf wraps ErrParse with a formatted message.
func ParseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// EstimationErrorf wraps ErrEstimation with a formatted message.
func EstimationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEstimation, fmt.Sprintf(format, args...))
}

// SegmentationErrorf wraps ErrSegmentation with a formatted message.
func SegmentationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSegmentation, fmt.Sprintf(format, args...))
}
