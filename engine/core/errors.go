package core

import (
	"github.com/cockroachdb/errors"
)

// Error classes. Every error leaving the renderer is marked with exactly one
// of them; none of them is recoverable by the core.
var (
	ErrResourceCreation = errors.New("resource creation failed")
	ErrAssetLoad        = errors.New("asset load failed")
	ErrSubmission       = errors.New("submission failed")
)

func ResourceCreationErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrResourceCreation)
}

func AssetLoadErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrAssetLoad)
}

func SubmissionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrSubmission)
}

// WrapResourceCreation marks err as a resource creation failure unless it
// already carries a class. Returns nil for a nil err.
func WrapResourceCreation(err error, format string, args ...interface{}) error {
	return wrapClass(err, ErrResourceCreation, format, args...)
}

// WrapAssetLoad marks err as an asset load failure unless it already carries
// a class. Returns nil for a nil err.
func WrapAssetLoad(err error, format string, args ...interface{}) error {
	return wrapClass(err, ErrAssetLoad, format, args...)
}

// WrapSubmission marks err as a submission failure unless it already carries
// a class. Returns nil for a nil err.
func WrapSubmission(err error, format string, args ...interface{}) error {
	return wrapClass(err, ErrSubmission, format, args...)
}

var errorClasses = []struct {
	mark error
	name string
}{
	{ErrResourceCreation, "ResourceCreationError"},
	{ErrAssetLoad, "AssetLoadError"},
	{ErrSubmission, "SubmissionError"},
}

// The first failure decides the class.
func wrapClass(err, mark error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	wrapped := errors.WrapWithDepthf(2, err, format, args...)
	if classOf(err) != "" {
		return wrapped
	}
	return errors.Mark(wrapped, mark)
}

func classOf(err error) string {
	for _, c := range errorClasses {
		if errors.Is(err, c.mark) {
			return c.name
		}
	}
	return ""
}

// ErrorClass names the class an error was marked with, for reporting at the
// application boundary. When marks were stacked the innermost one wins.
func ErrorClass(err error) string {
	class := classOf(err)
	if class == "" {
		return "Error"
	}
	for cause := errors.UnwrapOnce(err); cause != nil; cause = errors.UnwrapOnce(cause) {
		if c := classOf(cause); c != "" {
			class = c
		}
	}
	return class
}
