package optimizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/younsl/s3optimizer/internal/config"
)

var (
	// ErrApplyNotImplemented is returned for the apply mode
	ErrApplyNotImplemented = errors.New("apply mode not yet implemented")

	// ErrUnknownMode is returned for a mode outside audit, recommend and apply
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownErrorPolicy is returned for an error policy other than lenient or strict
	ErrUnknownErrorPolicy = errors.New("unknown error policy")
)

// Mode selects what a run does
type Mode string

const (
	ModeAudit     Mode = "audit"
	ModeRecommend Mode = "recommend"
	ModeApply     Mode = "apply"
)

// Modes lists the supported modes in help-text order
var Modes = []Mode{ModeAudit, ModeRecommend, ModeApply}

// ParseMode parses a --mode value. Only the exact lowercase names are accepted.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	for _, m := range Modes {
		if mode == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (must be one of: audit, recommend, apply)", ErrUnknownMode, s)
}

// ErrorPolicy decides what happens when a per-bucket lookup fails
type ErrorPolicy string

const (
	// ErrorPolicyLenient treats failed lookups as not configured / zero
	ErrorPolicyLenient ErrorPolicy = config.OnErrorLenient

	// ErrorPolicyStrict aborts the audit on the first failed lookup
	ErrorPolicyStrict ErrorPolicy = config.OnErrorStrict
)

// ParseErrorPolicy parses an on_error value
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(s)) {
	case ErrorPolicyLenient:
		return ErrorPolicyLenient, nil
	case ErrorPolicyStrict:
		return ErrorPolicyStrict, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownErrorPolicy, s)
}
