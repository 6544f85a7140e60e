// Package flags holds helpers for the persistent flags shared by every
// shipyard command.
package flags

import (
	"errors"
	"fmt"

	"github.com/orchwiz/shipyard/pkg/ui/timer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// TimingFlagName is the persistent flag that enables per-activity timing
// output.
const TimingFlagName = "timing"

// ErrNilCommand is returned when a flag is read from a nil command.
var ErrNilCommand = errors.New("command is nil")

// ErrFlagNotFound is returned when the requested flag is not registered on
// the command or any of its parents.
var ErrFlagNotFound = errors.New("flag not found")

// IsTimingEnabled reports whether the timing flag is set on the command,
// searching local, persistent, and inherited flag sets.
func IsTimingEnabled(cmd *cobra.Command) (bool, error) {
	if cmd == nil {
		return false, fmt.Errorf("%w: cannot read %q", ErrNilCommand, TimingFlagName)
	}

	for _, set := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()} {
		flag := set.Lookup(TimingFlagName)
		if flag == nil {
			continue
		}

		enabled, err := set.GetBool(TimingFlagName)
		if err != nil {
			return false, fmt.Errorf("read %q flag: %w", TimingFlagName, err)
		}

		return enabled, nil
	}

	return false, fmt.Errorf("%w: %q", ErrFlagNotFound, TimingFlagName)
}

// MaybeTimer returns the timer when timing output is enabled on the command
// and nil otherwise, so callers can pass it straight into a notification.
func MaybeTimer(cmd *cobra.Command, tmr timer.Timer) timer.Timer {
	if cmd == nil || tmr == nil {
		return nil
	}

	enabled, err := IsTimingEnabled(cmd)
	if err != nil || !enabled {
		return nil
	}

	return tmr
}
