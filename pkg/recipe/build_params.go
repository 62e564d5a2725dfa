// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"
	"time"
)

// DateLayout is the layout of build dates injected into binaries.
const DateLayout = "2006-01-02"

type (
	// BuildDate is a calendar date with no time-of-day component.
	BuildDate struct {
		year  int
		month time.Month
		day   int
	}

	// BuildParams are the values substituted into the binary at link time.
	BuildParams struct {
		Version   Version
		BuildDate BuildDate
	}
)

// NewBuildDate returns the calendar date of t in t's location.
func NewBuildDate(t time.Time) BuildDate {
	y, m, d := t.Date()
	return BuildDate{year: y, month: m, day: d}
}

// Today returns the current local date.
func Today() BuildDate { return NewBuildDate(time.Now()) }

// ParseBuildDate parses a YYYY-MM-DD date.
func ParseBuildDate(s string) (BuildDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return BuildDate{}, fmt.Errorf("invalid build date %q: %w", s, err)
	}
	return NewBuildDate(t), nil
}

// IsZero reports whether the date is unset.
func (d BuildDate) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// String formats the date as YYYY-MM-DD.
func (d BuildDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// Validate returns nil when both the version and the date are set.
func (p BuildParams) Validate() error {
	if err := p.Version.Validate(); err != nil {
		return err
	}
	if p.BuildDate.IsZero() {
		return fmt.Errorf("build date is not set")
	}
	return nil
}

// LinkerFlags renders the -ldflags value that stamps p into the binary:
// "-X <versionSymbol>=<version> -X <dateSymbol>=<date>".
func (p BuildParams) LinkerFlags(spec BuildSpec) string {
	return fmt.Sprintf("-X %s=%s -X %s=%s", spec.VersionSymbol, p.Version, spec.DateSymbol, p.BuildDate)
}
