package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// DefaultTimeFormat is the strftime pattern used for entry timestamps.
const DefaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// Formatter renders entries as single lines.
type Formatter struct {
	stamp *strftime.Strftime
	loc   *time.Location
}

// NewFormatter compiles a strftime pattern. Timestamps are shown in loc, or
// local time when loc is nil.
func NewFormatter(pattern string, loc *time.Location) (*Formatter, error) {
	if pattern == "" {
		pattern = DefaultTimeFormat
	}
	stamp, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid time format %q: %w", pattern, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{stamp: stamp, loc: loc}, nil
}

// Format returns "<time> <source> <query> = <result> [PASS|FAIL]".
func (f *Formatter) Format(e Entry) string {
	var sb strings.Builder
	sb.WriteString(f.stamp.FormatString(e.CreatedAt.In(f.loc)))
	fmt.Fprintf(&sb, " %s %s = %s", e.Source, e.Query, e.Result)
	if e.Passed != nil {
		if *e.Passed {
			sb.WriteString(" PASS")
		} else {
			sb.WriteString(" FAIL")
		}
	}
	return sb.String()
}
