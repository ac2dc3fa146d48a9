package http

import (
	"time"

	xutil "MacroPipe/pkg/util"
)

// Query-parameter parsing shims so handlers do not need the util import.

func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseTime accepts RFC3339, RFC3339Nano, date-only, and unix seconds.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
