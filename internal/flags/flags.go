// Package flags provides small helpers for grouping and describing
// urfave/cli flags, in the same spirit as go-ethereum's internal/flags
// package.
package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Category sets the help-output category of a flag in one call, letting a
// flag block stay a plain slice literal. Flag types other than String, Int,
// Uint64, Duration and Bool are returned unchanged.
func Category(flag cli.Flag, category string) cli.Flag {
	switch f := flag.(type) {
	case *cli.StringFlag:
		f.Category = category
	case *cli.IntFlag:
		f.Category = category
	case *cli.Uint64Flag:
		f.Category = category
	case *cli.DurationFlag:
		f.Category = category
	case *cli.BoolFlag:
		f.Category = category
	}
	return flag
}

// CheckExclusive verifies that at most one of the named flags was set on
// ctx, returning an error describing the conflict otherwise.
func CheckExclusive(ctx *cli.Context, names ...string) error {
	var set []string
	for _, name := range names {
		if ctx.IsSet(name) {
			set = append(set, name)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("flags %v are mutually exclusive", set)
	}
	return nil
}
