// Package slug derives URL slugs from titles.
package slug

import (
	"context"
	"fmt"
	"time"

	gosimple "github.com/gosimple/slug"
)

// timestampLayout is appended to a taken blog slug: base-YYYYMMDDHHMMSS.
const timestampLayout = "20060102150405"

// Make returns the lowercase ASCII slug of title with words joined by '-'.
// The result is empty when title holds nothing that can be transliterated.
func Make(title string) string {
	return gosimple.Make(title)
}

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns the first free candidate among base, base-<now>,
// base-<now>-2, base-<now>-3 and so on.
func Unique(ctx context.Context, base string, now time.Time, exists ExistsFunc) (string, error) {
	stamp := now.Format(timestampLayout)
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		if n == 1 {
			candidate = base + "-" + stamp
		} else {
			candidate = fmt.Sprintf("%s-%s-%d", base, stamp, n)
		}
	}
}
