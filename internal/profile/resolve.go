// Package profile holds the link conventions of student profile pages: how a
// path segment resolves to a record, how links are derived from a name, and
// which default secrets new records and the admin start with.
package profile

import (
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/student-profiles/internal/repository"
)

// PathPrefix is prepended to a slug to form a public link.
const PathPrefix = "/student/"

// Page suffixes a caller may append to a slug segment.
const (
	EditSuffix  = "/edit"
	LinksSuffix = "/links"
)

// Resolve turns a raw path segment into a lookup filter.
//
// A segment in the store's native id format (xid) selects by primary key.
// Anything else is treated as a slug: a trailing /edit or /links is removed
// and the filter matches the public link. Resolve never fails; an unknown
// segment simply matches nothing.
func Resolve(segment string) repository.Filter {
	if _, err := xid.FromString(segment); err == nil {
		return repository.Filter{ID: segment}
	}

	slug := segment
	for _, suffix := range []string{EditSuffix, LinksSuffix} {
		slug = strings.TrimSuffix(slug, suffix)
	}
	return repository.Filter{PublicLink: PathPrefix + slug}
}
