// Package ident parses and formats package identifiers of the form
// origin/name[/version[/release]].
package ident

import (
	"fmt"
	"strings"
)

// MalformedIdentError is returned when a string cannot be parsed as a PackageIdent
type MalformedIdentError struct {
	Input  string
	Reason string
}

func (e *MalformedIdentError) Error() string {
	return fmt.Sprintf("malformed package identifier %q: %s", e.Input, e.Reason)
}

// PackageIdent identifies a package. Version and Release are optional,
// but Release is never set without Version.
type PackageIdent struct {
	Origin  string
	Name    string
	Version string
	Release string
}

// Parse parses "origin/name", "origin/name/version" or "origin/name/version/release"
func Parse(s string) (PackageIdent, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 4 {
		return PackageIdent{}, &MalformedIdentError{Input: s, Reason: "expected origin/name[/version[/release]]"}
	}
	for i, p := range parts {
		if reason := checkSegment(p); reason != "" {
			return PackageIdent{}, &MalformedIdentError{Input: s, Reason: fmt.Sprintf("segment %d %s", i+1, reason)}
		}
	}

	id := PackageIdent{Origin: parts[0], Name: parts[1]}
	if len(parts) > 2 {
		id.Version = parts[2]
	}
	if len(parts) > 3 {
		id.Release = parts[3]
	}
	return id, nil
}

// Validate checks an ident assembled from separate fields. Origin and Name
// are required, Release requires Version, and no segment may be "." or ".."
// or contain a path separator.
func (id PackageIdent) Validate() error {
	segments := []struct {
		field    string
		value    string
		optional bool
	}{
		{"origin", id.Origin, false},
		{"name", id.Name, false},
		{"version", id.Version, true},
		{"release", id.Release, true},
	}
	for _, seg := range segments {
		if seg.optional && seg.value == "" {
			continue
		}
		if reason := checkSegment(seg.value); reason != "" {
			return &MalformedIdentError{Input: id.String(), Reason: seg.field + " " + reason}
		}
	}
	if id.Release != "" && id.Version == "" {
		return &MalformedIdentError{Input: id.String(), Reason: "release set without version"}
	}
	return nil
}

func checkSegment(s string) string {
	switch {
	case s == "":
		return "is empty"
	case s == "." || s == "..":
		return fmt.Sprintf("is %q", s)
	case strings.ContainsAny(s, `/\`):
		return "contains a path separator"
	}
	return ""
}

// MustParse is like Parse but panics on error. Only for literals.
func MustParse(s string) PackageIdent {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id PackageIdent) String() string {
	var b strings.Builder
	b.WriteString(id.Origin)
	b.WriteByte('/')
	b.WriteString(id.Name)
	if id.Version != "" {
		b.WriteByte('/')
		b.WriteString(id.Version)
		if id.Release != "" {
			b.WriteByte('/')
			b.WriteString(id.Release)
		}
	}
	return b.String()
}

// FullyQualified reports whether all four segments are set
func (id PackageIdent) FullyQualified() bool {
	return id.Origin != "" && id.Name != "" && id.Version != "" && id.Release != ""
}

// Satisfies reports whether every segment set in id matches other
func (id PackageIdent) Satisfies(other PackageIdent) bool {
	if id.Origin != other.Origin || id.Name != other.Name {
		return false
	}
	if id.Version != "" && id.Version != other.Version {
		return false
	}
	if id.Release != "" && id.Release != other.Release {
		return false
	}
	return true
}

// ArchiveName is the artifact file name used in the artifact cache
func (id PackageIdent) ArchiveName() string {
	return fmt.Sprintf("%s-%s-%s-%s.hart", id.Origin, id.Name, id.Version, id.Release)
}
