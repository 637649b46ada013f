// Package linkpath maps dotted module identifiers onto the output tree and
// computes the relative links between generated pages.
//
// Every page is written to OutputPath(module) and every link toward it is
// built with RelativePath or Href. Nothing else in the repository should
// construct page paths by hand.
package linkpath

import (
	"strconv"
	"strings"
	"unicode"
)

// SourceDir is the output subdirectory holding source pages.
const SourceDir = "_modules"

// Segments splits a module identifier on '.', dropping empty segments.
func Segments(module string) []string {
	var out []string
	for _, s := range strings.Split(module, ".") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// OutputPath returns the page path for module relative to the output root:
// "a.b.c" -> "a/b/c.html". It returns "" for an empty identifier.
func OutputPath(module string) string {
	segs := Segments(module)
	if len(segs) == 0 {
		return ""
	}
	return strings.Join(segs, "/") + ".html"
}

// SourcePath returns the source page path for module: "_modules/a/b/c.html".
func SourcePath(module string) string {
	return SourceDir + "/" + OutputPath(module)
}

// RootPrefix returns the "../" chain that leads from module's page to the
// root of the tree it lives in.
func RootPrefix(module string) string {
	n := len(Segments(module)) - 1
	if n <= 0 {
		return ""
	}
	return strings.Repeat("../", n)
}

// RelativePath returns the link from from's page to to's page. It is "" when
// both are the same module, meaning a same-page anchor.
func RelativePath(from, to string) string {
	if from == to {
		return ""
	}
	return RootPrefix(from) + OutputPath(to)
}

// Href is RelativePath with an optional "#anchor" fragment.
func Href(from, to, anchor string) string {
	rel := RelativePath(from, to)
	if rel == "" && anchor == "" {
		return "#"
	}
	return withAnchor(rel, anchor)
}

// SourceHref links from module from's page to the source page of to.
func SourceHref(from, to, anchor string) string {
	return withAnchor(RootPrefix(from)+SourcePath(to), anchor)
}

// PageHref links from the source page of from to the regular page of to.
func PageHref(from, to, anchor string) string {
	return withAnchor(RootPrefix(from)+"../"+OutputPath(to), anchor)
}

func withAnchor(u, anchor string) string {
	if anchor == "" {
		return u
	}
	return u + "#" + anchor
}

// DocLink builds a link from a documentation page into the source tree.
// docName is the slash-separated page name without extension ("cli/scan",
// "index"); each '/' adds one "../".
func DocLink(docName, module, anchor string) string {
	return withAnchor(strings.Repeat("../", strings.Count(docName, "/"))+SourcePath(module), anchor)
}

// LineAnchor is the anchor of a line on a source page.
func LineAnchor(line int) string {
	return "line-" + strconv.Itoa(line)
}

// TierModule returns the pseudo module identifier under which a tier page of
// module is written, so tier pages follow the same mapping as everything else.
func TierModule(module, tier string) string {
	return module + "." + Slug(tier)
}

// Slug lowercases s and collapses every run of characters other than letters
// and digits into a single '-'.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "tier"
	}
	return out
}
