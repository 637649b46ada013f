package discovery

import (
	"regexp"
	"slices"
	"strings"
)

// tierScanLimit bounds the search for the module-level WORKFLOWS declaration.
const tierScanLimit = 2000

// Comment markers may use either '#' or '//'.
var (
	workflowsPattern        = regexp.MustCompile(`(?im)^[ \t]*(?:#|//)[ \t]*WORKFLOWS:[ \t]*(.+)$`)
	documentWorkflowPattern = regexp.MustCompile(`(?m)^[ \t]*(?:#|//)[ \t]*DOCUMENT_WORKFLOW:[ \t]*(.+)$`)
	excludePattern          = regexp.MustCompile(`(?m)^[ \t]*(?:#|//)[ \t]*WORKFLOW_EXCLUDE:[ \t]*(.+)$`)
	includePattern          = regexp.MustCompile(`(?m)^[ \t]*(?:#|//)[ \t]*WORKFLOW_INCLUDE:[ \t]*(.+)$`)

	// FunctionPattern matches Python and Go function definitions. Group 1 is a
	// Python name, group 2 a Go name.
	FunctionPattern = regexp.MustCompile(`(?m)^[ \t]*(?:(?:async[ \t]+)?def[ \t]+(\w+)[ \t]*\(|func[ \t]+(?:\([^)]*\)[ \t]*)?(\w+)[ \t]*[\[(])`)
)

// FunctionName returns the function defined on line, or "".
func FunctionName(line string) string {
	m := FunctionPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// nextFunction returns the first function defined at or after offset.
func nextFunction(src string, offset int) string {
	m := FunctionPattern.FindStringSubmatch(src[offset:])
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// splitNames splits a comma-separated marker value, dropping blanks.
func splitNames(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// declaredTiers returns the tiers from the WORKFLOWS declaration near the top
// of src, and whether one was found.
func declaredTiers(src string) ([]string, bool) {
	head := src
	if len(head) > tierScanLimit {
		head = head[:tierScanLimit]
	}
	m := workflowsPattern.FindStringSubmatch(head)
	if m == nil {
		return nil, false
	}
	return splitNames(m[1]), true
}

// singleTierNames is the sorted union of all DOCUMENT_WORKFLOW names, or
// ["default"] if they name nothing.
func singleTierNames(src string) []string {
	seen := map[string]bool{}
	for _, m := range documentWorkflowPattern.FindAllStringSubmatch(src, -1) {
		for _, n := range splitNames(m[1]) {
			seen[n] = true
		}
	}
	if len(seen) == 0 {
		return []string{"default"}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// entryPoints maps each tier to the function following its first
// DOCUMENT_WORKFLOW marker.
func entryPoints(src string) map[string]string {
	out := map[string]string{}
	for _, loc := range documentWorkflowPattern.FindAllStringSubmatchIndex(src, -1) {
		fn := nextFunction(src, loc[1])
		if fn == "" {
			continue
		}
		for _, tier := range splitNames(src[loc[2]:loc[3]]) {
			if _, ok := out[tier]; !ok {
				out[tier] = fn
			}
		}
	}
	return out
}

// exclusions maps each function to the tiers it is excluded from.
func exclusions(src string) map[string][]string {
	out := map[string][]string{}
	for _, loc := range excludePattern.FindAllStringSubmatchIndex(src, -1) {
		fn := nextFunction(src, loc[1])
		if fn == "" {
			continue
		}
		for _, tier := range splitNames(src[loc[2]:loc[3]]) {
			if !slices.Contains(out[fn], tier) {
				out[fn] = append(out[fn], tier)
			}
		}
	}
	return out
}

// includes returns the modules named by WORKFLOW_INCLUDE markers, in order.
func includes(src string) []string {
	var out []string
	for _, m := range includePattern.FindAllStringSubmatch(src, -1) {
		for _, n := range splitNames(m[1]) {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// summary returns the first line of a leading docstring or doc comment.
func summary(src string) string {
	s := strings.TrimLeft(src, " \t\r\n")
	for _, q := range []string{`"""`, `'''`} {
		if !strings.HasPrefix(s, q) {
			continue
		}
		body := s[len(q):]
		first, rest, _ := strings.Cut(body, "\n")
		first = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(first), q))
		if first != "" {
			return first
		}
		next, _, _ := strings.Cut(rest, "\n")
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(next), q))
	}
	// Go-style package comment.
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, "//") {
			break
		}
		t = strings.TrimSpace(strings.TrimPrefix(t, "//"))
		if t != "" && !isMarker(t) {
			return t
		}
	}
	return ""
}

func isMarker(s string) bool {
	for _, p := range []string{"WORKFLOWS:", "DOCUMENT_WORKFLOW:", "WORKFLOW_EXCLUDE:", "WORKFLOW_INCLUDE:"} {
		if strings.HasPrefix(strings.ToUpper(s), p) {
			return true
		}
	}
	return false
}
