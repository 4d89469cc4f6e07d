package entry

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches the hidden identifier token at the start of a
// rendered line: "/" followed by digits, then at least one space.
var idPattern = regexp.MustCompile(`^/(\d+) +(.*)$`)

// Lookup resolves a hidden identifier to the backend record it was
// rendered from. The entry cache provides this.
type Lookup func(id string) (Entry, bool)

// ParseLine converts one rendered text line back into an Entry.
//
// Two-tier policy: a line whose identifier token resolves through
// lookup returns the backend record verbatim (authoritative, carries
// the id). Anything else is treated as freshly typed text: the
// trimmed line is a literal name, a trailing slash classifies it as
// a directory, and an empty line yields nil.
//
// numCols is the count of display columns currently rendered between
// the identifier and the name; it is only consulted on the
// structured path.
func ParseLine(line string, numCols int, lookup Lookup) *Entry {
	if m := idPattern.FindStringSubmatch(line); m != nil && lookup != nil {
		if e, ok := lookup(m[1]); ok {
			return &e
		}
		// Identifier no longer known to the cache: fall back to
		// textual classification of the visible name.
		line = stripColumns(m[2], numCols)
	}
	return parseNew(line)
}

// stripColumns drops the first n whitespace-separated tokens,
// returning what remains (the visible name).
func stripColumns(s string, n int) string {
	for i := 0; i < n; i++ {
		s = strings.TrimLeft(s, " ")
		j := strings.IndexByte(s, ' ')
		if j < 0 {
			return ""
		}
		s = s[j+1:]
	}
	return strings.TrimLeft(s, " ")
}

// parseNew classifies a literal line as a new (id-less) entry.
func parseNew(line string) *Entry {
	name := strings.TrimSpace(line)
	if name == "" {
		return nil
	}
	kind := KindFile
	if strings.HasSuffix(name, "/") {
		name = strings.TrimSuffix(name, "/")
		kind = KindDirectory
	}
	if name == "" {
		return nil
	}
	return &Entry{Name: name, Kind: kind}
}

// RenderLine produces the textual form of a backend entry:
// identifier token, display columns, then the name with a trailing
// slash on directories. ParseLine inverts it.
func RenderLine(e Entry, cols []Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/%s ", e.ID)
	for _, c := range cols {
		b.WriteString(c.Render(e))
		b.WriteByte(' ')
	}
	b.WriteString(DisplayName(e))
	return b.String()
}

// DisplayName returns the entry name as rendered: directories carry
// a trailing slash, link entries an arrow to their target.
func DisplayName(e Entry) string {
	switch {
	case e.Kind == KindDirectory:
		return e.Name + "/"
	case e.Kind == KindLink && e.LinkTarget != "":
		name := e.Name
		if e.LinkTargetIsDir {
			name += "/"
		}
		return name + " -> " + e.LinkTarget
	default:
		return e.Name
	}
}
