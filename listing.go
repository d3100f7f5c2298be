package miniftp

import (
	"bufio"
	"log/slog"
	"strconv"
	"strings"
)

// Entry is one line of a LIST reply, parsed.
type Entry struct {
	Name   string
	Type   string // "file", "dir", "link" or "unknown"
	Size   int64
	Target string // symlink target, if any
	Raw    string
}

// ParseListing splits LIST output into entries. Unix ("drwxr-xr-x ...") and
// DOS ("12-14-23  12:22PM  <DIR>  name") lines are understood; anything else
// becomes an entry of type "unknown" named after the raw line. Blank lines
// and the "total N" header are skipped.
func ParseListing(text string) []*Entry {
	var entries []*Entry
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "total ") {
			continue
		}

		fields := strings.Fields(trimmed)
		if e, ok := parseDOSLine(line, fields); ok {
			entries = append(entries, e)
			continue
		}
		if e, ok := parseUnixLine(line, fields); ok {
			entries = append(entries, e)
			continue
		}

		slog.Debug("Unable to parse LIST line, unknown format", "raw", line)
		entries = append(entries, &Entry{Name: trimmed, Type: "unknown", Raw: line})
	}
	return entries
}

// parseUnixLine handles the 9-field (with group) and 8-field (no group)
// layouts: perms links owner [group] size month day time|year name...
func parseUnixLine(raw string, fields []string) (*Entry, bool) {
	if len(fields) < 8 || fields[0] == "" {
		return nil, false
	}

	e := &Entry{Raw: raw}
	switch fields[0][0] {
	case 'd':
		e.Type = "dir"
	case 'l':
		e.Type = "link"
	case '-', 'b', 'c', 'p', 's':
		e.Type = "file"
	default:
		return nil, false
	}

	sizeIdx, nameIdx := 4, 8
	if len(fields) < 9 || !isSize(fields[4]) {
		sizeIdx, nameIdx = 3, 7
	}
	size, err := strconv.ParseInt(fields[sizeIdx], 10, 64)
	if err != nil {
		return nil, false
	}
	e.Size = size

	name := strings.Join(fields[nameIdx:], " ")
	if e.Type == "link" {
		if before, after, ok := strings.Cut(name, " -> "); ok {
			name, e.Target = before, after
		}
	}
	e.Name = name
	return e, true
}

// parseDOSLine handles "MM-DD-YY HH:MMAM <DIR>|size name...".
func parseDOSLine(raw string, fields []string) (*Entry, bool) {
	if len(fields) < 4 || !isDOSDate(fields[0]) {
		return nil, false
	}

	e := &Entry{Raw: raw, Name: strings.Join(fields[3:], " ")}
	if fields[2] == "<DIR>" {
		e.Type = "dir"
		return e, true
	}

	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, false
	}
	e.Type = "file"
	e.Size = size
	return e, true
}

func isSize(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isDOSDate accepts MM-DD-YY, MM-DD-YYYY and the same with slashes.
func isDOSDate(s string) bool {
	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return false
	}
	for i, p := range parts {
		switch {
		case i < 2 && (len(p) < 1 || len(p) > 2):
			return false
		case i == 2 && len(p) != 2 && len(p) != 4:
			return false
		}
		for _, ch := range p {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}
