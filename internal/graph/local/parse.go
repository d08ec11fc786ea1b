package local

import (
	"path"
	"strings"
	"time"
)

// NoteBlock is one block of a markdown note. Headings own the blocks below
// them up to the next heading of the same or higher level; list items own
// their indented continuation.
type NoteBlock struct {
	ID        int
	ParentID  int
	Level     int
	StartLine int
	EndLine   int
	// Text is the block's own text without the lines of its children and
	// without list or heading markers.
	Text     string
	Markdown string
}

type Note struct {
	Title     string
	CreatedAt time.Time
	Blocks    []NoteBlock
}

// ParseNote splits a note into its title, creation time and block tree. The
// title comes from the frontmatter, then the first H1, then the file name.
func ParseNote(relPath, input string) Note {
	body, fm := splitFrontmatter(input)
	note := Note{
		Title:  parseTitle(body, fm),
		Blocks: ParseNoteBlocks(body),
	}
	if note.Title == "" {
		note.Title = strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	}
	if created, ok := parseCreated(fm["created"]); ok {
		note.CreatedAt = created
	}
	return note
}

// ParseNoteBlocks returns the blocks of a note body in document order. The
// implicit page root has ID 1 and is not returned; top level blocks have
// ParentID 1.
func ParseNoteBlocks(body string) []NoteBlock {
	lines := strings.Split(body, "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}

	type builder struct {
		NoteBlock
		indent int
		isList bool
	}
	builders := make([]builder, 0, 24)
	add := func(parentID, level, line, indent int, isList bool) int {
		builders = append(builders, builder{
			NoteBlock: NoteBlock{ID: len(builders) + 1, ParentID: parentID, Level: level, StartLine: line, EndLine: line},
			indent:    indent,
			isList:    isList,
		})
		return len(builders) - 1
	}

	root := add(0, 0, 1, 0, false)
	builders[root].EndLine = len(lines)
	headers := []int{root}
	var open []int

	closeWhile := func(cond func(idx int) bool, endLine int) {
		for len(open) > 0 {
			top := open[len(open)-1]
			if !cond(top) {
				return
			}
			open = open[:len(open)-1]
			builders[top].EndLine = max(endLine, builders[top].StartLine)
		}
	}
	closeAll := func(endLine int) { closeWhile(func(int) bool { return true }, endLine) }
	container := func() int {
		if len(open) > 0 {
			return open[len(open)-1]
		}
		return headers[len(headers)-1]
	}
	child := func(parent, line, indent int, isList bool) int {
		p := builders[parent]
		return add(p.ID, p.Level+1, line, indent, isList)
	}
	extend := func(line int) {
		for _, idx := range open {
			builders[idx].EndLine = max(builders[idx].EndLine, line)
		}
	}

	inFence := false
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		indent := countIndent(line)
		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				closeWhile(func(idx int) bool {
					b := builders[idx]
					if b.isList {
						return indent < b.indent+2
					}
					return indent < b.indent
				}, lineNo-1)
				if len(open) == 0 {
					open = append(open, child(container(), lineNo, indent, false))
				}
			}
			inFence = !inFence
			extend(lineNo)
			continue
		}
		if inFence {
			extend(lineNo)
			continue
		}

		if level, _, ok := parseATXHeading(line); ok {
			closeAll(lineNo - 1)
			for len(headers) > 1 && builders[headers[len(headers)-1]].Level >= level {
				headers = headers[:len(headers)-1]
			}
			parent := headers[len(headers)-1]
			headers = append(headers, add(builders[parent].ID, level, lineNo, indent, false))
			continue
		}
		if trimmed == "---" {
			closeAll(lineNo - 1)
			continue
		}
		if trimmed == "" {
			// a blank line ends a paragraph but not a list item
			closeWhile(func(idx int) bool { return !builders[idx].isList }, lineNo-1)
			continue
		}

		isList := isListMarkerLine(line)
		closeWhile(func(idx int) bool {
			b := builders[idx]
			if b.isList {
				return indent <= b.indent && (isList || indent < b.indent+2)
			}
			return indent < b.indent || (isList && indent <= b.indent)
		}, lineNo-1)

		if isList || len(open) == 0 {
			open = append(open, child(container(), lineNo, indent, isList))
			extend(lineNo)
			continue
		}
		top := builders[open[len(open)-1]]
		if top.isList && indent >= top.indent+4 {
			open = append(open, child(open[len(open)-1], lineNo, indent, false))
		}
		extend(lineNo)
	}
	closeAll(len(lines))

	// headings span until the next heading of the same or a higher level
	for i := range builders {
		b := &builders[i]
		if b.ParentID == 0 {
			continue
		}
		level, _, ok := parseATXHeading(lines[b.StartLine-1])
		if !ok {
			continue
		}
		b.EndLine = len(lines)
		for j := i + 1; j < len(builders); j++ {
			if l, _, ok := parseATXHeading(lines[builders[j].StartLine-1]); ok && l <= level {
				b.EndLine = builders[j].StartLine - 1
				break
			}
		}
	}

	firstChild := make(map[int]int, len(builders))
	for _, b := range builders {
		if _, ok := firstChild[b.ParentID]; !ok {
			firstChild[b.ParentID] = b.StartLine
		}
	}

	blocks := make([]NoteBlock, 0, len(builders))
	for _, b := range builders[1:] {
		block := b.NoteBlock
		start, end := trimBlank(lines, block.StartLine, min(block.EndLine, len(lines)))
		if start > end {
			continue
		}
		block.StartLine, block.EndLine = start, end
		block.Markdown = strings.Join(lines[start-1:end], "\n")

		ownEnd := end
		if next, ok := firstChild[block.ID]; ok && next > start {
			ownEnd = min(end, next-1)
		}
		block.Text = ownText(lines[start-1 : ownEnd])
		if block.Text == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func trimBlank(lines []string, start, end int) (int, int) {
	for start <= end && strings.TrimSpace(lines[start-1]) == "" {
		start++
	}
	for end >= start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return start, end
}

func ownText(lines []string) string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 {
			if _, text, ok := parseATXHeading(line); ok {
				line = text
			} else {
				line = stripListMarker(line)
			}
		}
		if line == "" && len(out) == 0 {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func stripListMarker(line string) string {
	if !isListMarkerLine(line) {
		return line
	}
	trimmed := strings.TrimLeft(line, " \t")
	switch trimmed[0] {
	case '-', '*', '+':
		return strings.TrimSpace(trimmed[1:])
	}
	i := strings.IndexAny(trimmed, ".)")
	return strings.TrimSpace(trimmed[i+1:])
}

func isListMarkerLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) >= 2 {
		switch trimmed[0] {
		case '-', '*', '+':
			if trimmed[1] == ' ' || trimmed[1] == '\t' {
				return true
			}
		}
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(trimmed) {
		return false
	}
	if trimmed[i] != '.' && trimmed[i] != ')' {
		return false
	}
	return trimmed[i+1] == ' ' || trimmed[i+1] == '\t'
}

func countIndent(line string) int {
	cols := 0
	for _, r := range line {
		switch r {
		case ' ':
			cols++
		case '\t':
			cols += 4 - cols%4
		default:
			return cols
		}
	}
	return cols
}

func splitFrontmatter(input string) (string, map[string]string) {
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return input, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return input, nil
	}
	fm := make(map[string]string)
	for _, line := range lines[1:end] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fm[strings.ToLower(strings.TrimSpace(key))] = strings.Trim(strings.TrimSpace(val), "\"")
	}
	return strings.Join(lines[end+1:], "\n"), fm
}

func parseTitle(body string, fm map[string]string) string {
	if title := strings.TrimSpace(fm["title"]); title != "" {
		return title
	}
	for _, line := range strings.Split(body, "\n") {
		if level, text, ok := parseATXHeading(line); ok && level == 1 {
			return text
		}
	}
	return ""
}

func parseCreated(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseATXHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || len(trimmed) == level {
		return 0, "", false
	}
	if trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(trimmed[level:]), "#"))
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}
