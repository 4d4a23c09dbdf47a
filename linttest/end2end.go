package linttest

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

const markerKeyword = "Noncompliant"

var (
	markerRE = regexp.MustCompile(
		`^Noncompliant(?:@([+-]\d+))?(?:\s+(\d+))?(?:\s+\{\{(.*?)\}\})?((?:\s*\[\[[^\]]*\]\])*)\s*$`)
	markerOptionRE = regexp.MustCompile(`\[\[\s*(\w+)\s*=\s*([^\]]*)\]\]`)
)

// expectedIssue is one issue announced by a marker comment.
type expectedIssue struct {
	line       int
	markerLine int
	count      int

	message    string
	hasMessage bool

	// secondaryLines are absolute lines; nil unless declared.
	secondaryLines []int
	// secondaryCount is -1 unless declared.
	secondaryCount int
}

// goldenFile holds the issues a fixture expects, by line.
type goldenFile struct {
	filename string
	issues   map[int][]*expectedIssue
}

// markerText returns the body of a comment with the comment delimiters
// stripped and reports whether it is a marker.
func markerText(comment string) (string, bool) {
	var text string
	switch {
	case strings.HasPrefix(comment, "//"):
		text = comment[len("//"):]
	case strings.HasPrefix(comment, "/*"):
		text = strings.TrimSuffix(comment[len("/*"):], "*/")
	default:
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, strings.HasPrefix(text, markerKeyword)
}

// isNotMarker is the comment filter used for trees handed to rules.
func isNotMarker(c *ast.Comment) bool {
	_, ok := markerText(c.Text)
	return !ok
}

// newGoldenFile scans src for marker comments.
// It works on the token stream, so fixtures with syntax errors
// still have their markers parsed.
func newGoldenFile(filename string, src []byte) (*goldenFile, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(filename, -1, len(src))

	var s scanner.Scanner
	s.Init(file, src, nil, scanner.ScanComments)

	g := &goldenFile{filename: filename, issues: make(map[int][]*expectedIssue)}
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok != token.COMMENT {
			continue
		}
		text, ok := markerText(lit)
		if !ok {
			continue
		}
		line := fset.Position(pos).Line
		issue, err := parseMarker(text, line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, line, err)
		}
		g.issues[issue.line] = append(g.issues[issue.line], issue)
	}
	return g, nil
}

func parseMarker(text string, line int) (*expectedIssue, error) {
	m := markerRE.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("invalid marker %q", text)
	}
	issue := &expectedIssue{
		line:           line,
		markerLine:     line,
		count:          1,
		secondaryCount: -1,
	}
	if m[1] != "" {
		shift, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid line shift %q: %v", m[1], err)
		}
		issue.line += shift
	}
	if m[2] != "" {
		count, err := strconv.Atoi(m[2])
		if err != nil || count < 1 {
			return nil, fmt.Errorf("invalid issue count %q", m[2])
		}
		issue.count = count
	}
	if strings.Contains(text, "{{") {
		if m[3] == "" && !strings.Contains(text, "{{}}") {
			return nil, fmt.Errorf("invalid message in marker %q", text)
		}
		issue.message = m[3]
		issue.hasMessage = true
	}
	for _, opt := range markerOptionRE.FindAllStringSubmatch(m[4], -1) {
		if err := issue.setOption(opt[1], strings.TrimSpace(opt[2])); err != nil {
			return nil, err
		}
	}
	return issue, nil
}

func (issue *expectedIssue) setOption(key, value string) error {
	switch key {
	case "secondary":
		lines := []int{}
		if value != "" {
			for _, part := range strings.Split(value, ",") {
				shift, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return fmt.Errorf("invalid secondary line %q", part)
				}
				lines = append(lines, issue.line+shift)
			}
		}
		issue.secondaryLines = lines
		return nil
	case "secondaries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid secondaries count %q", value)
		}
		issue.secondaryCount = n
		return nil
	default:
		return fmt.Errorf("unknown marker option %q", key)
	}
}

// expand returns the expected issues of a line, one entry per
// expected diagnostic.
func (g *goldenFile) expand(line int) []*expectedIssue {
	var list []*expectedIssue
	for _, issue := range g.issues[line] {
		for i := 0; i < issue.count; i++ {
			list = append(list, issue)
		}
	}
	return list
}

func (g *goldenFile) total(line int) int {
	n := 0
	for _, issue := range g.issues[line] {
		n += issue.count
	}
	return n
}
