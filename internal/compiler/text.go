package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/pulse/internal/ir"
)

// lineRe matches "<prefix><name> -> <dest>, <dest>". The destination list
// may be empty.
var lineRe = regexp.MustCompile(`^([%&]?)([A-Za-z0-9_]+)\s*->\s*(.*)$`)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ParseText parses the line-oriented description format. Declarations are
// returned in source order.
func ParseText(src []byte) ([]ir.NodeDecl, error) {
	var decls []ir.NodeDecl

	scanner := bufio.NewScanner(bytes.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &CompileError{
				Field:   "line",
				Message: fmt.Sprintf("expected \"name -> dest, ...\", got %q", line),
				Line:    lineNo,
			}
		}

		d := ir.NodeDecl{ID: ir.NodeID(m[2]), Kind: ir.KindRelay}
		switch m[1] {
		case "%":
			d.Kind = ir.KindToggle
		case "&":
			d.Kind = ir.KindGate
		}

		rest := strings.TrimSpace(m[3])
		if rest != "" {
			for _, part := range strings.Split(rest, ",") {
				dst := strings.TrimSpace(part)
				if !nameRe.MatchString(dst) {
					return nil, &CompileError{
						Field:   "destination",
						Message: fmt.Sprintf("invalid destination %q for node %q", dst, d.ID),
						Line:    lineNo,
					}
				}
				d.Destinations = append(d.Destinations, ir.NodeID(dst))
			}
		}
		decls = append(decls, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan network description: %w", err)
	}
	return decls, nil
}

// RenderText renders declarations back into the text format.
func RenderText(decls []ir.NodeDecl) string {
	var b strings.Builder
	for _, d := range decls {
		switch d.Kind {
		case ir.KindToggle:
			b.WriteByte('%')
		case ir.KindGate:
			b.WriteByte('&')
		}
		b.WriteString(string(d.ID))
		b.WriteString(" ->")
		for i, dst := range d.Destinations {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(string(dst))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
