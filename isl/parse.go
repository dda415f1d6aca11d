package isl

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseProgram reads the ISL text form, one move per line. Blank lines
// and lines starting with '#' are ignored.
func ParseProgram(text string) (Program, error) {
	var prog Program
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m, err := ParseMove(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		prog = append(prog, m)
	}
	return prog, nil
}

// ParseMove reads a single move in its text form.
func ParseMove(line string) (Move, error) {
	verb, args, err := tokenize(line)
	if err != nil {
		return nil, err
	}
	switch verb {
	case "cut":
		switch len(args) {
		case 2:
			id, err := parseBlockId(args[0])
			if err != nil {
				return nil, err
			}
			p, err := parseInts(args[1], 2)
			if err != nil {
				return nil, err
			}
			return PCut{BlockID: id, Point: Point{X: p[0], Y: p[1]}}, nil
		case 3:
			id, err := parseBlockId(args[0])
			if err != nil {
				return nil, err
			}
			var o Orientation
			switch args[1] {
			case "X", "x":
				o = Vertical
			case "Y", "y":
				o = Horizontal
			default:
				return nil, fmt.Errorf("bad orientation %q", args[1])
			}
			n, err := parseInts(args[2], 1)
			if err != nil {
				return nil, err
			}
			return LCut{BlockID: id, Orientation: o, Line: n[0]}, nil
		}
		return nil, fmt.Errorf("cut takes 2 or 3 arguments, got %d", len(args))
	case "color":
		if len(args) != 2 {
			return nil, fmt.Errorf("color takes 2 arguments, got %d", len(args))
		}
		id, err := parseBlockId(args[0])
		if err != nil {
			return nil, err
		}
		c, err := parseInts(args[1], 4)
		if err != nil {
			return nil, err
		}
		col := Color{
			R: float32(c[0]) / 255.0,
			G: float32(c[1]) / 255.0,
			B: float32(c[2]) / 255.0,
			A: float32(c[3]) / 255.0,
		}
		return ColorMove{BlockID: id, Color: col}, nil
	case "swap", "merge":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s takes 2 arguments, got %d", verb, len(args))
		}
		a, err := parseBlockId(args[0])
		if err != nil {
			return nil, err
		}
		b, err := parseBlockId(args[1])
		if err != nil {
			return nil, err
		}
		if verb == "swap" {
			return Swap{A: a, B: b}, nil
		}
		return Merge{A: a, B: b}, nil
	}
	return nil, fmt.Errorf("unknown move %q", verb)
}

// tokenize splits "verb [a] [b, c]" into the verb and the bracket
// group contents.
func tokenize(line string) (string, []string, error) {
	open := strings.IndexByte(line, '[')
	if open < 0 {
		return "", nil, fmt.Errorf("malformed move %q", line)
	}
	verb := strings.TrimSpace(line[:open])
	var args []string
	rest := line[open:]
	for rest != "" {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("malformed move %q", line)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated bracket in %q", line)
		}
		args = append(args, strings.TrimSpace(rest[1:end]))
		rest = rest[end+1:]
	}
	return verb, args, nil
}

func parseBlockId(s string) (BlockId, error) {
	var id BlockId
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad block id %q: %w", s, err)
		}
		id = append(id, uint16(n))
	}
	return id, nil
}

func parseInts(s string, want int) ([]int32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("want %d components, got %d in %q", want, len(parts), s)
	}
	out := make([]int32, want)
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad integer in %q: %w", s, err)
		}
		out[i] = int32(n)
	}
	return out, nil
}
