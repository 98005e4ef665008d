package program

import (
	"strconv"
	"strings"

	"tacvm/pkg/value"
)

// Load parses program text into a Program with every jump target resolved.
func Load(text string) (*Program, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return LoadLines(strings.Split(text, "\n"))
}

// LoadLines parses program source lines. Labels bind to the index of the
// next emitted instruction; a redefined label silently takes the later index.
func LoadLines(lines []string) (*Program, error) {
	p := &Program{
		instructions: make([]Instruction, 0, len(lines)),
		labels:       make(map[string]int),
	}

	for n, raw := range lines {
		lineNo := n + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, ":") {
			name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
			if name == "" {
				return nil, syntaxError(lineNo, line)
			}
			p.labels[name] = len(p.instructions)
			continue
		}

		in, err := parseInstruction(line, lineNo)
		if err != nil {
			return nil, err
		}
		p.instructions = append(p.instructions, in)
	}

	// labels may be used before they are defined, so resolve only now
	if err := p.resolveLabels(); err != nil {
		return nil, err
	}

	return p, nil
}

func parseInstruction(line string, lineNo int) (Instruction, error) {
	m := instructionRegex.FindStringSubmatch(line)
	if m == nil {
		return Instruction{}, syntaxError(lineNo, line)
	}

	in := Instruction{
		Op:   Opcode(strings.ToUpper(m[1])),
		Line: lineNo,
	}

	rest := strings.TrimSpace(m[2])
	if rest == "" {
		return in, nil
	}

	parts, ok := splitOperands(rest)
	if !ok {
		return Instruction{}, syntaxError(lineNo, line)
	}

	in.Operands = make([]Operand, 0, len(parts))
	for _, part := range parts {
		op, ok := parseOperand(part)
		if !ok {
			return Instruction{}, syntaxError(lineNo, line)
		}
		in.Operands = append(in.Operands, op)
	}

	return in, nil
}

// parseOperand classifies one operand as a bool, string, int or float
// literal, falling back to a variable name.
func parseOperand(s string) (Operand, bool) {
	if s == "" {
		return Operand{}, false
	}

	switch strings.ToLower(s) {
	case "true":
		return Operand{Value: value.NewBool(true), Raw: s}, true
	case "false":
		return Operand{Value: value.NewBool(false), Raw: s}, true
	}

	if isStringLiteral(s) {
		return Operand{Value: value.NewString(s[1 : len(s)-1]), Raw: s}, true
	}

	switch matchNumber(s) {
	case litInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Operand{}, false
		}
		return Operand{Value: value.NewInt(i), Raw: s}, true
	case litFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Operand{}, false
		}
		return Operand{Value: value.NewFloat(f), Raw: s}, true
	}

	return Ref(s), true
}

// resolveLabels rewrites jump targets to instruction indices and checks that
// every CALL names a known label.
func (p *Program) resolveLabels() error {
	for idx := range p.instructions {
		in := &p.instructions[idx]

		switch {
		case in.Op.IsJump():
			if len(in.Operands) == 0 {
				return syntaxError(in.Line, string(in.Op))
			}
			target := in.Operands[0]
			pc, ok := p.labels[target.Name]
			if !target.IsRef() || !ok {
				return undefinedLabel(in.Line, target.Raw)
			}
			in.Operands[0] = Operand{Value: value.NewInt(int64(pc)), Label: target.Name, Raw: target.Raw}

		case in.Op == OpCall && len(in.Operands) > 0:
			target := in.Operands[0]
			if _, ok := p.labels[target.Name]; !target.IsRef() || !ok {
				return undefinedLabel(in.Line, target.Raw)
			}
		}
	}

	return nil
}
