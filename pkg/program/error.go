package program

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax         = errors.New("syntax error")
	ErrUndefinedLabel = errors.New("undefined label")
)

// LoadError reports why program text could not be loaded. Kind is one of
// the sentinel errors above and is matched with errors.Is.
type LoadError struct {
	Kind error
	Line int    // 1-based source line
	Name string // label name for ErrUndefinedLabel
	Text string // offending source text
}

func (e *LoadError) Error() string {
	if errors.Is(e.Kind, ErrUndefinedLabel) {
		return fmt.Sprintf("Undefined label '%s' at 3AC line %d", e.Name, e.Line)
	}
	return fmt.Sprintf("Syntax error at line %d: '%s'", e.Line, e.Text)
}

func (e *LoadError) Unwrap() error {
	return e.Kind
}

func syntaxError(line int, text string) *LoadError {
	return &LoadError{Kind: ErrSyntax, Line: line, Text: text}
}

func undefinedLabel(line int, name string) *LoadError {
	return &LoadError{Kind: ErrUndefinedLabel, Line: line, Name: name}
}
