package template

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrTemplate indicates the template file could not be read.
var ErrTemplate = errors.New("template: cannot read template")

// Substitution maps one literal placeholder token to its rendered value.
type Substitution struct {
	Token string
	Value string
}

// Substitutions holds one entry per distinct placeholder, in declaration order.
type Substitutions []Substitution

type Template struct {
	Path  string
	Lines []string
}

// Load reads a template from disk. Line terminators are kept on every line.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrTemplate, path, err)
	}
	t := Parse(string(data))
	t.Path = path
	return t, nil
}

func Parse(text string) *Template {
	return &Template{Lines: splitLines(text)}
}

// Render substitutes every placeholder on every line. Placeholders missing
// from a line are skipped; text that merely looks like a placeholder is left
// alone. There is no escaping.
func (t *Template) Render(subs Substitutions) string {
	var b strings.Builder
	for _, line := range t.Lines {
		for _, s := range subs {
			line = strings.ReplaceAll(line, s.Token, s.Value)
		}
		b.WriteString(line)
	}
	return b.String()
}

func Render(text string, subs Substitutions) string {
	return Parse(text).Render(subs)
}

// WriteFile replaces any previous rendered input at path.
func WriteFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0644)
}

// numberChars are the characters a formatted sweep value can contain.
const numberChars = "0123456789.-"

// ValidateTokens rejects empty, duplicate or overlapping tokens, and tokens
// using digits, '.' or '-'. Either could let one substitution rewrite text
// inserted by an earlier one, making the result depend on application order.
// Values are assumed to be formatted numbers.
func ValidateTokens(tokens []string) error {
	for i, a := range tokens {
		if a == "" {
			return fmt.Errorf("placeholder %d: empty token", i)
		}
		if strings.ContainsAny(a, numberChars) {
			return fmt.Errorf("placeholder %q uses a character that can appear in a value (%s)", a, numberChars)
		}
		for j, b := range tokens {
			if i == j {
				continue
			}
			if a == b {
				return fmt.Errorf("placeholder %q declared twice", a)
			}
			if strings.Contains(a, b) {
				return fmt.Errorf("placeholder %q contains placeholder %q", a, b)
			}
		}
	}
	return nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
