package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	mdast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Fence languages understood inside a suite test case.
const (
	FenceProgram = "program"
	FenceInput   = "input"
	FenceOutput  = "output"
	FenceError   = "error"
	FenceLang    = "lang"
)

// ExtractSuite parses a Markdown document into scenarios. Each scenario
// starts at a heading of the form "Test: <name>" and is built from the
// fenced code blocks that follow it:
//
//	## Test: print literal
//
//	```program
//	stmts:
//	  - expr: {call: {name: print, args: [{int: 5}]}}
//	```
//
//	```output
//	5
//	```
//
// A test needs a program fence and at least one of output or error. Prose
// and unlabeled code blocks are ignored.
func ExtractSuite(markdown []byte) ([]*Scenario, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var (
		scenarios []*Scenario
		current   *suiteCase
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		s, err := current.scenario()
		if err != nil {
			return err
		}
		scenarios = append(scenarios, s)
		return nil
	}

	err := mdast.Walk(doc, func(node mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if !entering {
			return mdast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *mdast.Heading:
			heading := headingText(n, markdown)
			if !strings.HasPrefix(heading, "Test: ") {
				return mdast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return mdast.WalkStop, err
			}
			current = &suiteCase{name: strings.TrimSpace(strings.TrimPrefix(heading, "Test: ")), line: lineOf(n, markdown)}

		case *mdast.FencedCodeBlock:
			language := string(n.Language(markdown))
			if language == "" {
				return mdast.WalkContinue, nil
			}
			line := lineOf(n, markdown)
			if current == nil {
				return mdast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
			}
			if err := current.add(language, blockContent(n, markdown), line); err != nil {
				return mdast.WalkStop, err
			}
		}
		return mdast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// LoadSuite reads and parses a Markdown suite file.
func LoadSuite(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	scenarios, err := ExtractSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

type suiteCase struct {
	name   string
	line   int
	fences map[string]string
}

func (c *suiteCase) add(language, content string, line int) error {
	switch language {
	case FenceProgram, FenceInput, FenceOutput, FenceError, FenceLang:
	default:
		return fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, c.name)
	}
	if c.fences == nil {
		c.fences = make(map[string]string)
	}
	if _, dup := c.fences[language]; dup {
		return fmt.Errorf("line %d: multiple %s fences found in test '%s'", line, language, c.name)
	}
	c.fences[language] = content
	return nil
}

func (c *suiteCase) scenario() (*Scenario, error) {
	prog, ok := c.fences[FenceProgram]
	if !ok {
		return nil, fmt.Errorf("line %d: test '%s' has no program fence", c.line, c.name)
	}
	output, hasOutput := c.fences[FenceOutput]
	errText, hasError := c.fences[FenceError]
	if !hasOutput && !hasError {
		return nil, fmt.Errorf("line %d: test '%s' has neither an output nor an error fence", c.line, c.name)
	}

	s := &Scenario{
		Name:  c.name,
		Lang:  strings.TrimSpace(c.fences[FenceLang]),
		Input: c.fences[FenceInput],
	}
	if err := yaml.Unmarshal([]byte(prog), &s.Program); err != nil {
		return nil, fmt.Errorf("line %d: test '%s': program fence: %w", c.line, c.name, err)
	}
	if hasOutput {
		s.Expect.Output = splitLines(output)
	}
	if hasError {
		s.Expect.Error = strings.TrimSpace(errText)
	}
	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("line %d: test '%s': %w", c.line, c.name, err)
	}
	return s, nil
}

func headingText(node mdast.Node, source []byte) string {
	var buf bytes.Buffer
	mdast.Walk(node, func(n mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*mdast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return mdast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *mdast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the node's first content line.
func lineOf(node mdast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
