package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type outcome int

const (
	expectOK outcome = iota
	expectError
	expectErrorContains
)

type stdoutMode int

const (
	stdoutAny stdoutMode = iota
	stdoutExact
	stdoutContains
	stdoutFile
)

// expectation is read from the leading "// expect:" comments of a test
// file.
type expectation struct {
	outcome    outcome
	substring  string
	stdout     stdoutMode
	stdoutText string

	hasOutcome bool
	hasStdout  bool
}

func newTestCmd(s *settings) *cobra.Command {
	var asModule bool
	cmd := &cobra.Command{
		Use:   "test [path...]",
		Short: "Run *.test.tn files and check their expect directives",
		Long: "Each test file may start with comment directives:\n" +
			"  // expect: ok | error | error contains \"text\"\n" +
			"  // expect: stdout \"text\" | stdout contains \"text\" | stdout file \"path\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			files, err := collectFiles(args, isTestFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "no tests found")
				return nil
			}
			passed, failed := 0, 0
			for _, path := range files {
				if reason := s.runTestFile(path, asModule); reason != "" {
					failed++
					fmt.Fprintf(out, "FAIL %s: %s\n", path, reason)
					continue
				}
				passed++
			}
			fmt.Fprintf(out, "passed %d, failed %d\n", passed, failed)
			if failed > 0 {
				return fmt.Errorf("%d tests failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asModule, "module", "m", false, "evaluate test files as modules")
	return cmd
}

func isTestFile(path string) bool {
	return strings.HasSuffix(path, ".test.tn")
}

// runTestFile returns why path failed, or "" when it passed.
func (s *settings) runTestFile(path string, asModule bool) string {
	exp, err := parseExpectation(path)
	if err != nil {
		return err.Error()
	}
	var stdout bytes.Buffer
	ctx, err := s.newContext(&stdout, filepath.Dir(path))
	if err != nil {
		return err.Error()
	}
	defer ctx.Release()

	gotErr := ""
	if _, err := runFile(ctx, path, asModule); err != nil {
		gotErr = err.Error()
	}
	log.Debug("test finished", "file", path, "err", gotErr)

	switch exp.outcome {
	case expectOK:
		if gotErr != "" {
			return "expected ok, got error: " + gotErr
		}
	case expectError, expectErrorContains:
		if gotErr == "" {
			return "expected error, got ok"
		}
		if exp.outcome == expectErrorContains && !strings.Contains(gotErr, exp.substring) {
			return fmt.Sprintf("error mismatch: expected to contain %q, got %q", exp.substring, gotErr)
		}
	}
	reason, err := matchStdout(stdout.String(), exp, filepath.Dir(path))
	if err != nil {
		return err.Error()
	}
	return reason
}

func matchStdout(got string, exp *expectation, baseDir string) (string, error) {
	got = normalizeNewlines(got)
	want := normalizeNewlines(exp.stdoutText)
	switch exp.stdout {
	case stdoutExact:
		if got != want {
			return fmt.Sprintf("stdout mismatch: expected %q, got %q", want, got), nil
		}
	case stdoutContains:
		if !strings.Contains(got, want) {
			return fmt.Sprintf("stdout mismatch: expected to contain %q, got %q", want, got), nil
		}
	case stdoutFile:
		p := exp.stdoutText
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		if got != normalizeNewlines(string(b)) {
			return fmt.Sprintf("stdout mismatch: expected file %q to match, got %q", exp.stdoutText, got), nil
		}
	}
	return "", nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func parseExpectation(path string) (*expectation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exp := &expectation{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			break
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if !strings.HasPrefix(strings.ToLower(comment), "expect:") {
			continue
		}
		if err := exp.apply(strings.TrimSpace(comment[len("expect:"):])); err != nil {
			return nil, fmt.Errorf("%s:%d: %v", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return exp, nil
}

// apply records one directive body.
func (e *expectation) apply(body string) error {
	lower := strings.ToLower(body)
	setOutcome := func(o outcome) error {
		if e.hasOutcome {
			return fmt.Errorf("multiple outcome expect directives")
		}
		e.hasOutcome = true
		e.outcome = o
		return nil
	}
	setStdout := func(m stdoutMode, prefix string) error {
		if e.hasStdout {
			return fmt.Errorf("multiple stdout expect directives")
		}
		v, err := parseQuoted(body[len(prefix):])
		if err != nil {
			return err
		}
		e.hasStdout = true
		e.stdout = m
		e.stdoutText = v
		return nil
	}

	switch {
	case lower == "ok":
		return setOutcome(expectOK)
	case lower == "error":
		return setOutcome(expectError)
	case strings.HasPrefix(lower, "error contains"):
		sub, err := parseQuoted(body[len("error contains"):])
		if err != nil {
			return err
		}
		e.substring = sub
		return setOutcome(expectErrorContains)
	case strings.HasPrefix(lower, "stdout file"):
		return setStdout(stdoutFile, "stdout file")
	case strings.HasPrefix(lower, "stdout contains"):
		return setStdout(stdoutContains, "stdout contains")
	case strings.HasPrefix(lower, "stdout"):
		return setStdout(stdoutExact, "stdout")
	}
	return fmt.Errorf("invalid expect directive")
}

func parseQuoted(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '"' {
		return "", fmt.Errorf("expected quoted string")
	}
	return strconv.Unquote(raw)
}
