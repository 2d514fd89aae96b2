package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/looker/config"
	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/phrase"
)

func TestMain(m *testing.M) {
	prompt = func(string) (bool, error) { return false, nil }
	os.Exit(m.Run())
}

// run parses args like the looker binary and runs the selected command.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var cli struct {
		Commands
	}
	var out, errOut bytes.Buffer

	parser, err := kong.New(&cli,
		kong.Name("looker"),
		kong.Vars{"config_file": config.DefaultFile},
		kong.Writers(&out, &errOut),
		kong.Bind(&cli.Globals),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit with code %d", code) }),
	)
	assert.NoError(t, err)

	kctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = kctx.Run()
	return out.String(), errOut.String(), err
}

func writeSources(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	files := map[string]string{
		"main.c":    "int main(void) {\n\treturn foo(bar);\n}\n",
		"extra.c":   "void g() { foo(bar); }\n",
		"util.h":    "int foo(int bar);\n",
		"notes.txt": "foo(bar)\n",
	}
	for name, contents := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(contents), 0644))
	}
	return src
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr), "expected a CommandError, got %v", err)
	return cmdErr.ExitCode()
}

func TestBuildAndSearch(t *testing.T) {
	src := writeSources(t)
	idx := filepath.Join(t.TempDir(), ".looker")

	stdout, _, err := run(t, "build", src, "--index-dir", idx)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Indexed 3 files into")
	assert.True(t, index.Exists(idx))

	t.Run("WithoutContext", func(t *testing.T) {
		stdout, _, err := run(t, "search", "foo ( bar )", "--index-dir", idx, "-C", "0")
		assert.NoError(t, err)

		want := filepath.Join(src, "extra.c") + "\n" +
			"1  void g() { foo(bar); }\n" +
			"\n" +
			filepath.Join(src, "main.c") + "\n" +
			"2  \treturn foo(bar);\n"
		assert.Equal(t, want, stdout)
	})

	t.Run("Limit", func(t *testing.T) {
		stdout, _, err := run(t, "search", "foo(bar)", "--index-dir", idx, "--limit", "1")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "extra.c")
		assert.NotContains(t, stdout, "main.c")
	})

	t.Run("DefaultContext", func(t *testing.T) {
		stdout, _, err := run(t, "search", "return", "--index-dir", idx)
		assert.NoError(t, err)

		want := filepath.Join(src, "main.c") + "\n" +
			"1  int main(void) {\n" +
			"2  \treturn foo(bar);\n" +
			"3  }\n"
		assert.Equal(t, want, stdout)
	})

	t.Run("JSON", func(t *testing.T) {
		stdout, _, err := run(t, "search", "foo(bar)", "--index-dir", idx, "-C", "0", "--format", "json")
		assert.NoError(t, err)

		dec := json.NewDecoder(strings.NewReader(stdout))
		var got []jsonResult
		for dec.More() {
			var r jsonResult
			assert.NoError(t, dec.Decode(&r))
			got = append(got, r)
		}

		assert.Equal(t, []jsonResult{
			{
				File:  filepath.Join(src, "extra.c"),
				Spans: []phrase.Span{{Start: 11, End: 19}},
				Lines: []jsonLine{{Number: 1, Text: "void g() { foo(bar); }", Highlights: [][2]int{{11, 19}}}},
			},
			{
				File:  filepath.Join(src, "main.c"),
				Spans: []phrase.Span{{Start: 25, End: 33}},
				Lines: []jsonLine{{Number: 2, Text: "\treturn foo(bar);", Highlights: [][2]int{{8, 16}}}},
			},
		}, got)
	})

	t.Run("NoMatches", func(t *testing.T) {
		stdout, stderr, err := run(t, "search", "bar(foo)", "--index-dir", idx)
		assert.NoError(t, err)
		assert.Equal(t, "", stdout)
		assert.Contains(t, stderr, `No matches for "bar(foo)"`)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		_, stderr, err := run(t, "search", "  ", "--index-dir", idx)
		assert.Equal(t, 1, exitCode(t, err))
		assert.IsError(t, err, phrase.ErrEmptyQuery)
		assert.Contains(t, stderr, "nothing to search")
	})

	t.Run("SchemaMismatch", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "looker.yaml")
		assert.NoError(t, os.WriteFile(cfgPath, []byte("max_token_len: 8\n"), 0644))

		_, stderr, err := run(t, "--config", cfgPath, "search", "foo", "--index-dir", idx)
		assert.Equal(t, 1, exitCode(t, err))
		assert.IsError(t, err, index.ErrSchemaMismatch)
		assert.Contains(t, stderr, "index schema mismatch")
		assert.Contains(t, stderr, "looker build")
	})
}

func TestBuildExtensions(t *testing.T) {
	src := writeSources(t)
	idx := filepath.Join(t.TempDir(), "idx")

	stdout, _, err := run(t, "build", src, "--index-dir", idx, "-e", ".txt")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Indexed 1 file into")

	stdout, _, err = run(t, "search", "foo(bar)", "--index-dir", idx)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "notes.txt")
}

func TestSearchMissingIndex(t *testing.T) {
	_, stderr, err := run(t, "search", "foo", "--index-dir", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 1, exitCode(t, err))
	assert.IsError(t, err, index.ErrNotFound)
	assert.Contains(t, stderr, "index not found")
}

func TestDoctorLex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.c")
	assert.NoError(t, os.WriteFile(path, []byte("int x;\n  x++;\n"), 0644))

	stdout, _, err := run(t, "doctor", "lex", path)
	assert.NoError(t, err)

	want := fmt.Sprintf("%-12s %s    %q\n", "IDENT", "1:1", "int") +
		fmt.Sprintf("%-12s %s    %q\n", "IDENT", "1:5", "x") +
		fmt.Sprintf("%-12s %s    %q\n", "PUNCT", "1:6", ";") +
		fmt.Sprintf("%-12s %s    %q\n", "IDENT", "2:3", "x") +
		fmt.Sprintf("%-12s %s    %q\n", "OPERATOR", "2:4", "++") +
		fmt.Sprintf("%-12s %s    %q\n", "PUNCT", "2:6", ";")
	assert.Equal(t, want, stdout)

	stdout, _, err = run(t, "doctor", "lex", "--repr", path)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "[]lexer.Token{")
	assert.Contains(t, stdout, `Text: "++"`)
}

func TestDoctorMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.c")
	assert.NoError(t, os.WriteFile(path, []byte("a a a\nb\n"), 0644))

	stdout, stderr, err := run(t, "doctor", "match", "a a", path)
	assert.NoError(t, err)

	lines := strings.Split(stdout, "\n")
	assert.Equal(t, fmt.Sprintf("%-12s %s", "TERMS", `"a" "a"`), lines[0])
	assert.Equal(t, fmt.Sprintf("%-12s %s", "FAILURE", "0   1"), lines[1])
	assert.Equal(t, fmt.Sprintf("%-12s %s    %q", "SPAN", "1:1-1:6", "a a a"), lines[2])
	assert.Contains(t, stdout, "x.c\n1  a a a\n")
	assert.Contains(t, stderr, "2 occurrences, 1 span after merging overlaps")

	_, stderr, err = run(t, "doctor", "match", "   ", path)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "nothing to search")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)

	stdout, _, err := run(t, "init", path)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Wrote default configuration")

	cfg, err := config.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, config.New(), cfg)

	// The overwrite prompt declines under test.
	_, stderr, err := run(t, "init", path)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, stderr, "--force")

	_, _, err = run(t, "init", "--force", path)
	assert.NoError(t, err)
}

func TestGlobalsLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := (&Globals{}).Logger(&buf)
	quiet.Debug("hidden")
	quiet.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	verbose := (&Globals{Verbose: true}).Logger(&buf)
	verbose.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestIntOption(t *testing.T) {
	assert.Equal(t, 3, intOption(-1, 3))
	assert.Equal(t, 0, intOption(0, 3))
	assert.Equal(t, 7, intOption(7, 3))
	assert.Equal(t, "idx", indexDir("idx", config.New()))
	assert.Equal(t, ".looker", indexDir("", config.New()))
}

func TestSearchBuildsMissingIndexWhenConfirmed(t *testing.T) {
	src := writeSources(t)
	t.Chdir(src)

	prompt = func(string) (bool, error) { return true, nil }
	t.Cleanup(func() { prompt = func(string) (bool, error) { return false, nil } })

	idx := filepath.Join(t.TempDir(), "idx")
	stdout, _, err := run(t, "search", "foo(bar)", "--index-dir", idx, "-C", "0")
	assert.NoError(t, err)
	assert.Equal(t, "extra.c\n1  void g() { foo(bar); }\n\nmain.c\n2  \treturn foo(bar);\n", stdout)
	assert.True(t, index.Exists(idx))
}
