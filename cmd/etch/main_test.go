package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

// captureStderr redirects stderr to a pipe for the duration of fn, returning
// everything written to it. run() takes *os.File (matching os.Stdout/Stderr
// in main()), so a real pipe is needed rather than a bytes.Buffer.
func captureStderr(t *testing.T, fn func(w *os.File)) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	done := make(chan string, 1)
	go func() {
		var sb strings.Builder
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			sb.WriteString(scanner.Text())
			sb.WriteByte('\n')
		}
		done <- sb.String()
	}()

	fn(w)
	w.Close()
	return <-done
}

func writeTempSource(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.etch")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReportsUsageWithWrongArgCount(t *testing.T) {
	var code int
	out := captureStderr(t, func(w *os.File) {
		code = run([]string{}, os.Stdout, w)
	})
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(out, "usage:") {
		t.Errorf("stderr = %q, want a usage message", out)
	}
}

func TestRunReportsMissingSourceFile(t *testing.T) {
	var code int
	out := captureStderr(t, func(w *os.File) {
		code = run([]string{filepath.Join(t.TempDir(), "missing.etch")}, os.Stdout, w)
	})
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if out == "" {
		t.Error("expected an error message for a missing source file")
	}
}

func TestRunReportsNoFrontendRegistered(t *testing.T) {
	saved := ParseSource
	ParseSource = nil
	defer func() { ParseSource = saved }()

	path := writeTempSource(t, "irrelevant, since ParseSource is nil")
	var code int
	out := captureStderr(t, func(w *os.File) {
		code = run([]string{"-no-cache", path}, os.Stdout, w)
	})
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "no frontend registered") {
		t.Errorf("stderr = %q, want it to mention the missing frontend", out)
	}
}

func TestRunCompilesAndExecutesWithStubFrontend(t *testing.T) {
	saved := ParseSource
	ParseSource = func(filename string, src []byte) (*ast.Program, error) {
		prog := ast.NewProgram()
		prog.Funs["main"] = []*ast.FunDecl{{
			Name:       "main",
			ReturnType: types.TInt(),
			Body: []ast.Stmt{
				{Kind: ast.SReturn, Value: &ast.Expr{
					Kind: ast.EBinary, Op: "+",
					X:    &ast.Expr{Kind: ast.EInt, IntVal: 2},
					Y:    &ast.Expr{Kind: ast.EInt, IntVal: 3},
				}},
			},
		}}
		return prog, nil
	}
	defer func() { ParseSource = saved }()

	path := writeTempSource(t, "func main() int { return 2 + 3; }")
	var code int
	out := captureStderr(t, func(w *os.File) {
		code = run([]string{"-no-cache", "-verbose", path}, os.Stdout, w)
	})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr=%q", code, out)
	}
}
