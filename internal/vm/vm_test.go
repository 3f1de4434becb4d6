package vm

import (
	"bytes"
	"testing"

	"github.com/kunitoki/etch-sub002/internal/compiler"
)

func mainProgram(build func(c *compiler.Chunk)) *compiler.Program {
	c := compiler.NewChunk()
	build(c)
	return &compiler.Program{
		Chunk:     c,
		Functions: map[string]int{"main": 0},
		FuncDebug: map[string]compiler.FuncDebug{"main": {Name: "main"}},
	}
}

func TestRunReturnsLoadedInt(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 7, "")
		c.Emit(compiler.OpReturn, 0, "")
	})
	got, err := New(prog).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Kind != compiler.KindInt || got.Int != 7 {
		t.Fatalf("Run() = %+v, want int 7", got)
	}
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 1, "")
		c.Emit(compiler.OpLoadInt, 0, "")
		c.Emit(compiler.OpDiv, 0, "")
		c.Emit(compiler.OpReturn, 0, "")
	})
	if _, err := New(prog).Run(); err == nil {
		t.Fatal("expected a runtime error dividing by zero")
	}
}

func TestArrayGetOutOfBoundsIsRuntimeError(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 1, "")
		c.Emit(compiler.OpMakeArray, 1, "")
		c.Emit(compiler.OpLoadInt, 5, "")
		c.Emit(compiler.OpArrayGet, 0, "")
		c.Emit(compiler.OpReturn, 0, "")
	})
	if _, err := New(prog).Run(); err == nil {
		t.Fatal("expected a runtime error indexing out of bounds")
	}
}

func TestNewAndDerefRoundTrip(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 99, "")
		c.Emit(compiler.OpCall, 1, "new")
		c.Emit(compiler.OpCall, 1, "deref")
		c.Emit(compiler.OpReturn, 0, "")
	})
	got, err := New(prog).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Kind != compiler.KindInt || got.Int != 99 {
		t.Fatalf("Run() = %+v, want int 99", got)
	}
}

func TestDerefOfInvalidRefIsRuntimeError(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 42, "") // not a ref value
		c.Emit(compiler.OpCall, 1, "deref")
		c.Emit(compiler.OpReturn, 0, "")
	})
	if _, err := New(prog).Run(); err == nil {
		t.Fatal("expected a runtime error dereferencing a non-reference value")
	}
}

func TestPrintWritesToConfiguredOutput(t *testing.T) {
	idx := 0
	prog := mainProgram(func(c *compiler.Chunk) {
		idx = c.AddConstant("hello")
		c.Emit(compiler.OpLoadString, int64(idx), "")
		c.Emit(compiler.OpCall, 1, "println")
		c.Emit(compiler.OpLoadInt, 0, "")
		c.Emit(compiler.OpReturn, 0, "")
	})
	_ = idx
	var buf bytes.Buffer
	v := New(prog)
	v.SetOutput(&buf)
	if _, err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("output = %q, want %q", buf.String(), "hello\n")
	}
}

func TestInjectReachingVMIsRuntimeError(t *testing.T) {
	prog := mainProgram(func(c *compiler.Chunk) {
		c.Emit(compiler.OpLoadInt, 0, "")
		c.Emit(compiler.OpCall, 1, "inject")
		c.Emit(compiler.OpReturn, 0, "")
	})
	if _, err := New(prog).Run(); err == nil {
		t.Fatal("expected inject() reaching the VM to be a runtime error")
	}
}

func TestCallStackOverflowIsReportedAsRuntimeError(t *testing.T) {
	prog := &compiler.Program{
		Chunk:     compiler.NewChunk(),
		Functions: map[string]int{"main": 0, "recurse": 2},
		FuncDebug: map[string]compiler.FuncDebug{"main": {Name: "main"}, "recurse": {Name: "recurse"}},
	}
	prog.Chunk.Emit(compiler.OpCall, 0, "recurse")
	prog.Chunk.Emit(compiler.OpReturn, 0, "")
	prog.Chunk.Emit(compiler.OpCall, 0, "recurse")
	prog.Chunk.Emit(compiler.OpReturn, 0, "")

	if _, err := New(prog).Run(); err == nil {
		t.Fatal("expected unbounded recursion to be reported as a runtime error, not a host stack overflow")
	}
}
