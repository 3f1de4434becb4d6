package ast_test

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/types"
)

func TestMangledKeyIsBareNameWithNoTypeArgs(t *testing.T) {
	if got := ast.MangledKey("identity", nil); got != "identity" {
		t.Errorf("MangledKey(identity, nil) = %q, want %q", got, "identity")
	}
}

func TestMangledKeyIsDeterministicAndOrderSensitive(t *testing.T) {
	a := ast.MangledKey("pair", []*types.Type{types.TInt(), types.TString()})
	b := ast.MangledKey("pair", []*types.Type{types.TInt(), types.TString()})
	c := ast.MangledKey("pair", []*types.Type{types.TString(), types.TInt()})

	if a != b {
		t.Errorf("MangledKey should be deterministic: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("MangledKey must be order-sensitive: %q == %q for swapped type args", a, c)
	}
}

func TestMangledKeyDistinguishesDistinctInstantiations(t *testing.T) {
	intKey := ast.MangledKey("box", []*types.Type{types.TInt()})
	floatKey := ast.MangledKey("box", []*types.Type{types.TFloat()})
	if intKey == floatKey {
		t.Errorf("box<int> and box<float> mangled to the same key %q", intKey)
	}
}
