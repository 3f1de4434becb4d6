package types_test

import (
	"testing"

	"github.com/kunitoki/etch-sub002/internal/types"
)

func TestEqualStructuralComparison(t *testing.T) {
	if !types.Equal(types.TInt(), types.TInt()) {
		t.Error("two distinct *Type int nodes should be Equal")
	}
	if types.Equal(types.TInt(), types.TFloat()) {
		t.Error("int and float should not be Equal")
	}
	if !types.Equal(types.TArray(types.TInt()), types.TArray(types.TInt())) {
		t.Error("array[int] should equal array[int]")
	}
	if types.Equal(types.TArray(types.TInt()), types.TArray(types.TFloat())) {
		t.Error("array[int] should not equal array[float]")
	}
	if !types.Equal(nil, nil) {
		t.Error("nil should equal nil")
	}
	if types.Equal(types.TInt(), nil) {
		t.Error("int should not equal nil")
	}
}

func TestEqualComparesNamedKindsByName(t *testing.T) {
	if types.Equal(types.TUserDefined("Foo"), types.TUserDefined("Bar")) {
		t.Error("differently-named user types should not be Equal")
	}
	if !types.Equal(types.TUserDefined("Foo"), types.TUserDefined("Foo")) {
		t.Error("identically-named user types should be Equal")
	}
}

func TestIsGenericDetectsNestedTypeVariable(t *testing.T) {
	if types.IsGeneric(types.TInt()) {
		t.Error("int is not generic")
	}
	if !types.IsGeneric(types.TGeneric("T")) {
		t.Error("generic(T) is generic")
	}
	if !types.IsGeneric(types.TArray(types.TGeneric("T"))) {
		t.Error("array[generic(T)] should be reported as generic")
	}
	if !types.IsGeneric(types.TResult(types.TGeneric("T"), types.TInt())) {
		t.Error("result[generic(T),int] should be reported as generic (Ok side)")
	}
}

func TestResolveSubstitutesGenericNodes(t *testing.T) {
	generic := types.TArray(types.TGeneric("T"))
	resolved := types.Resolve(generic, map[string]*types.Type{"T": types.TInt()})
	if !types.Equal(resolved, types.TArray(types.TInt())) {
		t.Errorf("Resolve(array[generic(T)], T->int) = %s, want array[int]", resolved.String())
	}
	if types.IsGeneric(resolved) {
		t.Error("resolved type should no longer be generic")
	}
	// The original tree must be left untouched.
	if !types.IsGeneric(generic) {
		t.Error("Resolve must not mutate its input")
	}
}

func TestResolveLeavesUnmappedNamesAsIs(t *testing.T) {
	generic := types.TGeneric("U")
	resolved := types.Resolve(generic, map[string]*types.Type{"T": types.TInt()})
	if resolved.Kind != types.Generic || resolved.Name != "U" {
		t.Errorf("Resolve with no matching substitution = %+v, want unchanged generic(U)", resolved)
	}
}

func TestStringRendersCompositeTypesUnambiguously(t *testing.T) {
	cases := []struct {
		typ  *types.Type
		want string
	}{
		{types.TInt(), "int"},
		{types.TArray(types.TInt()), "array[int]"},
		{types.TRef(types.TString()), "ref[string]"},
		{types.TResult(types.TInt(), types.TString()), "result[int,string]"},
		{types.NilType(), "ref[void]"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestIsNilTypeOnlyMatchesRefVoid(t *testing.T) {
	if !types.IsNilType(types.NilType()) {
		t.Error("NilType() should be IsNilType")
	}
	if types.IsNilType(types.TRef(types.TInt())) {
		t.Error("ref[int] should not be IsNilType")
	}
	if types.IsNilType(types.TInt()) {
		t.Error("int should not be IsNilType")
	}
}

func TestIsNumeric(t *testing.T) {
	if !types.IsNumeric(types.TInt()) || !types.IsNumeric(types.TFloat()) {
		t.Error("int and float should be numeric")
	}
	if types.IsNumeric(types.TString()) || types.IsNumeric(types.TBool()) {
		t.Error("string and bool should not be numeric")
	}
}
