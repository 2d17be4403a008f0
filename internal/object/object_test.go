package object

import (
	"errors"
	"strings"
	"testing"
)

func TestObjectPropertyOrder(t *testing.T) {
	o := NewObject()
	o.Set("b", &Number{Value: 1})
	o.Set("2", &Number{Value: 2})
	o.Set("a", &Number{Value: 3})
	o.Set("1", &Number{Value: 4})
	o.Set("b", &Number{Value: 5})

	if got := strings.Join(o.Keys(), ","); got != "1,2,b,a" {
		t.Fatalf("unexpected key order %q", got)
	}
	if got := o.Inspect(); got != "{ 1: 4, 2: 2, b: 5, a: 3 }" {
		t.Fatalf("unexpected inspect %q", got)
	}
	if !o.Delete("b") || o.Delete("b") {
		t.Fatal("delete should succeed exactly once")
	}
}

func TestObjectPrototypeAndHandler(t *testing.T) {
	proto := NewObject()
	proto.Set("greet", &String{Value: "hi"})
	o := NewObject()
	o.Proto = proto

	if v, ok := o.Get("greet"); !ok || v.Inspect() != "hi" {
		t.Fatalf("expected inherited property, got %v %v", v, ok)
	}
	if _, ok := o.GetOwn("greet"); ok {
		t.Fatal("inherited property reported as own")
	}

	var stored Value
	o.Handler = PropertyFuncs{
		Get: func(name string) (Value, bool) {
			if name == "native" {
				return &Number{Value: 7}, true
			}
			return nil, false
		},
		Set: func(name string, v Value) bool {
			if name == "native" {
				stored = v
				return true
			}
			return false
		},
	}
	if v, ok := o.Get("native"); !ok || v.Inspect() != "7" {
		t.Fatalf("handler get failed: %v", v)
	}
	o.Set("native", TRUE)
	if stored != TRUE {
		t.Fatal("handler set not called")
	}
	if _, ok := o.GetOwn("native"); !ok {
		t.Fatal("handler property should stay visible")
	}
	o.Set("plain", NULL)
	if v, _ := o.GetOwn("plain"); v != NULL {
		t.Fatal("unhandled property should be stored on the object")
	}
}

func TestEnvironmentScopes(t *testing.T) {
	global := NewObject()
	genv := NewGlobalEnvironment(global)
	fn := NewFunctionEnvironment(genv)
	block := NewEnclosedEnvironment(fn)

	block.DeclareVar("v")
	if _, ok := fn.GetHere("v"); !ok {
		t.Fatal("var should land in the function scope")
	}
	block.Declare("c", &Number{Value: 1}, false)
	if !block.IsConst("c") {
		t.Fatal("expected const binding")
	}
	if _, ok := fn.Get("c"); ok {
		t.Fatal("block binding leaked to function scope")
	}

	genv.DeclareVar("g")
	if _, ok := global.GetOwn("g"); !ok {
		t.Fatal("global var should be a global object property")
	}
	global.Set("h", TRUE)
	if v, ok := block.Get("h"); !ok || v != TRUE {
		t.Fatal("global object property should be visible through the chain")
	}
	if _, ok := block.Assign("h", FALSE); !ok {
		t.Fatal("assign to global property failed")
	}
	if v, _ := global.GetOwn("h"); v != FALSE {
		t.Fatal("assignment did not reach the global object")
	}
	if _, ok := block.Assign("missing", TRUE); ok {
		t.Fatal("assign to unbound name should fail")
	}
}

func TestEnvironmentLink(t *testing.T) {
	exporter := NewEnvironment()
	exporter.Set("count", &Number{Value: 1})
	importer := NewEnvironment()
	if !importer.Link("n", exporter, "count") {
		t.Fatal("link failed")
	}
	exporter.Assign("count", &Number{Value: 2})
	if v, _ := importer.Get("n"); v.Inspect() != "2" {
		t.Fatalf("linked binding is not live, got %s", v.Inspect())
	}
	if !importer.IsConst("n") {
		t.Fatal("imported binding should be read-only")
	}
	if importer.Link("x", exporter, "missing") {
		t.Fatal("link to missing export should fail")
	}
}

func TestExceptionError(t *testing.T) {
	exc := ThrowError(KindTypeError, "%s is not a function", "f")
	errVal, ok := exc.ErrorValue()
	if !ok || errVal.Kind != KindTypeError {
		t.Fatalf("unexpected exception value %v", exc.Value)
	}
	errVal.SourceURL = "a.tn"
	errVal.Line, errVal.Column = 3, 4
	if got := exc.Error(); got != "TypeError: f is not a function (a.tn:3:4)" {
		t.Fatalf("unexpected error string %q", got)
	}

	var err error = Throw(&String{Value: "boom"})
	var target *Exception
	if !errors.As(err, &target) || target.Kind() != "" {
		t.Fatal("expected plain thrown value")
	}
	if got := err.Error(); got != "uncaught 'boom'" {
		t.Fatalf("unexpected error string %q", got)
	}
}
