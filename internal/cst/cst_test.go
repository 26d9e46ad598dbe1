package cst

import "testing"

func TestParseWellFormedFile(t *testing.T) {
	src := `syntax = "proto3";
package foo.bar;

import "other.proto";

message Person {
  string name = 1;
  int32 id = 2;
  repeated string tags = 3;

  message Address {
    string city = 1;
  }

  oneof contact {
    string email = 4;
    string phone = 5;
  }
}

enum Status {
  UNKNOWN = 0;
  ACTIVE = 1;
}

service Greeter {
  rpc Greet(Person) returns (Status);
}
`
	tree := Parse(src)
	root := tree.Root()
	if root.Kind() != KindSourceFile {
		t.Fatalf("root kind = %q, want source_file", root.Kind())
	}

	var kinds []Kind
	for _, c := range root.NamedChildren() {
		kinds = append(kinds, c.Kind())
	}
	want := []Kind{KindSyntax, KindPackage, KindImport, KindMessage, KindEnum, KindService}
	if len(kinds) != len(want) {
		t.Fatalf("top-level named children = %v, want %v", kinds, want)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("child %d kind = %q, want %q", i, kinds[i], k)
		}
	}

	msg := root.ChildByKind(KindMessage)
	if msg == nil {
		t.Fatal("expected a message node")
	}
	name := msg.ChildByKind(KindMessageName)
	if name == nil || name.Text() != "Person" {
		t.Fatalf("message name = %+v, want Person", name)
	}
	body := msg.ChildByKind(KindMessageBody)
	if body == nil {
		t.Fatal("expected message body")
	}
	if nested := body.ChildByKind(KindMessage); nested == nil {
		t.Error("expected nested Address message inside Person")
	}
	if oneof := body.ChildByKind(KindOneof); oneof == nil {
		t.Error("expected oneof contact inside Person")
	}

	for _, n := range root.Children() {
		if n.IsError() {
			t.Errorf("unexpected ERROR node in well-formed input: %q", n.Text())
		}
	}
}

func TestParseTruncatedImport(t *testing.T) {
	// A cut-off import statement, as seen mid-keystroke.
	tree := Parse(`import "fo`)
	root := tree.Root()
	imp := root.ChildByKind(KindImport)
	if imp == nil {
		t.Fatal("expected an import node even when truncated")
	}
	str := imp.ChildByKind(KindStrLit)
	if str == nil {
		t.Fatal("expected a strLit child")
	}
	if str.IsMissing() {
		t.Error("strLit text was present, should not be MISSING")
	}
	semi := imp.ChildByKind(Kind(";"))
	if semi == nil || !semi.IsMissing() {
		t.Error("expected a MISSING ';' at end of truncated import")
	}
}

func TestParseEmptyMessageBody(t *testing.T) {
	tree := Parse(`message Foo`)
	msg := tree.Root().ChildByKind(KindMessage)
	if msg == nil {
		t.Fatal("expected a message node")
	}
	body := msg.ChildByKind(KindMessageBody)
	if body == nil {
		t.Fatal("expected a messageBody node even with no braces")
	}
	open := body.ChildByKind(Kind("{"))
	if open == nil || !open.IsMissing() {
		t.Error("expected a MISSING '{'")
	}
	close := body.ChildByKind(Kind("}"))
	if close == nil || !close.IsMissing() {
		t.Error("expected a MISSING '}'")
	}
}

func TestParseGarbageRecoversAsError(t *testing.T) {
	tree := Parse("message Foo { @@@ string x = 1; }")
	msg := tree.Root().ChildByKind(KindMessage)
	body := msg.ChildByKind(KindMessageBody)

	var sawError, sawField bool
	for _, c := range body.NamedChildren() {
		switch c.Kind() {
		case KindError:
			sawError = true
			if !c.IsError() {
				t.Error("ERROR node did not report IsError()")
			}
		case KindField:
			sawField = true
		}
	}
	if !sawError {
		t.Error("expected an ERROR node covering the garbage tokens")
	}
	if !sawField {
		t.Error("expected parsing to recover and still find the trailing field")
	}
}

func TestDescendantForByte(t *testing.T) {
	src := `message Foo {
  string name = 1;
}
`
	tree := Parse(src)
	offset := len("message Foo {\n  string ")
	n := tree.NamedDescendantForByte(offset)
	if n == nil {
		t.Fatal("expected a named descendant")
	}
	if n.Kind() != KindFieldName && n.AncestorByKind(KindField) == nil {
		t.Errorf("expected descendant within a field, got kind %q text %q", n.Kind(), n.Text())
	}
}

func TestEnumAndServiceNesting(t *testing.T) {
	tree := Parse(`
enum Color { RED = 0; GREEN = 1; }
service S { rpc M(Color) returns (Color); }
`)
	root := tree.Root()
	en := root.ChildByKind(KindEnum)
	if en == nil {
		t.Fatal("expected enum")
	}
	body := en.ChildByKind(KindEnumBody)
	var values int
	for _, c := range body.NamedChildren() {
		if c.Kind() == KindEnumValue {
			values++
		}
	}
	if values != 2 {
		t.Errorf("enum values = %d, want 2", values)
	}

	svc := root.ChildByKind(KindService)
	if svc == nil {
		t.Fatal("expected service")
	}
	rpc := svc.ChildByKind(KindServiceBody).ChildByKind(KindRPC)
	if rpc == nil {
		t.Fatal("expected rpc")
	}
	if rpc.ChildByKind(KindRPCName).Text() != "M" {
		t.Errorf("rpc name = %q, want M", rpc.ChildByKind(KindRPCName).Text())
	}
}
