package extract

import (
	"context"
	"testing"

	"github.com/ravescovi/codegraph/internal/parser"
	"github.com/ravescovi/codegraph/internal/store"
)

func testExtract(t *testing.T, path, source string, lang parser.Language) *Result {
	t.Helper()
	registry := parser.NewRegistry(nil)
	t.Cleanup(registry.Close)
	e := New(registry)
	res := e.Extract(context.Background(), path, []byte(source), lang)
	if res == nil {
		t.Fatal("expected a result")
	}
	return res
}

func findNode(res *Result, kind store.NodeKind, name string) *store.Node {
	for _, n := range res.Nodes {
		if n.Kind == kind && n.Name == name {
			return n
		}
	}
	return nil
}

func findRef(res *Result, kind store.EdgeKind, name string) *store.UnresolvedRef {
	for _, r := range res.Refs {
		if r.ReferenceKind == kind && r.ReferenceName == name {
			return r
		}
	}
	return nil
}

const goSource = `package auth

import "fmt"

// AuthService handles user authentication.
type AuthService struct {
	db Database
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(email, password string) (string, error) {
	user := s.db.FindUserByEmail(email)
	if !verifyPassword(user, password) {
		return "", fmt.Errorf("bad credentials")
	}
	return generateToken(user), nil
}

func verifyPassword(u *User, password string) bool {
	return u.check(password)
}
`

func TestExtractGo(t *testing.T) {
	res := testExtract(t, "src/auth.go", goSource, parser.Go)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	file := findNode(res, store.KindFile, "auth.go")
	if file == nil {
		t.Fatal("expected a file node")
	}
	if file.QualifiedName != "src/auth.go" {
		t.Errorf("file qualified name = %q", file.QualifiedName)
	}

	svc := findNode(res, store.KindStruct, "AuthService")
	if svc == nil {
		t.Fatal("expected AuthService struct")
	}
	if svc.Docstring == "" || svc.Docstring != "AuthService handles user authentication." {
		t.Errorf("docstring = %q", svc.Docstring)
	}
	if !svc.IsExported || svc.Visibility != store.VisibilityPublic {
		t.Errorf("expected AuthService to be exported public, got %+v", svc)
	}

	login := findNode(res, store.KindMethod, "Login")
	if login == nil {
		t.Fatal("expected Login method")
	}
	if login.Signature == "" {
		t.Error("expected a signature for Login")
	}

	verify := findNode(res, store.KindFunction, "verifyPassword")
	if verify == nil {
		t.Fatal("expected verifyPassword function")
	}
	if verify.IsExported || verify.Visibility != store.VisibilityPrivate {
		t.Errorf("expected verifyPassword to be private, got %+v", verify)
	}

	// Calls from Login attach to the method node, member access yields the
	// property name.
	for _, callee := range []string{"FindUserByEmail", "verifyPassword", "generateToken"} {
		ref := findRef(res, store.EdgeCalls, callee)
		if ref == nil {
			t.Errorf("expected call ref to %s", callee)
			continue
		}
		if ref.FromNodeID != login.ID {
			t.Errorf("call to %s should come from Login", callee)
		}
	}

	if ref := findRef(res, store.EdgeImports, "fmt"); ref == nil {
		t.Error("expected import ref to fmt")
	}

	// Containment: file contains the struct; a Go method is declared at top
	// level with a receiver, so the file also contains the method.
	var fileToSvc, fileToLogin bool
	for _, e := range res.Edges {
		if e.Kind != store.EdgeContains {
			continue
		}
		if e.SourceID == file.ID && e.TargetID == svc.ID {
			fileToSvc = true
		}
		if e.SourceID == file.ID && e.TargetID == login.ID {
			fileToLogin = true
		}
	}
	if !fileToSvc {
		t.Error("expected file to contain AuthService")
	}
	if !fileToLogin {
		t.Error("expected file to contain Login")
	}
}

func TestExtractDeterministicIDs(t *testing.T) {
	first := testExtract(t, "src/auth.go", goSource, parser.Go)
	second := testExtract(t, "src/auth.go", goSource, parser.Go)

	if len(first.Nodes) == 0 || len(first.Nodes) != len(second.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(first.Nodes), len(second.Nodes))
	}
	for i := range first.Nodes {
		if first.Nodes[i].ID != second.Nodes[i].ID {
			t.Errorf("id mismatch at %d: %s vs %s", i, first.Nodes[i].ID, second.Nodes[i].ID)
		}
	}
}

func TestNodeIDPureFunction(t *testing.T) {
	a := NodeID(store.KindFunction, "src/a.go", "hello", 10)
	b := NodeID(store.KindFunction, "src/a.go", "hello", 10)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if a == NodeID(store.KindFunction, "src/a.go", "hello", 11) {
		t.Error("different line should change the id")
	}
	if a == NodeID(store.KindMethod, "src/a.go", "hello", 10) {
		t.Error("different kind should change the id")
	}
}

const tsSource = `import { Router } from 'express'

// Greets the world.
export function hello(): string {
	return 'world'
}

export class UserService extends BaseService implements Service {
	private db: Database

	async findUser(email: string): Promise<User> {
		return this.db.query(email)
	}
}

const goodbye = async () => {
	await hello()
}
`

func TestExtractTypeScript(t *testing.T) {
	res := testExtract(t, "src/app.ts", tsSource, parser.TypeScript)

	hello := findNode(res, store.KindFunction, "hello")
	if hello == nil {
		t.Fatal("expected hello function")
	}
	if !hello.IsExported {
		t.Error("expected hello to be exported")
	}
	if hello.Docstring != "Greets the world." {
		t.Errorf("docstring = %q", hello.Docstring)
	}

	svc := findNode(res, store.KindClass, "UserService")
	if svc == nil {
		t.Fatal("expected UserService class")
	}
	if ref := findRef(res, store.EdgeExtends, "BaseService"); ref == nil || ref.FromNodeID != svc.ID {
		t.Error("expected extends ref to BaseService from UserService")
	}
	if ref := findRef(res, store.EdgeImplements, "Service"); ref == nil {
		t.Error("expected implements ref to Service")
	}

	find := findNode(res, store.KindMethod, "findUser")
	if find == nil {
		t.Fatal("expected findUser method")
	}
	if !find.IsAsync {
		t.Error("expected findUser to be async")
	}

	// Arrow function assigned to a const takes the variable name.
	goodbye := findNode(res, store.KindFunction, "goodbye")
	if goodbye == nil {
		t.Fatal("expected goodbye arrow function")
	}

	if ref := findRef(res, store.EdgeImports, "express"); ref == nil {
		t.Error("expected import ref to express")
	}
}

const pySource = `import os

class PaymentService:
    """Processes payments."""

    def process_payment(self, order):
        token = generate_token(order.user)
        return self.gateway.charge(order, token)

def _helper():
    pass
`

func TestExtractPython(t *testing.T) {
	res := testExtract(t, "src/pay.py", pySource, parser.Python)

	svc := findNode(res, store.KindClass, "PaymentService")
	if svc == nil {
		t.Fatal("expected PaymentService class")
	}
	if svc.Docstring != "Processes payments." {
		t.Errorf("docstring = %q", svc.Docstring)
	}

	process := findNode(res, store.KindMethod, "process_payment")
	if process == nil {
		t.Fatal("expected process_payment to be a method")
	}
	if process.QualifiedName != "src/pay.py::PaymentService::process_payment" {
		t.Errorf("qualified name = %q", process.QualifiedName)
	}

	helper := findNode(res, store.KindFunction, "_helper")
	if helper == nil {
		t.Fatal("expected _helper function")
	}
	if helper.Visibility != store.VisibilityPrivate {
		t.Errorf("expected _helper to be private, got %q", helper.Visibility)
	}

	if ref := findRef(res, store.EdgeCalls, "generate_token"); ref == nil {
		t.Error("expected call ref to generate_token")
	}
	if ref := findRef(res, store.EdgeCalls, "charge"); ref == nil {
		t.Error("expected attribute call to yield the property name")
	}
	if ref := findRef(res, store.EdgeImports, "os"); ref == nil {
		t.Error("expected import ref to os")
	}
}

func TestExtractParseFailureIsCaptured(t *testing.T) {
	res := testExtract(t, "src/broken.go", "package broken\n\nfunc ( {", parser.Go)
	if len(res.Errors) == 0 {
		t.Error("expected a parse error in the result")
	}
	// Partial results are kept; the file node at minimum.
	if len(res.Nodes) == 0 {
		t.Error("expected gathered nodes despite the parse error")
	}
}

func TestExtractUnsupportedLanguageIsEmpty(t *testing.T) {
	res := testExtract(t, "notes.txt", "hello", parser.Unknown)
	if len(res.Nodes) != 0 || len(res.Errors) != 0 {
		t.Errorf("expected empty result, got %d nodes %d errors", len(res.Nodes), len(res.Errors))
	}
}

func TestExtractVueComponent(t *testing.T) {
	src := `<template><div/></template>
<script>
import api from './api'

export default {
  name: 'LoginForm',
  methods: {
    submit() {
      api.login()
    }
  }
}
function validate(input) { return !!input }
</script>
`
	res := testExtract(t, "src/LoginForm.vue", src, parser.Vue)

	comp := findNode(res, store.KindComponent, "LoginForm")
	if comp == nil {
		t.Fatal("expected LoginForm component")
	}
	if fn := findNode(res, store.KindFunction, "validate"); fn == nil {
		t.Error("expected validate function")
	}
	if ref := findRef(res, store.EdgeImports, "./api"); ref == nil {
		t.Error("expected import ref to ./api")
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	if got := Snippet(string(long)); len(got) != snippetLimit {
		t.Errorf("snippet length = %d, want %d", len(got), snippetLimit)
	}
	if got := Snippet("short"); got != "short" {
		t.Errorf("short snippet altered: %q", got)
	}
}
