package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/qube/internal/model"
)

const (
	aliceToken = "alice-token" // admin of acme:api and acme:portfolio, provisioner of acme
	bobToken   = "bob-token"   // no permissions
	carolToken = "carol-token" // administrator of the acme organization
)

type fixture struct {
	srv       *ProjectServer
	store     *mockStore
	indexer   *recordingIndexer
	publisher *recordingPublisher
	alice     *Session
	bob       *Session
	carol     *Session
}

func int64p(v int64) *int64 { return &v }

// newFixture returns a server over organization acme with a public project
// acme:api (id 1) holding one file, and a public view acme:portfolio (id 3).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := newMockStore()
	ms.orgs["acme"] = &model.Organization{UUID: "org-1", Key: "acme", Name: "Acme"}
	ms.components["acme:api"] = &model.Component{
		ID: 1, UUID: "p-1", OrganizationUUID: "org-1", RootUUID: "p-1", Key: "acme:api", Name: "API",
		Scope: model.ScopeProject, Qualifier: model.QualifierProject, Tags: []string{"go"},
	}
	ms.components["acme:api:main.go"] = &model.Component{
		ID: 2, UUID: "f-1", OrganizationUUID: "org-1", RootUUID: "p-1", Key: "acme:api:main.go", Name: "main.go",
		Scope: model.ScopeFile, Qualifier: model.QualifierFile, Path: "main.go", Language: "go",
	}
	ms.components["acme:portfolio"] = &model.Component{
		ID: 3, UUID: "v-1", OrganizationUUID: "org-1", RootUUID: "v-1", Key: "acme:portfolio", Name: "Portfolio",
		Scope: model.ScopeProject, Qualifier: model.QualifierView,
	}

	alice := &model.User{ID: 5, Login: "alice", Active: true}
	bob := &model.User{ID: 6, Login: "bob", Active: true}
	carol := &model.User{ID: 7, Login: "carol", Active: true}
	ms.users[hashToken(aliceToken)] = alice
	ms.users[hashToken(bobToken)] = bob
	ms.users[hashToken(carolToken)] = carol

	ms.userPerms = []model.UserPermission{
		{OrganizationUUID: "org-1", UserID: 5, ResourceID: int64p(1), Role: model.PermissionAdmin},
		{OrganizationUUID: "org-1", UserID: 5, ResourceID: int64p(3), Role: model.PermissionAdmin},
		{OrganizationUUID: "org-1", UserID: 5, Role: model.OrganizationProvisioning},
		{OrganizationUUID: "org-1", UserID: 7, Role: model.OrganizationAdminister},
	}

	ix := &recordingIndexer{}
	pub := &recordingPublisher{}
	return &fixture{
		srv:       NewProjectServer(ms, pub, ix, Options{DefaultOrganization: "acme"}),
		store:     ms,
		indexer:   ix,
		publisher: pub,
		alice:     UserSession(alice),
		bob:       UserSession(bob),
		carol:     UserSession(carol),
	}
}

// requireCode asserts that err is a gRPC error with the given status code.
func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected gRPC error with code %v, got nil", code)
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status error, got %v", err)
	}
	if st.Code() != code {
		t.Fatalf("expected code=%v, got %v (%s)", code, st.Code(), st.Message())
	}
}

// requireMessage asserts the status message of err.
func requireMessage(t *testing.T, err error, msg string) {
	t.Helper()
	if got := status.Convert(err).Message(); got != msg {
		t.Fatalf("expected message %q, got %q", msg, got)
	}
}

func TestSessionFrom_DefaultsToAnonymous(t *testing.T) {
	sess := SessionFrom(context.Background())
	if sess.IsLoggedIn() {
		t.Fatal("expected anonymous session")
	}
	if sess.Login() != "" {
		t.Errorf("Login() = %q, want empty", sess.Login())
	}
	requireCode(t, sess.CheckLoggedIn(), codes.Unauthenticated)
}

func TestHasComponentPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file, _ := f.store.GetComponentByKey(ctx, "acme:api:main.go")

	// Public permissions are implied on a public project, for anyone.
	for _, sess := range []*Session{AnonymousSession(), f.bob} {
		ok, err := sess.HasComponentPermission(ctx, f.store, model.PermissionUser, file)
		if err != nil || !ok {
			t.Fatalf("HasComponentPermission(user) = %v, %v; want true", ok, err)
		}
		ok, _ = sess.HasComponentPermission(ctx, f.store, model.PermissionAdmin, file)
		if ok {
			t.Fatal("admin granted without an explicit grant")
		}
	}

	// The file inherits the admin grant of its root.
	ok, err := f.alice.HasComponentPermission(ctx, f.store, model.PermissionAdmin, file)
	if err != nil || !ok {
		t.Fatalf("alice admin on file = %v, %v; want true", ok, err)
	}

	// Private projects need explicit grants.
	f.store.components["acme:api"].Private = true
	ok, _ = f.bob.HasComponentPermission(ctx, f.store, model.PermissionUser, file)
	if ok {
		t.Fatal("bob may browse a private project without a grant")
	}
}

func TestCheckOrganizationPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.carol.CheckOrganizationPermission(ctx, f.store, model.OrganizationAdminister, "org-1"); err != nil {
		t.Fatalf("carol: %v", err)
	}
	err := f.alice.CheckOrganizationPermission(ctx, f.store, model.OrganizationAdminister, "org-1")
	requireCode(t, err, codes.PermissionDenied)
	requireMessage(t, err, "Insufficient privileges")
}

func TestSessionResolver(t *testing.T) {
	ms := newMockStore()
	ms.users[hashToken("good")] = &model.User{ID: 1, Login: "u", Active: true}
	ms.users[hashToken("disabled")] = &model.User{ID: 2, Login: "d"}
	r := newSessionResolver(ms, 16, time.Minute)
	ctx := context.Background()

	sess, err := r.resolve(ctx, "")
	if err != nil || sess.IsLoggedIn() {
		t.Fatalf("empty header = %v, %v; want anonymous", sess, err)
	}
	for _, header := range []string{"Basic good", "Bearer ", "Bearer unknown", "Bearer disabled"} {
		if _, err := r.resolve(ctx, header); !errors.Is(err, errInvalidToken) {
			t.Errorf("resolve(%q) err = %v, want errInvalidToken", header, err)
		}
	}

	before := ms.tokenLookup
	for i := 0; i < 3; i++ {
		sess, err := r.resolve(ctx, "Bearer good")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if sess.Login() != "u" {
			t.Fatalf("Login() = %q, want u", sess.Login())
		}
	}
	if got := ms.tokenLookup - before; got != 1 {
		t.Errorf("store consulted %d times, want 1 (cached)", got)
	}

	uncached := newSessionResolver(ms, 16, 0)
	before = ms.tokenLookup
	_, _ = uncached.resolve(ctx, "Bearer good")
	_, _ = uncached.resolve(ctx, "Bearer good")
	if got := ms.tokenLookup - before; got != 2 {
		t.Errorf("uncached resolver consulted store %d times, want 2", got)
	}
}
