package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cookiecutter/internal/client/blobs"
	"github.com/dmitrijs2005/cookiecutter/internal/client/generation"
	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
	"github.com/dmitrijs2005/cookiecutter/internal/client/notify"
	"github.com/dmitrijs2005/cookiecutter/internal/client/recipe"
	"github.com/dmitrijs2005/cookiecutter/internal/client/session"
	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (g *fakeGenerator) Generate(_ context.Context, _ recipe.Request, image models.Blob) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	release := g.release
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	return []byte("stl of " + image.Name), nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeIdentity struct {
	mu     sync.Mutex
	cred   string
	logins []string
	resets []string
}

func (f *fakeIdentity) Exchange(_ context.Context, token string) (string, error) {
	return f.cred, nil
}

func (f *fakeIdentity) Login(_ context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, email+":"+password)
	return f.cred, nil
}

func (f *fakeIdentity) RequestPasswordReset(context.Context, string, string) error { return nil }

func (f *fakeIdentity) ResetPassword(_ context.Context, token, newPassword string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, token+":"+newPassword)
	return "Password updated", nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	app      *App
	kv       *store.MemoryKV
	repo     *workspace.Repository
	editor   *generation.Editor
	gen      *fakeGenerator
	identity *fakeIdentity
	out      *syncBuffer
	dir      string
}

func signedToken(t *testing.T, email string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

// newHarness wires the real components around fake remote services. input
// is what the user types; passwords are read from it as well.
func newHarness(t *testing.T, kv *store.MemoryKV, input string) *harness {
	t.Helper()

	origTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origTerm })

	if kv == nil {
		kv = store.NewMemoryKV()
	}
	h := &harness{
		kv:       kv,
		gen:      &fakeGenerator{},
		identity: &fakeIdentity{cred: signedToken(t, "baker@example.com")},
		out:      &syncBuffer{},
		dir:      t.TempDir(),
	}
	log := logging.NewNop()
	n := notify.New(time.Minute, func(m notify.Message) {
		_, _ = h.out.Write([]byte("[" + m.Severity.String() + "] " + m.Text + "\n"))
	})

	h.repo = workspace.New(store.NewWorkspaceStore(kv), blobs.NewRegistry(blobs.DefaultBase), log)
	p := generation.NewPipeline(h.gen, h.repo, generation.DirSaver{Dir: h.dir}, n, log)
	h.editor = generation.NewEditor(p, h.repo)
	resolver := session.NewResolver(kv, h.identity, n, log, "cookiecutter://reset")

	h.app = NewApp(Deps{
		Repo:     h.repo,
		Editor:   h.editor,
		Pipeline: p,
		Session:  resolver,
		Log:      log,
		In:       strings.NewReader(input),
		Out:      h.out,
	})
	return h
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))
	return path
}

func seed(t *testing.T, items ...models.WorkItem) *store.MemoryKV {
	t.Helper()
	kv := store.NewMemoryKV()
	require.NoError(t, store.NewWorkspaceStore(kv).Save(context.Background(), items))
	return kv
}

func quietREPL(t *testing.T) {
	t.Helper()
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })
}

func TestApp_PendingUploadReplaysAfterLogin(t *testing.T) {
	quietREPL(t)
	img := writeImage(t, "star.png")

	h := newHarness(t, nil, strings.Join([]string{
		"upload " + img,
		"login",
		"baker@example.com",
		"s3cret",
		"exit",
	}, "\n")+"\n")

	require.NoError(t, h.app.Run(context.Background(), ""))

	items := h.repo.List()
	require.Len(t, items, 1)
	assert.Equal(t, "star.png", items[0].Source.Name)
	assert.Equal(t, "image/png", items[0].Source.ContentType)
	require.True(t, items[0].HasArtifact())
	assert.Equal(t, []byte("stl of star.png"), items[0].Artifact.Data)
	assert.Equal(t, 1, h.gen.callCount())
	assert.Equal(t, []string{"baker@example.com:s3cret"}, h.identity.logins)

	out := h.out.String()
	assert.Contains(t, out, "Sign in to continue")
	assert.Contains(t, out, "[success] Signed in")

	saved, err := store.NewWorkspaceStore(h.kv).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].HasArtifact())
}

func TestApp_UploadWhileSignedInDoesNotPark(t *testing.T) {
	quietREPL(t)
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), store.CredentialKey, []byte("stored")))
	img := writeImage(t, "heart.jpg")

	h := newHarness(t, kv, "upload "+img+"\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	assert.NotContains(t, h.out.String(), "Sign in to continue")
	require.Len(t, h.repo.List(), 1)
	assert.Equal(t, 1, h.gen.callCount())
	_, pending := h.app.gate.Pending()
	assert.False(t, pending)
}

func TestApp_OAuthReplaysOnce(t *testing.T) {
	quietREPL(t)
	img := writeImage(t, "tree.png")

	h := newHarness(t, nil, "upload "+img+"\noauth ext-token\noauth ext-token\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	assert.Len(t, h.repo.List(), 1, "second sign-in event must not replay again")
	assert.Equal(t, 1, h.gen.callCount())
}

func TestApp_DoubleRename(t *testing.T) {
	quietREPL(t)
	kv := seed(t, models.WorkItem{ID: "item-1", DisplayName: "old", Source: models.NewBlob("a.png", "image/png", []byte("a"))})

	h := newHarness(t, kv, "rename item-1 first name\nrename item-1 second\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	it, ok := h.repo.Find("item-1")
	require.True(t, ok)
	assert.Equal(t, "second", it.DisplayName)

	saved, err := store.NewWorkspaceStore(kv).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "second", saved[0].DisplayName)
}

func TestApp_DeleteClosesOpenItem(t *testing.T) {
	quietREPL(t)
	art := models.NewBlob("a.stl", "model/stl", []byte("model"))
	kv := seed(t, models.WorkItem{ID: "item-1", DisplayName: "a", Artifact: &art, Source: models.NewBlob("a.png", "image/png", []byte("a"))})

	h := newHarness(t, kv, "open item-1\ndelete item-1\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	assert.Empty(t, h.repo.List())
	_, open := h.editor.Current()
	assert.False(t, open)
	assert.Zero(t, h.gen.callCount(), "opening an item with a model does not generate")
}

func TestApp_DownloadStoredModel(t *testing.T) {
	quietREPL(t)
	art := models.NewBlob("cat.stl", "model/stl", []byte("solid cat"))
	kv := seed(t, models.WorkItem{ID: "item-1", DisplayName: "cat", Artifact: &art, Source: models.NewBlob("cat.png", "image/png", []byte("c"))})

	h := newHarness(t, kv, "download item-1\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	data, err := os.ReadFile(filepath.Join(h.dir, "cat.stl"))
	require.NoError(t, err)
	assert.Equal(t, "solid cat", string(data))
	assert.Zero(t, h.gen.callCount())
}

func TestApp_EditAndApply(t *testing.T) {
	quietREPL(t)
	kv := seed(t, models.WorkItem{ID: "item-1", DisplayName: "cat", Source: models.NewBlob("cat.png", "image/png", []byte("c"))})
	require.NoError(t, kv.Set(context.Background(), store.CredentialKey, []byte("stored")))

	h := newHarness(t, kv, "mode stamp\nset size 120\nopen item-1\n")
	require.NoError(t, h.app.Run(context.Background(), ""))
	require.Equal(t, 1, h.gen.callCount())

	it, ok := h.repo.Find("item-1")
	require.True(t, ok)
	require.NotNil(t, it.Snapshot)
	assert.Equal(t, models.ModeStampOnly, it.Snapshot.Mode)
	assert.Equal(t, models.Value("120"), it.Snapshot.Params.Size)
}

func TestApp_CommandErrors(t *testing.T) {
	h := newHarness(t, nil, "")
	ctx := context.Background()
	require.NoError(t, h.repo.Hydrate(ctx))

	assert.ErrorIs(t, h.app.Apply(ctx, nil), generation.ErrNoEditor)
	assert.ErrorIs(t, h.app.Show(ctx, nil), generation.ErrNoEditor)
	assert.ErrorIs(t, h.app.Open(ctx, []string{"missing"}), workspace.ErrNotFound)
	assert.ErrorIs(t, h.app.Rename(ctx, []string{"only-id"}), errUsage)
	assert.ErrorIs(t, h.app.SetMode(ctx, []string{"round"}), models.ErrUnknownMode)
	assert.ErrorIs(t, h.app.Set(ctx, []string{"nope", "1"}), models.ErrUnknownParameter)
	assert.Error(t, h.app.Upload(ctx, []string{filepath.Join(t.TempDir(), "none.png")}))
}

func TestApp_StatusShowsSubjectAndBusy(t *testing.T) {
	quietREPL(t)
	kv := seed(t, models.WorkItem{ID: "item-1", DisplayName: "cat", Source: models.NewBlob("cat.png", "image/png", []byte("c"))})
	h := newHarness(t, kv, "")
	h.gen.release = make(chan struct{})
	ctx := context.Background()

	require.NoError(t, h.repo.Hydrate(ctx))
	assert.Equal(t, "anonymous", h.app.status())

	require.NoError(t, h.app.OAuth(ctx, []string{"ext"}))
	assert.Equal(t, "baker@example.com", h.app.status())

	require.NoError(t, h.app.Open(ctx, []string{"item-1"}))
	assert.Eventually(t, func() bool { return strings.HasSuffix(h.app.status(), " *") }, time.Second, 5*time.Millisecond)

	close(h.gen.release)
	h.app.Wait()
	assert.Equal(t, "baker@example.com", h.app.status())
}

func TestApp_RecoveryLinkRunsReset(t *testing.T) {
	quietREPL(t)
	h := newHarness(t, nil, "one\ntwo\nnew-pass\nnew-pass\nexit\n")

	link := "cookiecutter://reset#access_token=rec-tok&type=recovery"
	require.NoError(t, h.app.Run(context.Background(), link))

	assert.Equal(t, []string{"rec-tok:new-pass"}, h.identity.resets)
	out := h.out.String()
	assert.Contains(t, out, "passwords do not match")
	assert.Contains(t, out, "[success] Password updated")
}

func TestApp_Logout(t *testing.T) {
	quietREPL(t)
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), store.CredentialKey, []byte("stored")))

	h := newHarness(t, kv, "logout\n")
	require.NoError(t, h.app.Run(context.Background(), ""))

	assert.False(t, h.app.isLoggedIn())
	v, err := kv.Get(context.Background(), store.CredentialKey)
	require.NoError(t, err)
	assert.Nil(t, v)
}
