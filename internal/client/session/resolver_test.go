package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	exchanges atomic.Int32
	exchange  func(token string) (string, error)
	login     func(email, password string) (string, error)
	resetReq  []string
	resetErr  error
	resets    []string
}

func (f *fakeIdentity) Exchange(_ context.Context, token string) (string, error) {
	f.exchanges.Add(1)
	if f.exchange != nil {
		return f.exchange(token)
	}
	return "cred-for-" + token, nil
}

func (f *fakeIdentity) Login(_ context.Context, email, password string) (string, error) {
	if f.login != nil {
		return f.login(email, password)
	}
	return "login-cred", nil
}

func (f *fakeIdentity) RequestPasswordReset(_ context.Context, email, redirectURL string) error {
	f.resetReq = append(f.resetReq, email+" "+redirectURL)
	return f.resetErr
}

func (f *fakeIdentity) ResetPassword(_ context.Context, token, newPassword string) (string, error) {
	f.resets = append(f.resets, token+":"+newPassword)
	return "Password updated", f.resetErr
}

type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, text)
}

func (n *fakeNotifier) Error(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

type failingKV struct{ store.KV }

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("locked") }

func newResolver(kv store.KV, id *fakeIdentity) (*Resolver, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewResolver(kv, id, n, logging.NewNop(), "http://localhost/reset"), n
}

func TestResolve_Precedence(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.CredentialKey, []byte("stored")))
	r, _ := newResolver(kv, &fakeIdentity{})

	res, err := r.Resolve(ctx, "http://localhost:3000/#access_token=rec-tok&type=recovery&expires_in=3600")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Kind: KindRecovery, Token: "rec-tok"}, res)
	assert.False(t, r.State().Authenticated(), "recovery resolves nothing else")

	res, err = r.Resolve(ctx, "http://localhost:3000/#access_token=x&type=signup")
	require.NoError(t, err)
	assert.Equal(t, KindAuthenticated, res.Kind)
	assert.Equal(t, Snapshot{Authenticated: true, Credential: "stored"}, r.State().Snapshot())
}

func TestResolve_RecoveryInQuery(t *testing.T) {
	r, _ := newResolver(store.NewMemoryKV(), &fakeIdentity{})

	res, err := r.Resolve(context.Background(), "cookiecutter://reset?type=recovery&access_token=q-tok")
	require.NoError(t, err)
	assert.Equal(t, KindRecovery, res.Kind)
	assert.Equal(t, "q-tok", res.Token)
}

func TestResolve_Anonymous(t *testing.T) {
	r, _ := newResolver(store.NewMemoryKV(), &fakeIdentity{})

	res, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, KindAnonymous, res.Kind)
	assert.False(t, r.State().Authenticated())
}

func TestResolve_StoreFailureIsAnonymous(t *testing.T) {
	r, _ := newResolver(failingKV{store.NewMemoryKV()}, &fakeIdentity{})

	res, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, KindAnonymous, res.Kind)
}

func TestOnSignIn_ExchangesPersistsAndFires(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	id := &fakeIdentity{}
	r, n := newResolver(kv, id)
	fired := 0
	r.OnAuthenticated(func(context.Context) error { fired++; return nil })

	require.NoError(t, r.OnSignIn(ctx, "ext"))

	assert.True(t, r.State().Authenticated())
	assert.Equal(t, "cred-for-ext", r.State().Credential())
	stored, _ := kv.Get(ctx, store.CredentialKey)
	assert.Equal(t, []byte("cred-for-ext"), stored)
	assert.Equal(t, 1, fired)
	assert.Len(t, n.successes, 1)
}

func TestOnSignIn_WithStoredCredentialSkipsExchange(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.CredentialKey, []byte("stored")))
	id := &fakeIdentity{}
	r, _ := newResolver(kv, id)
	_, err := r.Resolve(ctx, "")
	require.NoError(t, err)
	fired := 0
	r.OnAuthenticated(func(context.Context) error { fired++; return nil })

	require.NoError(t, r.OnSignIn(ctx, "ext"))
	assert.Zero(t, id.exchanges.Load())
	assert.Equal(t, "stored", r.State().Credential())
	assert.Equal(t, 1, fired)
}

func TestOnSignIn_ConcurrentEventsShareOneExchange(t *testing.T) {
	release := make(chan struct{})
	id := &fakeIdentity{exchange: func(token string) (string, error) {
		<-release
		return "cred", nil
	}}
	r, _ := newResolver(store.NewMemoryKV(), id)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.OnSignIn(context.Background(), "ext")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), id.exchanges.Load())
	assert.True(t, r.State().Authenticated())
}

func TestOnSignIn_ExchangeFailureNotifiesAndStaysAnonymous(t *testing.T) {
	id := &fakeIdentity{exchange: func(string) (string, error) {
		return "", &client.APIError{Status: 401, Detail: "token expired"}
	}}
	r, n := newResolver(store.NewMemoryKV(), id)
	fired := 0
	r.OnAuthenticated(func(context.Context) error { fired++; return nil })

	err := r.OnSignIn(context.Background(), "ext")
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, r.State().Authenticated())
	assert.Zero(t, fired)
	require.Len(t, n.errors, 1)
	assert.Contains(t, n.errors[0], "token expired")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{login: func(email, password string) (string, error) {
		if password != "right" {
			return "", &client.APIError{Status: 401, Detail: "Invalid credentials"}
		}
		return "cred-" + email, nil
	}}
	r, n := newResolver(store.NewMemoryKV(), id)

	require.ErrorIs(t, r.Login(ctx, "a@b.c", "wrong"), client.ErrUnauthorized)
	assert.False(t, r.State().Authenticated())
	assert.Contains(t, n.errors[0], "Invalid credentials")

	require.NoError(t, r.Login(ctx, "a@b.c", "right"))
	assert.Equal(t, "cred-a@b.c", r.State().Credential())
}

func TestOnSignOut(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	r, _ := newResolver(kv, &fakeIdentity{})
	require.NoError(t, r.OnSignIn(ctx, "ext"))

	require.NoError(t, r.OnSignOut(ctx))
	assert.False(t, r.State().Authenticated())
	v, _ := kv.Get(ctx, store.CredentialKey)
	assert.Nil(t, v)

	res, _ := r.Resolve(ctx, "")
	assert.Equal(t, KindAnonymous, res.Kind)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{}
	r, n := newResolver(store.NewMemoryKV(), id)

	require.Error(t, r.RequestPasswordReset(ctx, " "))
	require.NoError(t, r.RequestPasswordReset(ctx, "a@b.c"))
	assert.Equal(t, []string{"a@b.c http://localhost/reset"}, id.resetReq)

	require.ErrorIs(t, r.CompleteReset(ctx, "", "pw"), ErrNoRecoveryToken)
	require.ErrorIs(t, r.CompleteReset(ctx, "tok", ""), ErrEmptyPassword)
	require.NoError(t, r.CompleteReset(ctx, "tok", "pw"))
	assert.Equal(t, []string{"tok:pw"}, id.resets)
	assert.Contains(t, n.successes, "Password updated")
}

func TestValidateNewPassword(t *testing.T) {
	assert.ErrorIs(t, ValidateNewPassword("", ""), ErrEmptyPassword)
	assert.ErrorIs(t, ValidateNewPassword("a", "b"), ErrPasswordMismatch)
	assert.NoError(t, ValidateNewPassword("a", "a"))
}

func TestSubject(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, "a@b.c", Subject(sign(jwt.MapClaims{"email": "a@b.c", "sub": "42"})))
	assert.Equal(t, "42", Subject(sign(jwt.MapClaims{"sub": "42"})))
	assert.Equal(t, "", Subject("opaque-token"))
	assert.Equal(t, "", Subject(""))
}
