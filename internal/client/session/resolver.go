package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/logging"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoCredential     = errors.New("no credential received")
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoRecoveryToken  = errors.New("no recovery token")
)

type Kind int

const (
	KindAnonymous Kind = iota
	KindAuthenticated
	// KindRecovery means the deep link was a password-recovery link; the
	// caller must run the reset flow and nothing else was resolved.
	KindRecovery
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindRecovery:
		return "recovery"
	default:
		return "anonymous"
	}
}

type Resolution struct {
	Kind Kind
	// Token is the recovery token for KindRecovery.
	Token string
}

type Notifier interface {
	Success(text string)
	Error(text string)
}

// Listener runs after every successful sign-in.
type Listener func(ctx context.Context) error

type Resolver struct {
	state       *State
	kv          store.KV
	identity    client.Identity
	notify      Notifier
	log         logging.Logger
	redirectURL string

	exchange singleflight.Group

	mu        sync.Mutex
	listeners []Listener
}

func NewResolver(kv store.KV, identity client.Identity, n Notifier, log logging.Logger, redirectURL string) *Resolver {
	return &Resolver{
		state:       &State{},
		kv:          kv,
		identity:    identity,
		notify:      n,
		log:         log.With("component", "session"),
		redirectURL: redirectURL,
	}
}

func (r *Resolver) State() *State { return r.state }

// OnAuthenticated registers fn to run after each sign-in.
func (r *Resolver) OnAuthenticated(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Resolve decides the session at startup. A recovery deep link wins over
// everything; then a stored credential counts as signed in (it is not
// validated); otherwise the session is anonymous.
func (r *Resolver) Resolve(ctx context.Context, deepLink string) (Resolution, error) {
	if tok, ok := recoveryToken(deepLink); ok {
		r.log.Info(ctx, "password recovery link detected")
		return Resolution{Kind: KindRecovery, Token: tok}, nil
	}

	cred, err := r.kv.Get(ctx, store.CredentialKey)
	if err != nil {
		r.log.Warn(ctx, "failed to read stored credential", "error", err)
		r.state.set(false, "")
		return Resolution{Kind: KindAnonymous}, nil
	}
	if len(cred) == 0 {
		r.state.set(false, "")
		return Resolution{Kind: KindAnonymous}, nil
	}

	r.state.set(true, string(cred))
	return Resolution{Kind: KindAuthenticated}, nil
}

// recoveryToken reads access_token and type=recovery from the fragment of
// link, falling back to its query.
func recoveryToken(link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	for _, raw := range []string{u.Fragment, u.RawQuery} {
		v, err := url.ParseQuery(raw)
		if err != nil {
			continue
		}
		if tok := v.Get("access_token"); tok != "" && v.Get("type") == "recovery" {
			return tok, true
		}
	}
	return "", false
}

// OnSignIn handles a sign-in event carrying an external token. Without a
// stored credential the token is exchanged for one; concurrent events for
// the same token share one exchange. With a credential already present the
// session is only marked signed in.
func (r *Resolver) OnSignIn(ctx context.Context, externalToken string) error {
	if cred := r.state.Credential(); cred != "" {
		r.state.set(true, cred)
		r.fire(ctx)
		return nil
	}
	if externalToken == "" {
		return ErrNoCredential
	}

	v, err, shared := r.exchange.Do(externalToken, func() (any, error) {
		return r.identity.Exchange(ctx, externalToken)
	})
	if err != nil {
		r.log.Warn(ctx, "credential exchange failed", "error", err)
		r.notify.Error("Sign-in failed: " + client.Detail(err))
		return err
	}
	if shared && r.state.Authenticated() {
		return nil
	}
	return r.commit(ctx, v.(string))
}

// Login signs in with email and password.
func (r *Resolver) Login(ctx context.Context, email, password string) error {
	cred, err := r.identity.Login(ctx, email, password)
	if err != nil {
		r.log.Warn(ctx, "login failed", "error", err)
		r.notify.Error("Login failed: " + client.Detail(err))
		return err
	}
	return r.commit(ctx, cred)
}

func (r *Resolver) commit(ctx context.Context, cred string) error {
	if cred == "" {
		r.notify.Error("Sign-in failed: no credential received")
		return ErrNoCredential
	}
	if err := r.kv.Set(ctx, store.CredentialKey, []byte(cred)); err != nil {
		r.log.Error(ctx, "failed to store credential", "error", err)
	}
	r.state.set(true, cred)
	r.log.Info(ctx, "signed in", "subject", Subject(cred))
	r.notify.Success("Signed in")
	r.fire(ctx)
	return nil
}

func (r *Resolver) fire(ctx context.Context) {
	r.mu.Lock()
	ls := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, fn := range ls {
		if err := fn(ctx); err != nil {
			r.log.Error(ctx, "sign-in listener failed", "error", err)
		}
	}
}

// OnSignOut forgets the stored credential.
func (r *Resolver) OnSignOut(ctx context.Context) error {
	r.state.set(false, "")
	if err := r.kv.Delete(ctx, store.CredentialKey); err != nil {
		r.log.Error(ctx, "failed to delete stored credential", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	r.log.Info(ctx, "signed out")
	return nil
}

// RequestPasswordReset asks the identity service to mail a recovery link.
func (r *Resolver) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email must not be empty")
	}
	if err := r.identity.RequestPasswordReset(ctx, email, r.redirectURL); err != nil {
		r.notify.Error("Password reset failed: " + client.Detail(err))
		return err
	}
	r.notify.Success("Check your inbox for the reset link")
	return nil
}

// ValidateNewPassword checks a new password against its confirmation.
func ValidateNewPassword(password, confirm string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// CompleteReset sets a new password using a recovery token.
func (r *Resolver) CompleteReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrNoRecoveryToken
	}
	if newPassword == "" {
		return ErrEmptyPassword
	}
	msg, err := r.identity.ResetPassword(ctx, token, newPassword)
	if err != nil {
		r.notify.Error("Password reset failed: " + client.Detail(err))
		return err
	}
	if msg == "" {
		msg = "Password updated"
	}
	r.notify.Success(msg)
	return nil
}
