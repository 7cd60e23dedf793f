package cli

import (
	"context"

	"github.com/dmitrijs2005/cookiecutter/internal/client/session"
	"github.com/dmitrijs2005/cookiecutter/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

const resetAttempts = 3

// Login prompts for email and password and signs in. A parked upload is
// replayed by the sign-in listener before Login returns.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	return a.session.Login(ctx, email, string(password))
}

// OAuth completes a sign-in with a token issued by an external provider.
func (a *App) OAuth(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("oauth <token>")
	}
	return a.session.OnSignIn(ctx, args[0])
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.gate.Abandon()
	if err := a.session.OnSignOut(ctx); err != nil {
		return err
	}
	a.println("Signed out")
	return nil
}

// Forgot asks the identity service to send a recovery link.
func (a *App) Forgot(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	return a.session.RequestPasswordReset(ctx, email)
}

// resetPassword asks for the new password twice and submits it with the
// recovery token. Mismatched or empty entries are asked for again.
func (a *App) resetPassword(ctx context.Context, token string) error {
	a.println("Password recovery: choose a new password")
	for i := 0; i < resetAttempts; i++ {
		pw, err := getPassword(a.reader, "New password", a.out)
		if err != nil {
			return err
		}
		confirm, err := getPassword(a.reader, "Repeat new password", a.out)
		if err != nil {
			shared.WipeByteArray(pw)
			return err
		}

		err = session.ValidateNewPassword(string(pw), string(confirm))
		if err == nil {
			err = a.session.CompleteReset(ctx, token, string(pw))
			shared.WipeByteArray(pw)
			shared.WipeByteArray(confirm)
			return err
		}
		shared.WipeByteArray(pw)
		shared.WipeByteArray(confirm)
		a.println(describe(err))
	}
	return session.ErrPasswordMismatch
}

func (a *App) promptSignIn() {
	a.println("Sign in to continue: login, or oauth <token>. The upload will resume afterwards.")
}
