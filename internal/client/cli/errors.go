package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cookiecutter/internal/client/client"
	"github.com/dmitrijs2005/cookiecutter/internal/client/generation"
	"github.com/dmitrijs2005/cookiecutter/internal/client/workspace"
)

var (
	errUsage      = errors.New("usage")
	errNoOpenItem = fmt.Errorf("%w: use open <id> first", generation.ErrNoEditor)
)

func usage(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

// describe turns err into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, workspace.ErrNotHydrated):
		return "the workspace is still loading, try again"
	case errors.Is(err, client.ErrUnauthorized):
		return "not authorized, please sign in again"
	case errors.Is(err, client.ErrUnavailable):
		return "service unavailable, try again later"
	}
	return client.Detail(err)
}
