package session

import "context"

// Navigator is the navigation side effect the guard depends on. Replace
// performs a replacing navigation, so back-navigation cannot return to a
// blocked view.
type Navigator interface {
	Replace(path string)
}

// View is a renderable privileged view.
type View func(ctx context.Context) error

// Guard gates privileged views on local session presence. Real token
// validation is deferred to the API client's rejection handling during
// the calls a rendered view makes.
type Guard struct {
	oracle    *Oracle
	nav       Navigator
	loginPath string
}

func NewGuard(oracle *Oracle, nav Navigator, loginPath string) *Guard {
	return &Guard{oracle: oracle, nav: nav, loginPath: loginPath}
}

// Protect wraps view so that each invocation re-checks the session. An
// unauthenticated invocation does not render the view and replace-navigates
// to the login path instead.
func (g *Guard) Protect(view View) View {
	return func(ctx context.Context) error {
		if !g.oracle.IsAuthenticated() {
			g.nav.Replace(g.loginPath)
			return nil
		}
		return view(ctx)
	}
}
