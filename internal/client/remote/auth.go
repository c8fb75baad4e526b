package remote

import (
	"context"
	"fmt"
)

// StaticAuth is the authenticator for backends that carry their own
// credentials, such as the bolt file or an S3 bucket with static keys.
type StaticAuth struct {
	signedIn bool
}

var _ Authenticator = (*StaticAuth)(nil)

// NewStaticAuth returns an authenticator that starts signed in.
func NewStaticAuth() *StaticAuth {
	return &StaticAuth{signedIn: true}
}

func (a *StaticAuth) IsSignedIn(context.Context) bool { return a.signedIn }

func (a *StaticAuth) SignIn(context.Context) error {
	a.signedIn = true
	return nil
}

func (a *StaticAuth) SignOut(context.Context) error {
	a.signedIn = false
	return nil
}

func (a *StaticAuth) HandleRedirect(_ context.Context, rawURL string) error {
	return fmt.Errorf("backend does not use sign-in redirects: %s", rawURL)
}
