/*
Package identity is a client for the identity service's relyingparty REST API
(Firebase Auth / Google Identity Platform).

# Client

A Client holds an API key and an *http.Client. Create one per process, share
it between goroutines, and Close it exactly once when done:

	client := identity.NewClient(apiKey)
	defer client.Close()

Every operation is a POST of a JSON body to
<base>/relyingparty/<endpoint>?key=<apiKey>. Successful operations return a
Credential carrying the session (ID) token, refresh token and Profile.

	cred, err := client.SignInWithEmailAndPassword(ctx, email, password)

	cred, err := client.SignInWithOAuth(ctx, identity.Google, googleAccessToken)

	cred, err := client.CreateUserWithEmailAndPassword(ctx, email, password, "Alice")

	linked, err := client.LinkWithOAuth(ctx, cred, identity.Github, githubAccessToken)

# Errors

Failed exchanges return *AuthError with the endpoint, the raw request and
response bodies and a classified ErrorReason:

	cred, err := client.SignInWithEmailAndPassword(ctx, email, password)
	switch identity.ReasonOf(err) {
	case identity.ReasonWrongPassword:
		// ask again
	case identity.ReasonUnknownEmailAddress:
		// offer sign-up
	}

Passing EmailAndPassword to an OAuth operation fails with ErrInvalidArgument
without touching the network. Methods called after Close return
ErrClientClosed.

Nothing is retried, refreshed or persisted by this package.
*/
package identity
