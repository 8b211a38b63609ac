// Package auth supplies the credentials attached to outbound GitHub API
// requests.
//
// Two token sources are provided: StaticTokenSource wraps a personal
// access token, and AppTokenSource mints short-lived installation tokens
// for a GitHub App by signing an RS256 app JWT and exchanging it at the
// installations endpoint. Installation tokens are cached until near
// expiry; concurrent refreshes collapse into a single exchange.
//
// # Usage
//
//	source, err := auth.NewAppTokenSource(auth.AppConfig{
//		AppID:          "123456",
//		InstallationID: 7890,
//		PrivateKey:     pemBytes,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	token, err := source.Token(ctx)
package auth
