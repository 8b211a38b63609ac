// Package githubapi is the GitHub REST client used by the review flow.
//
// Every outbound call goes through the resilience pipeline (queue, rate
// limiter, circuit breaker, retry) keyed by the session ID carried in the
// context. Failures are classified into typed errors: ValidationError and
// AuthError and NotFoundError are terminal, TransientError and rate-limit
// rejections are retried. Idempotent reads (pull request metadata, diffs,
// file contents, comments) may be served from an optional read-through
// cache; cache hits spend no rate-limit tokens.
//
// # Usage
//
//	client, err := githubapi.NewClient(githubapi.Config{
//		Credentials: auth.NewStaticTokenSource(token),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := githubapi.WithSession(context.Background(), sessionID)
//	pr, err := client.GetPullRequest(ctx, "octocat", "hello-world", 42)
package githubapi
