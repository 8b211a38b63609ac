// Package secret provides a small, dependency-light secret resolution layer
// for credential configuration: personal access tokens, App private keys,
// and webhook secrets.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:GITHUB_TOKEN
//   - File-backed: secretref:file:/etc/reviewops/app.pem
//   - Inline use:  Bearer secretref:env:GITHUB_TOKEN
//
// The env and file providers are registered in DefaultRegistry at init.
package secret
