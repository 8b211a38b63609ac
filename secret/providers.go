package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves secrets from environment variables. The ref is the
// variable name, e.g. secretref:env:GITHUB_TOKEN.
type EnvProvider struct{}

// NewEnvProvider creates an environment-backed provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	key := strings.TrimSpace(ref)
	if key == "" {
		return "", fmt.Errorf("secret: env ref is empty")
	}
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret: environment variable %q is not set", key)
	}
	return value, nil
}

func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves secrets from files on disk. The ref is the file
// path, e.g. secretref:file:/etc/reviewops/app.pem. A single trailing
// newline is stripped so token files written by shell tools resolve clean.
type FileProvider struct{}

// NewFileProvider creates a file-backed provider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path := strings.TrimSpace(ref)
	if path == "" {
		return "", fmt.Errorf("secret: file ref is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("secret: read %q: %w", path, err)
	}
	value := string(data)
	value = strings.TrimSuffix(value, "\n")
	value = strings.TrimSuffix(value, "\r")
	return value, nil
}

func (p *FileProvider) Close() error { return nil }

func init() {
	_ = DefaultRegistry.Register("env", func(_ map[string]any) (Provider, error) {
		return NewEnvProvider(), nil
	})
	_ = DefaultRegistry.Register("file", func(_ map[string]any) (Provider, error) {
		return NewFileProvider(), nil
	})
}
