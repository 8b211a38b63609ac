package secret

import (
	"strings"
	"testing"
)

func TestExpandEnvStrict_Expands(t *testing.T) {
	t.Setenv("REVIEWOPS_TEST_OWNER", "octocat")

	out, err := ExpandEnvStrict("owner is ${REVIEWOPS_TEST_OWNER}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "owner is octocat" {
		t.Errorf("expected expansion, got %q", out)
	}
}

func TestExpandEnvStrict_MissingVariable(t *testing.T) {
	_, err := ExpandEnvStrict("${REVIEWOPS_TEST_DEFINITELY_MISSING}")
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !strings.Contains(err.Error(), "REVIEWOPS_TEST_DEFINITELY_MISSING") {
		t.Errorf("expected missing variable named in error, got %v", err)
	}
}

func TestExpandEnvStrict_DollarEscape(t *testing.T) {
	out, err := ExpandEnvStrict("cost is $$5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "cost is $5" {
		t.Errorf("expected literal dollar, got %q", out)
	}
}

func TestExpandEnvStrict_PlainValue(t *testing.T) {
	out, err := ExpandEnvStrict("no variables here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "no variables here" {
		t.Errorf("expected value unchanged, got %q", out)
	}
}
