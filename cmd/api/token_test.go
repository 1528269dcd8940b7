package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/suPer8Hu/attackforge/internal/auth"
	"github.com/suPer8Hu/attackforge/internal/config"
)

func TestIssueToken(t *testing.T) {
	cfg := config.Config{JWTSecret: "s3cret"}

	tok, err := issueToken(cfg, " operator ", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := auth.ParseJWT(tok, "s3cret")
	if err != nil || sub != "operator" {
		t.Fatalf("parse: sub=%q err=%v", sub, err)
	}

	if _, err := issueToken(config.Config{}, "operator", time.Hour); err == nil {
		t.Fatalf("expected error without a secret")
	}
	if _, err := issueToken(cfg, "  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := issueToken(cfg, "operator", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--subject", "ci", "--ttl", "5m"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	sub, err := auth.ParseJWT(strings.TrimSpace(out.String()), "from-env")
	if err != nil || sub != "ci" {
		t.Fatalf("printed token did not verify: sub=%q err=%v out=%q", sub, err, out.String())
	}
}
