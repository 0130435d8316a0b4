// Package routing classifies request paths so that middleware can be
// applied per class of route instead of per path.
package routing

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type RouteClass string

const (
	// RouteClassPublic needs no session (health, version).
	RouteClassPublic RouteClass = "public"
	// RouteClassUpload accepts files and is rate limited.
	RouteClassUpload RouteClass = "upload"
	// RouteClassOps is operational and hidden behind the ops guard.
	RouteClassOps RouteClass = "ops"
	// RouteClassAPI is everything else.
	RouteClassAPI RouteClass = "api"
)

var ErrAllowlistNotFound = errors.New("routing allowlist not found")

//go:embed allowlist.yaml
var defaultAllowlist []byte

type AllowlistRule struct {
	Prefix string     `yaml:"prefix"`
	Class  RouteClass `yaml:"class"`
}

type allowlistFile struct {
	Version int             `yaml:"version"`
	Rules   []AllowlistRule `yaml:"rules"`
}

// DefaultAllowlist returns the rules built into the binary.
func DefaultAllowlist() []AllowlistRule {
	rules, err := ParseAllowlist(defaultAllowlist)
	if err != nil {
		panic(err)
	}
	return rules
}

// LoadAllowlist reads rules from path. An empty path selects the built-in
// rules.
func LoadAllowlist(path string) ([]AllowlistRule, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultAllowlist(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAllowlistNotFound, path)
		}
		return nil, err
	}
	return ParseAllowlist(raw)
}

func ParseAllowlist(raw []byte) ([]AllowlistRule, error) {
	var file allowlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported allowlist version: %d", file.Version)
	}

	rules := file.Rules
	for i := range rules {
		rules[i].Prefix = strings.TrimSpace(rules[i].Prefix)
		if rules[i].Prefix == "" {
			return nil, fmt.Errorf("allowlist rule[%d]: empty prefix", i)
		}
		if !strings.HasPrefix(rules[i].Prefix, "/") {
			return nil, fmt.Errorf("allowlist rule[%d]: prefix must start with '/': %q", i, rules[i].Prefix)
		}
		switch rules[i].Class {
		case RouteClassPublic, RouteClassUpload, RouteClassOps, RouteClassAPI:
		default:
			return nil, fmt.Errorf("allowlist rule[%d]: unknown class: %q", i, rules[i].Class)
		}
	}
	return rules, nil
}
