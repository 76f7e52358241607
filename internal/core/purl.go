package core

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

// DefaultEcosystem is used for identifiers that are not PURLs.
const DefaultEcosystem = "npm"

// Identifier is a parsed package identifier.
type Identifier struct {
	Ecosystem string
	Name      string
	Version   string // only set for versioned PURLs
}

// ParseIdentifier accepts a plain package name ("lodash", "@babel/core") or a
// Package URL ("pkg:npm/%40babel/core@7.24.0") and returns its components.
func ParseIdentifier(input string) (Identifier, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Identifier{}, ErrEmptyName
	}

	if !strings.HasPrefix(input, "pkg:") {
		return Identifier{Ecosystem: DefaultEcosystem, Name: input}, nil
	}

	p, err := purl.Parse(input)
	if err != nil {
		return Identifier{}, fmt.Errorf("parsing purl %q: %w", input, err)
	}
	if p.Name == "" {
		return Identifier{}, ErrEmptyName
	}

	return Identifier{
		Ecosystem: p.Type,
		Name:      fullName(p.Type, p.Namespace, p.Name),
		Version:   p.Version,
	}, nil
}

// fullName returns the package name in the format expected by the registry.
// For npm: "@babel/core".
func fullName(ecosystem, namespace, name string) string {
	if namespace == "" {
		return name
	}
	if ecosystem == "npm" && !strings.HasPrefix(namespace, "@") {
		namespace = "@" + namespace
	}
	return namespace + "/" + name
}
