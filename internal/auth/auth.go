// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// TokenEnv is the environment variable consulted when no token is given.
const TokenEnv = "GITHUB_API"

var (
	ErrNoToken       = errors.New("no API token")
	ErrMalformedPair = errors.New("malformed user:token pair")
)

// LookupFunc resolves environment-style variables. os.LookupEnv satisfies it.
type LookupFunc func(string) (string, bool)

// Credentials are the two halves of a user:token pair. User may be empty.
type Credentials struct {
	User  string
	Token string
}

func (c Credentials) String() string {
	if c.Token == "" {
		return c.User + ":"
	}
	return c.User + ":********"
}

// ResolveToken returns explicit if it is set, otherwise the value of
// GITHUB_API found through lookup. A nil lookup uses the process
// environment.
func ResolveToken(explicit string, lookup LookupFunc) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(TokenEnv); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}

	return "", fmt.Errorf("pass --auth or set %s: %w", TokenEnv, ErrNoToken)
}

// SplitPair splits "user:token" on the first colon. A value without a colon
// is taken as a bare token.
func SplitPair(pair string) (user, token string, err error) {
	user, token, found := strings.Cut(pair, ":")
	if !found {
		user, token = "", pair
	}

	if token == "" {
		return "", "", fmt.Errorf("%q: %w", redact(pair), ErrMalformedPair)
	}

	return user, token, nil
}

// Resolve runs ResolveToken then SplitPair.
func Resolve(explicit string, lookup LookupFunc) (Credentials, error) {
	pair, err := ResolveToken(explicit, lookup)
	if err != nil {
		return Credentials{}, err
	}

	user, token, err := SplitPair(pair)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{User: user, Token: token}, nil
}

// redact keeps the user half of a pair for error messages.
func redact(pair string) string {
	user, _, found := strings.Cut(pair, ":")
	if !found {
		return "********"
	}
	return user + ":********"
}
