// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/watchtowergo/internal/cacheutil"
)

// GlobalFlagsValidator runs before every query command.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'. urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	for _, v := range validOutputFlagValues {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", validOutputFlagValues)
}

// SinceValidator accepts an RFC 3339 timestamp or a plain date.
func SinceValidator(value any) error {
	s := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return nil
	}
	return fmt.Errorf("%q is not an RFC 3339 timestamp or YYYY-MM-DD date", s)
}

// PositiveValidator rejects zero and negative counts.
func PositiveValidator(value any) error {
	if value.(int) <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

// KeyArgsValidator requires an owner and at most a project.
func KeyArgsValidator(ctx context.Context, c *cli.Command) error {
	switch n := c.Args().Len(); {
	case n == 0:
		return errors.New("missing owner")
	case n > 2:
		return fmt.Errorf("too many arguments: %v", c.Args().Slice())
	}

	k := cacheutil.Key{
		Owner:   c.Args().Get(0),
		Project: c.Args().Get(1),
		Branch:  c.String("branch"),
	}
	if err := k.Canonical().Validate(); err != nil {
		return err
	}
	return GlobalFlagsValidator(ctx, c)
}
