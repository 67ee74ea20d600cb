// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*limitedIntValue)(nil)

// limitedIntValue is a [pflag.Value] for integers within [lower, upper].
type limitedIntValue struct {
	value        *int
	lower, upper int
}

func (v *limitedIntValue) String() string {
	if v.value == nil {
		return "0"
	}

	return strconv.Itoa(*v.value)
}

func (v *limitedIntValue) Set(s string) error {
	value, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if value < v.lower {
		return fmt.Errorf("%d < %d: %w", value, v.lower, ErrValueOutOfRange)
	}

	if value > v.upper {
		return fmt.Errorf("%d > %d: %w", value, v.upper, ErrValueOutOfRange)
	}

	*v.value = value

	return nil
}

func (*limitedIntValue) Type() string {
	return "int"
}
