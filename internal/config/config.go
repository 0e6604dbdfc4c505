// Copyright (c) 2024 The Anvil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package config holds cmd/anvilc's environment-driven settings,
// struct-tag parsed with caarlos0/env the way the manifest behind
// other_examples/adf938d2_mna-nenuphar__lang-compiler-compiler.go.go
// pulls it in for its own compiler driver's configuration.
package config

import "github.com/caarlos0/env/v6"

// Config is the set of knobs cmd/anvilc reads from the environment,
// layered under its command-line flags (flags win when both are set).
type Config struct {
	// Triple is the default target triple string ("x86_64-linux-gnu")
	// used when no -target flag is given.
	Triple string `env:"ANVIL_TARGET" envDefault:"x86_64-linux-gnu"`

	// Debug enables verbose per-stage diagnostics on stderr.
	Debug bool `env:"ANVIL_DEBUG" envDefault:"false"`
}

// Load reads Config from the process environment, applying envDefault
// tags for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
