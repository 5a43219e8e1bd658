// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition
		{"kitten", "sitting", 3},
		{"extract", "extarct", 2},
		{"manifest", "manifst", 1},
	}

	for _, test := range tests {
		got := levenshtein(test.a, test.b)
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		if reverse := levenshtein(test.b, test.a); reverse != got {
			t.Errorf("levenshtein not symmetric for %q, %q: %d vs %d", test.a, test.b, got, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "pack"}, {Name: "patch"}, {Name: "verify"}}

	tests := []struct {
		input string
		want  string
	}{
		{"pakc", "pack"},
		{"ptach", "patch"},
		{"verfy", "verify"},
		{"completely-different", ""},
	}
	for _, tt := range tests {
		if got := suggestCommand(tt.input, commands); got != tt.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.StringP("output", "o", "", "")
	flagSet.Bool("tree", false, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--outptu", "x"}, "--output"},
		{[]string{"-o", "x", "--tre"}, "--tree"},
		{[]string{"--output=x", "--zzzzzzzz"}, ""},
		{[]string{"positional"}, ""},
		{[]string{"--", "--outptu"}, ""},
	}
	for _, tt := range tests {
		if got := suggestFlag(tt.args, flagSet); got != tt.want {
			t.Errorf("suggestFlag(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
