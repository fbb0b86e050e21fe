// Package flagx contains helpers for sharing os.Args between several
// independent flag sets (JSON config lookup, runtime flags, subcommand).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// DefaultCommand is returned by Command when no positional argument is given.
const DefaultCommand = "run"

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Supported formats:
//
//	-room 12345
//	--room=12345
//
// A token following an allowed flag is taken as its value unless it starts
// with '-'. Positional arguments and unknown flags are dropped.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// Names expands bare flag names into both the single- and double-dash
// spellings accepted by the flag package.
//
//	Names("room", "c") == []string{"-room", "--room", "-c", "--c"}
func Names(names ...string) []string {
	out := make([]string, 0, len(names)*2)
	for _, n := range names {
		out = append(out, "-"+n, "--"+n)
	}
	return out
}

// Command returns the subcommand, which must be the first argument.
// When args is empty or starts with a flag, DefaultCommand is returned.
func Command(args []string) string {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return DefaultCommand
	}
	return args[0]
}

// Args returns the positional arguments that follow the subcommand. Every
// flag takes a value, so a flag without "=" also consumes the next token
// unless that token is itself a flag.
//
//	Args([]string{"say", "--room", "7", "hello", "there"}) == []string{"hello", "there"}
func Args(args []string) []string {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil
	}

	var out []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--":
			return append(out, rest[i+1:]...)
		case strings.HasPrefix(arg, "-"):
			if !strings.Contains(arg, "=") && i+1 < len(rest) && !strings.HasPrefix(rest[i+1], "-") {
				i++
			}
		default:
			out = append(out, arg)
		}
	}
	return out
}

// JsonConfigFlags extracts the config file path passed via -c or -config
// (either dash spelling). Other arguments are ignored so the caller's own
// flag set does not have to know about them.
//
// Returns "" when neither flag is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], Names("c", "config"))

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
