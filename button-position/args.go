package main

import (
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

var negativeNumber = regexp.MustCompile(`^-[0-9]+$`)

// normalizeArgs moves flags ahead of a "--" terminator so positional
// negative numbers such as "-50" and file names such as "-res.data" are
// not read as shorthand flags.
func normalizeArgs(fs *pflag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case negativeNumber.MatchString(a):
			positional = append(positional, a)
		case isFlag(fs, a):
			flags = append(flags, a)
			if takesValue(fs, a) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, a)
		}
	}
	out := append(flags, "--")
	return append(out, positional...)
}

// isFlag reports whether arg should be handed to the flag parser. Long
// options always are, so unknown ones still fail loudly. A single dash
// token is a flag only when its first letter is a registered shorthand.
func isFlag(fs *pflag.FlagSet, arg string) bool {
	if arg == "-" || !strings.HasPrefix(arg, "-") {
		return false
	}
	if strings.HasPrefix(arg, "--") {
		return true
	}
	return fs.ShorthandLookup(arg[1:2]) != nil
}

// takesValue reports whether arg is a flag whose value is the next
// argument.
func takesValue(fs *pflag.FlagSet, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	var f *pflag.Flag
	if strings.HasPrefix(arg, "--") {
		f = fs.Lookup(arg[2:])
	} else {
		short := arg[1:]
		if len(short) != 1 {
			// -i2 or bundled booleans carry their own value
			return false
		}
		f = fs.ShorthandLookup(short)
	}
	if f == nil {
		return false
	}
	return f.NoOptDefVal == ""
}
