package command

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vimiv-engine/vimiv/internal/mode"
)

// Run parses and executes the command line "line" as it was typed in mode
// m (spec.md §4.4). dispatcherCount/dispatcherHasCount is whatever count
// the key dispatcher had already accumulated (spec.md §4.4 step 2).
func (r *Registry) Run(ctx *Context, m mode.ID, line string, dispatcherCount int, dispatcherHasCount bool) Result {
	body, isExternal := stripLeader(line)
	if isExternal {
		return ResultExternal(body)
	}

	cmdCount, hasCmdCount, rest := extractCount(body)
	count, hasCount := dispatcherCount, dispatcherHasCount
	if hasCmdCount {
		count, hasCount = cmdCount, true
	}

	rest = r.expandAlias(m, rest)
	rest = expandWildcards(rest, ctx)

	tokens, err := shellSplit(rest)
	if err != nil {
		return ResultErr(capitalize(err.Error()))
	}
	if len(tokens) == 0 {
		return ResultErr("Empty command")
	}

	name, argv := tokens[0], tokens[1:]
	cmd, err := r.Lookup(m, name)
	if err != nil {
		return ResultErr(capitalize(err.Error()))
	}

	r.History.Record(m, line)

	args, result, isHelp := r.parseArgs(cmd, argv, count, hasCount)
	if isHelp {
		return result
	}
	if result.Kind == Err {
		return result
	}

	if cmd.Run == nil {
		return ResultErr(fmt.Sprintf("Command %q has no handler", name))
	}
	runCtx := ctx
	if runCtx == nil {
		runCtx = &Context{}
	}
	runCtx.Mode = m
	return cmd.Run(runCtx, args)
}

// stripLeader removes a leading ':' or search prefix ('/' or '?') and
// detects an external "!..." passthrough command (spec.md §4.4 step 1).
func stripLeader(line string) (rest string, isExternal bool) {
	s := line
	if len(s) > 0 && (s[0] == ':' || s[0] == '/' || s[0] == '?') {
		s = s[1:]
	}
	trimmed := strings.TrimLeft(s, " \t")
	if strings.HasPrefix(trimmed, "!") {
		return strings.TrimPrefix(trimmed, "!"), true
	}
	return s, false
}

// extractCount pulls a maximal leading run of decimal digits off s.
func extractCount(s string) (count int, has bool, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false, s
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false, s
	}
	return n, true, s[i:]
}

// expandAlias substitutes the first whitespace-delimited token of s if it
// names an alias visible from mode m.
func (r *Registry) expandAlias(m mode.ID, s string) string {
	trimmed := strings.TrimLeft(s, " \t")
	fields := strings.SplitN(trimmed, " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return s
	}
	expansion, ok := r.resolveAlias(m, fields[0])
	if !ok {
		return s
	}
	if len(fields) == 2 {
		return expansion + " " + fields[1]
	}
	return expansion
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseArgs maps argv onto cmd's declared parameters (spec.md §4.4 steps
// 6-7). It returns (nil, Info-result, true) if "-h"/"--help" was present.
func (r *Registry) parseArgs(cmd *Command, argv []string, count int, hasCount bool) (Args, Result, bool) {
	args := make(Args)

	for _, p := range cmd.Params {
		if p.Kind == Optional {
			args[p.Name] = p.Default
		}
	}

	var positional []Param
	for _, p := range cmd.Params {
		if p.Kind == Positional {
			positional = append(positional, p)
		}
	}

	posIdx := 0
	var pathsParam *Param
	var pathTokens []string

	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		if tok == "-h" || tok == "--help" {
			return nil, ResultInfo(helpText(cmd)), true
		}

		if strings.HasPrefix(tok, "--") {
			name, value, hasValue := strings.Cut(tok[2:], "=")
			p, ok := cmd.param(name)
			if !ok {
				return nil, ResultErr(fmt.Sprintf("Unknown option '--%s'", name)), false
			}
			if p.Type == TypeBool && !hasValue {
				args[p.Name] = true
				continue
			}
			coerced, err := coerce(p, value)
			if err != nil {
				return nil, ResultErr(capitalize(err.Error())), false
			}
			args[p.Name] = coerced
			continue
		}

		if posIdx < len(positional) && positional[posIdx].Type == TypePathGlob {
			pp := positional[posIdx]
			pathsParam = &pp
			pathTokens = append(pathTokens, argv[i:]...)
			break
		}

		if posIdx < len(positional) && positional[posIdx].Type == TypeRawWords {
			p := positional[posIdx]
			args[p.Name] = append([]string(nil), argv[i:]...)
			posIdx++
			break
		}

		if posIdx >= len(positional) {
			return nil, ResultErr(fmt.Sprintf("Trailing argument '%s'", tok)), false
		}
		p := positional[posIdx]
		coerced, err := coerce(p, tok)
		if err != nil {
			return nil, ResultErr(capitalize(err.Error())), false
		}
		args[p.Name] = coerced
		posIdx++
	}

	if pathsParam != nil {
		expanded, err := expandPathGlobs(pathTokens)
		if err != nil {
			return nil, ResultErr(capitalize(err.Error())), false
		}
		args[pathsParam.Name] = expanded
		posIdx++
	}

	for ; posIdx < len(positional); posIdx++ {
		p := positional[posIdx]
		if p.Type == TypePathGlob || p.Type == TypeRawWords {
			args[p.Name] = []string{}
			continue
		}
		return nil, ResultErr(fmt.Sprintf("Missing required argument '%s'", p.Name)), false
	}

	for _, p := range cmd.Params {
		if p.Kind == Count {
			if hasCount {
				args[p.Name] = count
			} else if p.Default != nil {
				args[p.Name] = p.Default
			} else {
				args[p.Name] = 0
			}
		}
	}

	return args, ResultOk(), false
}

func expandPathGlobs(tokens []string) ([]string, error) {
	var out []string
	for _, tok := range tokens {
		matches, err := filepath.Glob(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid glob '%s'", tok)
		}
		if len(matches) == 0 {
			matches = []string{tok}
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			out = append(out, abs)
		}
	}
	return out, nil
}

func coerce(p Param, value string) (any, error) {
	switch p.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not an integer: '%s'", p.Name, value)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a number: '%s'", p.Name, value)
		}
		return f, nil
	case TypeBool:
		b, err := parseBool(value)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not a boolean: '%s'", p.Name, value)
		}
		return b, nil
	case TypeEnum:
		for _, v := range p.Enum {
			if strings.EqualFold(v, value) {
				return v, nil
			}
		}
		return nil, fmt.Errorf("'%s' must be one of %v, got '%s'", p.Name, p.Enum, value)
	case TypeList:
		return strings.Split(value, ","), nil
	default:
		return value, nil
	}
}

// parseBool accepts true/false, yes/no, 1/0, case-insensitively
// (spec.md §4.4 step 7).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func helpText(cmd *Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", cmd.Name)
	for _, p := range cmd.Params {
		switch p.Kind {
		case Positional:
			fmt.Fprintf(&b, " %s", p.Name)
		case Optional:
			fmt.Fprintf(&b, " [--%s]", p.Name)
		}
	}
	if cmd.Short != "" {
		fmt.Fprintf(&b, ": %s", cmd.Short)
	}
	return b.String()
}
