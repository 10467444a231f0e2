package command

import "strings"

// expandWildcards substitutes %, %f, %m with, respectively, the shell-
// quoted current path, the shell-quoted space-joined current path list,
// and the shell-quoted space-joined marked-path list (spec.md §4.4 step
// 4). A '%' is only a wildcard when it is not immediately followed by an
// ASCII letter other than 'f'/'m' and not preceded by a backslash escape;
// the escaping backslash is removed once substitution has run.
func expandWildcards(text string, ctx *Context) string {
	var out strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' && i+1 < len(runes) && runes[i+1] == '%' {
			// Escaped wildcard: drop the backslash, keep a literal '%',
			// and make sure the following char(s) are not re-expanded.
			out.WriteRune('%')
			i++
			if i+1 < len(runes) && (runes[i+1] == 'f' || runes[i+1] == 'm') {
				out.WriteRune(runes[i+1])
				i++
			}
			continue
		}

		if r != '%' {
			out.WriteRune(r)
			continue
		}

		// r == '%': determine which wildcard this is.
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch next {
		case 'f':
			out.WriteString(quoteJoin(ctx.currentPaths()))
			i++
		case 'm':
			out.WriteString(quoteJoin(ctx.markedPaths()))
			i++
		default:
			if isASCIILetter(next) {
				// '%' immediately followed by a letter other than f/m is
				// not a wildcard at all; emit literally.
				out.WriteRune('%')
				continue
			}
			out.WriteString(shellQuote(ctx.currentPath()))
		}
	}
	return out.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func quoteJoin(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = shellQuote(p)
	}
	return strings.Join(quoted, " ")
}

// shellQuote wraps s in single quotes, escaping embedded single quotes the
// POSIX-portable way ('\'' ends the quote, escapes a literal quote, then
// reopens it).
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
