package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches ${NAME} and ${NAME:-default} placeholders.
var varPattern = regexp.MustCompile(`\$\{(\w+)(?::-([^}]*))?\}`)

// LookupFunc resolves a variable. It matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Interpolate replaces ${NAME} placeholders in descriptor text before it is
// parsed. ${NAME:-fallback} uses fallback when NAME is unset. "$${" escapes a
// literal "${". Every unresolved variable is reported in one error.
func Interpolate(content string, lookup LookupFunc) (string, error) {
	const escaped = "\x00keel-escaped\x00"
	content = strings.ReplaceAll(content, "$${", escaped)

	var missing []string
	result := varPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		key := groups[1]

		if value, ok := lookup(key); ok {
			return value
		}
		if strings.Contains(match, ":-") {
			return groups[2]
		}

		missing = append(missing, key)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing variables: ${%s}", strings.Join(missing, "}, ${"))
	}

	return strings.ReplaceAll(result, escaped, "${"), nil
}

// MapLookup adapts a map to a LookupFunc.
func MapLookup(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}
