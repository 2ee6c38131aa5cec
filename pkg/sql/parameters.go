package sql

import (
	"fmt"
	"regexp"
)

// parameterRegex matches {{parameter_name}} placeholders in SQL templates.
// Parameter names must start with a letter or underscore, followed by any
// number of alphanumeric characters or underscores.
var parameterRegex = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)

// PlaceholderStyle selects the positional placeholder syntax of the target
// database when substituting template parameters.
type PlaceholderStyle int

const (
	// PlaceholderDollar produces $1, $2, ... (PostgreSQL).
	PlaceholderDollar PlaceholderStyle = iota
	// PlaceholderQuestion produces ? for every parameter (MySQL, SQLite).
	PlaceholderQuestion
)

// ExtractParameters finds all {{param}} placeholders in SQL and returns a
// deduplicated list of parameter names in order of first appearance.
func ExtractParameters(sqlQuery string) []string {
	matches := parameterRegex.FindAllStringSubmatch(sqlQuery, -1)
	seen := make(map[string]bool)
	var params []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
	}

	return params
}

// SubstituteParameters replaces {{param}} placeholders with positional
// placeholders in the requested style and returns the prepared SQL along
// with ordered values for binding.
//
// With PlaceholderDollar a parameter used multiple times is bound once and
// reuses the same $N. With PlaceholderQuestion every occurrence becomes its
// own ? and the value is repeated, since ? placeholders are purely positional.
//
// Every placeholder must have a value in supplied; a missing value is an
// error rather than a silent NULL.
func SubstituteParameters(sqlQuery string, supplied map[string]any, style PlaceholderStyle) (string, []any, error) {
	var missing string
	var orderedValues []any
	paramPositions := make(map[string]int)
	paramIndex := 1

	result := parameterRegex.ReplaceAllStringFunc(sqlQuery, func(match string) string {
		name := parameterRegex.FindStringSubmatch(match)[1]

		value, ok := supplied[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}

		if style == PlaceholderQuestion {
			orderedValues = append(orderedValues, value)
			return "?"
		}

		if pos, exists := paramPositions[name]; exists {
			return fmt.Sprintf("$%d", pos)
		}

		paramPositions[name] = paramIndex
		orderedValues = append(orderedValues, value)
		pos := paramIndex
		paramIndex++

		return fmt.Sprintf("$%d", pos)
	})

	if missing != "" {
		return "", nil, fmt.Errorf("parameter '%s' is required but no value was supplied", missing)
	}

	return result, orderedValues, nil
}
