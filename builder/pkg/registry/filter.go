package registry

import (
	"fmt"
	"regexp"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
)

// EntryInfo is the environment filter expressions are evaluated against.
type EntryInfo struct {
	App    string `expr:"app"`    // Identifier the application was discovered under
	Name   string `expr:"name"`   // Name declared by the manifest
	Module string `expr:"module"` // Exposed module name
	URL    string `expr:"url"`    // Fully qualified asset URL
}

const FilterHelp = "Only publish entries matching an expression: fields(app, name, module, url <string>); " +
	"operators(==,!=,in,contains,startsWith,endsWith,matches); helpers(glob(field, pattern), regex(field, pattern)); " +
	"logic(and|or|not); Example: --registry.filter=\"not glob(app, 'legacy-*') and module endsWith 'Module'\""

type EntryFilter func(EntryInfo) (bool, error)

// CompileFilter turns an expression into an entry filter. An empty query keeps every entry.
func CompileFilter(query string) (EntryFilter, error) {
	if query == "" {
		return func(EntryInfo) (bool, error) { return true, nil }, nil
	}

	prog, err := expr.Compile(query,
		expr.Env(EntryInfo{}),
		expr.AsBool(),
		expr.Function("glob", func(params ...any) (any, error) { return globMatch(params[0].(string), params[1].(string)) }, new(func(string, string) bool)),
		expr.Function("regex", func(params ...any) (any, error) { return regexMatch(params[0].(string), params[1].(string)) }, new(func(string, string) bool)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, query, err)
	}

	return func(info EntryInfo) (bool, error) {
		out, err := expr.Run(prog, info)
		if err != nil {
			return false, fmt.Errorf("filter eval %q on %s: %w", query, info.App, err)
		}
		result, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("filter expression resulted in a non-boolean value of type %T", out)
		}
		return result, nil
	}, nil
}

// globMatch uses doublestar so "**" and "{a,b}" work the same as in exclude patterns
func globMatch(s, pattern string) (bool, error) {
	return doublestar.Match(pattern, s)
}

func regexMatch(s, pattern string) (bool, error) {
	return regexp.MatchString(pattern, s)
}

// excluded reports whether app matches any of the exclude patterns. Patterns are validated with
// the configuration so match errors cannot occur here.
func excluded(patterns []string, app string) bool {
	for _, pattern := range patterns {
		if match, _ := doublestar.Match(pattern, app); match {
			return true
		}
	}
	return false
}
