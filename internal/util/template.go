package util

import "strings"

// RenderTemplate fills {name} placeholders in one pass. Values are inserted
// verbatim, so a store name containing "{amount}" is not expanded again.
// Placeholders without a value are left in place.
func RenderTemplate(body string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
