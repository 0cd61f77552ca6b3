// Package specparse extracts external access integration names from a service
// specification blob. The spec format varies (inline YAML list, DDL property,
// bare YAML sequence), so extraction runs an ordered list of independent
// strategies and unions their matches. This is best-effort by design: a blob
// none of the strategies understand yields an empty result, not an error.
package specparse

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// A strategy returns zero or more integration names found in the spec text.
type strategy func(spec string) []string

var strategies = []strategy{
	yamlListStrategy,
	bracketListStrategy,
	ddlPropertyStrategy,
}

// Extract runs every strategy over the spec and returns the union of matches,
// first-seen order, duplicates removed.
func Extract(spec string) []string {
	seen := map[string]bool{}
	var names []string
	for _, s := range strategies {
		for _, name := range s(spec) {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// yamlListStrategy parses the blob as YAML and walks it for an
// externalAccessIntegrations / EXTERNAL_ACCESS_INTEGRATIONS sequence at any
// nesting depth.
func yamlListStrategy(spec string) []string {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(spec), &doc); err != nil {
		return nil
	}
	return walkForIntegrations(doc)
}

func walkForIntegrations(v interface{}) []string {
	switch t := v.(type) {
	case map[string]interface{}:
		var names []string
		for key, val := range t {
			if isIntegrationsKey(key) {
				names = append(names, stringSlice(val)...)
				continue
			}
			names = append(names, walkForIntegrations(val)...)
		}
		return names
	case []interface{}:
		var names []string
		for _, item := range t {
			names = append(names, walkForIntegrations(item)...)
		}
		return names
	default:
		return nil
	}
}

func isIntegrationsKey(key string) bool {
	k := strings.ToUpper(strings.ReplaceAll(key, "_", ""))
	return k == "EXTERNALACCESSINTEGRATIONS"
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

var bracketListRe = regexp.MustCompile(`(?i)EXTERNAL_ACCESS_INTEGRATIONS:\s*\[([^\]]+)\]`)

// bracketListStrategy matches the inline form
// EXTERNAL_ACCESS_INTEGRATIONS: [A, 'B', "C"].
func bracketListStrategy(spec string) []string {
	m := bracketListRe.FindStringSubmatch(spec)
	if m == nil {
		return nil
	}
	return splitNameList(m[1])
}

var ddlPropertyRe = regexp.MustCompile(`(?i)EXTERNAL_ACCESS_INTEGRATIONS\s*=\s*\(([^)]+)\)`)

// ddlPropertyStrategy matches the DDL property form
// EXTERNAL_ACCESS_INTEGRATIONS = (A, B) seen in CREATE/ALTER SERVICE output.
func ddlPropertyStrategy(spec string) []string {
	m := ddlPropertyRe.FindStringSubmatch(spec)
	if m == nil {
		return nil
	}
	return splitNameList(m[1])
}

func splitNameList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		name := strings.Trim(strings.TrimSpace(part), `'"`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
