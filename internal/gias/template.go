// Package gias mirrors the public CSV extracts published by the DfE
// "Get Information About Schools" service: each extract is downloaded once,
// validated, compared against the previous copy, and atomically replaced.
package gias

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Template maps one published extract to its stored filename. The URL pattern
// contains the literal placeholders {baseUrl} and {0} (the date token).
type Template struct {
	URLPattern string `yaml:"url"`
	OutputFile string `yaml:"file"`
}

// Catalog returns the built-in list of published extracts, in download order.
// The order only affects log readability.
func Catalog() []Template {
	return []Template{
		{URLPattern: "{baseUrl}/edubasealldata{0}.csv", OutputFile: "edubasealldata.csv"},
		{URLPattern: "{baseUrl}/links_edubasealldata{0}.csv", OutputFile: "links_edubasealldata.csv"},
		{URLPattern: "{baseUrl}/edubaseallstatefunded{0}.csv", OutputFile: "edubaseallstatefunded.csv"},
		{URLPattern: "{baseUrl}/links_edubaseallstatefunded{0}.csv", OutputFile: "links_edubaseallstatefunded.csv"},
		{URLPattern: "{baseUrl}/edubaseallacademiesandfree{0}.csv", OutputFile: "edubaseallacademiesandfree.csv"},
		{URLPattern: "{baseUrl}/links_edubaseallacademiesandfree{0}.csv", OutputFile: "links_edubaseallacademiesandfree.csv"},
		{URLPattern: "{baseUrl}/edubaseallla{0}.csv", OutputFile: "edubaseallla.csv"},
		{URLPattern: "{baseUrl}/links_edubaseallla{0}.csv", OutputFile: "links_edubaseallla.csv"},
		{URLPattern: "{baseUrl}/academiesmatmembership{0}.csv", OutputFile: "academiesmatmembership.csv"},
		{URLPattern: "{baseUrl}/allgroupsdata{0}.csv", OutputFile: "allgroupsdata.csv"},
		{URLPattern: "{baseUrl}/alllinksdata{0}.csv", OutputFile: "alllinksdata.csv"},
		{URLPattern: "{baseUrl}/governancealldata{0}.csv", OutputFile: "governancealldata.csv"},
		{URLPattern: "{baseUrl}/governanceallstatefunded{0}.csv", OutputFile: "governanceallstatefunded.csv"},
	}
}

// ExpandURL substitutes the base URL and date token into a URL pattern.
// Only the first occurrence of each placeholder is replaced.
func ExpandURL(pattern, baseURL, dateToken string) string {
	s := strings.Replace(pattern, "{baseUrl}", baseURL, 1)
	return strings.Replace(s, "{0}", dateToken, 1)
}

// LoadTemplates reads a catalog override from a YAML file. The file holds a
// list of {url, file} entries replacing the built-in catalog entirely.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "templates: read %s", path)
	}

	var templates []Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, eris.Wrapf(err, "templates: parse %s", path)
	}
	if len(templates) == 0 {
		return nil, eris.Errorf("templates: %s contains no entries", path)
	}
	for i, tpl := range templates {
		if tpl.URLPattern == "" || tpl.OutputFile == "" {
			return nil, eris.Errorf("templates: entry %d is missing url or file", i)
		}
	}

	return templates, nil
}
