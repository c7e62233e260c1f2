package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is loaded from the working and home directories when present.
const DefaultConfigFile = ".fhircrawl.yaml"

// YAMLConfig is a kong configuration loader for YAML files. Keys are flag
// names; dashes may be written as underscores. Flags of a command may also be
// nested under the command name:
//
//	verbose: true
//	crawl:
//	  threads: 4
//	  time-limit: 10m
func YAMLConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid configuration file: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return v, nil
				}
			}
		}
		v, _ := lookup(values, flag.Name)
		return v, nil
	}
	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.ReplaceAll(name, "-", "_")]
	return v, ok
}
