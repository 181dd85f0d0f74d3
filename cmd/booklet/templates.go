package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	booklet "github.com/alnah/go-wpbooklet"
	"github.com/alnah/go-wpbooklet/internal/assets"
	"github.com/alnah/go-wpbooklet/internal/yamlutil"
)

// templateInfo is the printable view of a registered template.
type templateInfo struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Fields      []string `yaml:"fields"`
	Schema      bool     `yaml:"schema"`
	Fallback    bool     `yaml:"fallback,omitempty"`
}

// listTemplates describes the built-in registry in detection order.
func listTemplates() []templateInfo {
	reg := booklet.DefaultRegistry()
	schemas := assets.SchemaNames()

	var out []templateInfo
	for _, d := range reg.Descriptors() {
		out = append(out, templateInfo{
			Name:        d.Name,
			Description: d.Description,
			Fields:      d.Fields,
			Schema:      slices.Contains(schemas, d.Name),
			Fallback:    d.Name == reg.Fallback(),
		})
	}
	return out
}

// runTemplates prints the template types, in detection order.
func runTemplates(args []string, env *Environment) error {
	flags, err := parseTemplatesFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	infos := listTemplates()
	if flags.yaml {
		data, err := yamlutil.Marshal(map[string]any{"templates": infos})
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tFIELDS\tDESCRIPTION")
	for _, t := range infos {
		desc := t.Description
		if t.Fallback {
			desc += " (fallback)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, strings.Join(t.Fields, ","), desc)
	}
	return tw.Flush()
}
