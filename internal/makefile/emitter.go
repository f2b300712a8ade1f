// Package makefile renders a workspace as a GNU Makefile.
package makefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
)

// DefaultPath is where the Makefile is written when no path is given
const DefaultPath = "Makefile"

// Options controls Makefile generation
type Options struct {
	// SharedVariables emits CC, CFLAGS, ... once per target under the same
	// names, so a later target redefines the variables of an earlier one.
	// Off by default: each target then gets its own <NAME>_ prefixed set.
	SharedVariables bool
}

type rule struct {
	name    string
	prefix  string
	output  string
	sources []string
}

// Generate renders ws. Disabled targets and targets of an unknown kind are left out.
func Generate(ws *config.Workspace, opts Options) (string, error) {
	if ws == nil {
		return "", errors.New("workspace is nil")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT_NAME = %s\n\n", ws.Project.Name)

	defines := ws.Project.VersionDefines()

	var rules []rule
	for _, t := range ws.EnabledTargets() {
		output, err := compiler.OutputPath(t)
		if err != nil {
			var kindErr *compiler.UnknownKindError
			if errors.As(err, &kindErr) {
				continue
			}

			return "", err
		}

		r := rule{
			name:    t.Name,
			output:  filepath.ToSlash(output),
			sources: t.Sources,
		}
		if !opts.SharedVariables {
			r.prefix = variablePrefix(t.Name)
		}

		writeTarget(&b, t.WithDefines(defines...), r)
		rules = append(rules, r)
	}

	names := make([]string, len(rules))
	outputs := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
		outputs[i] = r.output
	}

	fmt.Fprintf(&b, ".PHONY: %s\n\n", strings.Join(append(names, "clean"), " "))
	b.WriteString("clean:\n")
	if len(outputs) > 0 {
		fmt.Fprintf(&b, "\trm -f %s\n", strings.Join(outputs, " "))
	}

	return b.String(), nil
}

// Write renders ws and stores the result at path
func Write(ws *config.Workspace, path string, opts Options) error {
	content, err := Generate(ws, opts)
	if err != nil {
		return err
	}

	if path == "" {
		path = DefaultPath
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write makefile: %w", err)
	}

	return nil
}

func writeTarget(b *strings.Builder, t config.Target, r rule) {
	ldflags := append([]string{}, t.LinkerFlags...)
	if t.IsMacOS() {
		for _, fw := range t.Frameworks {
			ldflags = append(ldflags, "-framework", fw)
		}
	}

	v := func(name string) string { return r.prefix + name }

	fmt.Fprintf(b, "%s = %s\n", v("CC"), t.Compiler)
	fmt.Fprintf(b, "%s = %s\n", v("CFLAGS"), strings.Join(t.CompilerFlags, " "))
	fmt.Fprintf(b, "%s = %s\n", v("LDFLAGS"), strings.Join(ldflags, " "))
	fmt.Fprintf(b, "%s = %s\n", v("DEFINES"), joinPrefixed("-D", t.Defines))
	fmt.Fprintf(b, "%s = %s\n", v("INCLUDES"), joinPrefixed("-I", t.Includes))
	fmt.Fprintf(b, "%s = %s\n", v("SOURCES"), strings.Join(r.sources, " "))
	fmt.Fprintf(b, "%s = %s\n\n", v("OUTPUT"), r.output)

	ref := func(name string) string { return "$(" + v(name) + ")" }

	fmt.Fprintf(b, "%s: %s\n", r.name, ref("SOURCES"))
	fmt.Fprintf(b, "\t%s %s %s %s %s %s -o %s\n\n",
		ref("CC"), ref("CFLAGS"), ref("DEFINES"), ref("INCLUDES"), ref("SOURCES"), ref("LDFLAGS"), ref("OUTPUT"))
}

func joinPrefixed(prefix string, items []string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = prefix + item
	}

	return strings.Join(parts, " ")
}

// variablePrefix turns a target name into a make variable prefix,
// e.g. "my-app" becomes "MY_APP_"
func variablePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	b.WriteRune('_')

	return b.String()
}
