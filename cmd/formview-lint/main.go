package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [dirs...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form documents for dependency mistakes.\n"); err != nil {
			panic(err)
		}
	}
	pattern := flag.String("pattern", "", "only lint documents matching this glob (for example **/*.yaml)")
	flag.Parse()

	dirs := flag.Args()
	if len(dirs) == 0 {
		dirs = []string{"forms"}
	}

	ctx := context.Background()
	var violations []violation
	for _, dir := range dirs {
		linted, err := lintDir(ctx, dir, *pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", dir, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sortViolations(violations)
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}

func lintDir(ctx context.Context, dir, pattern string) ([]violation, error) {
	registry, err := config.LoadMatching(os.DirFS(dir), pattern, nil)
	if err != nil {
		return nil, err
	}
	var result []violation
	for _, key := range registry.List() {
		cfg, err := registry.Resolve(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", key, err)
		}
		result = append(result, lintForm(dir, cfg)...)
	}
	return result, nil
}

// lintForm reports dependencies the cascade cannot honour. The cascade walks
// fields once in declaration order, so a field can only react to derived
// fields declared before it.
func lintForm(file string, cfg model.FormConfig) []violation {
	fields := cfg.Fields()
	base := []string{"form", cfg.Key}
	if len(fields) == 0 {
		return []violation{{file: file, location: formatLocation(base), message: "form declares no fields"}}
	}

	position := make(map[string]int, len(fields))
	for i, field := range fields {
		position[field.Key] = i
	}

	var result []violation
	for i, field := range fields {
		location := formatLocation(appendPath(base, field.Key))
		for _, source := range sortedSources(field.DependsOn) {
			at, declared := position[source]
			switch {
			case source == field.Key:
				result = append(result, violation{file: file, location: location, message: "field depends on itself"})
			case !declared:
				result = append(result, violation{
					file:     file,
					location: location,
					message:  fmt.Sprintf("depends on undeclared field %q", source),
				})
			case at > i && len(fields[at].DependsOn) > 0:
				result = append(result, violation{
					file:     file,
					location: location,
					message:  fmt.Sprintf("depends on derived field %q declared after it; cascaded changes will not reach it", source),
				})
			}
		}
	}
	return result
}

func sortedSources(dependsOn map[string]model.Derivation) []string {
	keys := make([]string, 0, len(dependsOn))
	for key := range dependsOn {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortViolations(violations []violation) {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	next = append(next, segment)
	return next
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
