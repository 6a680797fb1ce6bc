package formview

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/openapi"
)

// LoadForms parses every YAML/JSON form document in fsys. Named derivations,
// predicates and effects resolve through funcs; nil uses the built-ins.
func LoadForms(fsys fs.FS, funcs *config.Functions) (*config.Registry, error) {
	return config.LoadFS(fsys, funcs)
}

// LoadOpenAPI builds a resolver over the component schemas of the OpenAPI
// document at name in fsys.
func LoadOpenAPI(fsys fs.FS, name string, options ...openapi.Option) (*openapi.Resolver, error) {
	return openapi.NewResolverFromFS(fsys, name, options...)
}

// LoadResolver combines a directory of form documents and an optional
// OpenAPI file into one resolver. Form documents win over schemas sharing a
// key. Either path may be empty, but not both.
func LoadResolver(formsDir, openapiFile string, options ...openapi.Option) (config.Resolver, error) {
	var resolvers []config.Resolver
	if strings.TrimSpace(formsDir) != "" {
		registry, err := config.LoadFS(os.DirFS(formsDir), nil)
		if err != nil {
			return nil, fmt.Errorf("formview: load forms from %s: %w", formsDir, err)
		}
		resolvers = append(resolvers, registry)
	}
	if strings.TrimSpace(openapiFile) != "" {
		resolver, err := openapi.NewResolverFromFS(os.DirFS(filepath.Dir(openapiFile)), filepath.Base(openapiFile), options...)
		if err != nil {
			return nil, fmt.Errorf("formview: load openapi %s: %w", openapiFile, err)
		}
		resolvers = append(resolvers, resolver)
	}
	if len(resolvers) == 0 {
		return nil, errors.New("formview: a forms directory or an openapi document is required")
	}
	return config.Chain(resolvers...), nil
}
