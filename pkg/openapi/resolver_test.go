package openapi_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/config"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/openapi"
)

const productDoc = `
openapi: 3.0.3
info:
  title: Inventory
  version: 1.0.0
paths: {}
components:
  schemas:
    Product:
      title: Product
      type: object
      required: [name, price]
      properties:
        sku:
          type: string
          pattern: "^[A-Z]{3}-[0-9]+$"
          readOnly: true
        name:
          type: string
          title: Name
          description: Shown in lists
          minLength: 3
          maxLength: 40
          x-formview-order: 1
        price:
          type: number
          minimum: 0
          exclusiveMinimum: true
          x-formview-order: 2
        releasedOn:
          type: string
          format: date
        dimensions:
          type: object
          x-formview-label: Size
          required: [width]
          properties:
            width:
              type: integer
              maximum: 100
            depth:
              type: integer
`

func TestResolverMapsSchemaToForm(t *testing.T) {
	t.Parallel()

	resolver, err := openapi.NewResolver([]byte(productDoc), openapi.WithModelPrefix("inventory."))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	if diff := cmp.Diff([]string{"Product"}, resolver.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	cfg, err := resolver.Resolve(context.Background(), "Product")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ModelName != "inventory.Product" || cfg.Title != "Product" {
		t.Fatalf("unexpected header: %q %q", cfg.ModelName, cfg.Title)
	}

	want := []model.Node{
		model.FieldNode(model.Field{
			Key: "name", Order: 1, Label: "Name", Type: model.FieldTypeString, HelpText: "Shown in lists",
			Rules: []model.ValidationRule{
				{Kind: model.ValidationRuleRequired},
				{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "3"}},
				{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "40"}},
			},
		}),
		model.FieldNode(model.Field{
			Key: "price", Order: 2, Label: "price", Type: model.FieldTypeNumber,
			Rules: []model.ValidationRule{
				{Kind: model.ValidationRuleRequired},
				{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "0", "exclusive": "true"}},
			},
		}),
		model.PanelNode(model.Panel{Key: "dimensions", Order: 3, Title: "Size", Children: []model.Node{
			model.FieldNode(model.Field{Key: "dimensions.depth", Order: 1, Label: "depth", Type: model.FieldTypeInteger}),
			model.FieldNode(model.Field{
				Key: "dimensions.width", Order: 2, Label: "width", Type: model.FieldTypeInteger,
				Rules: []model.ValidationRule{
					{Kind: model.ValidationRuleRequired},
					{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "100"}},
				},
			}),
		}}),
		model.FieldNode(model.Field{Key: "releasedOn", Order: 4, Label: "releasedOn", Type: model.FieldTypeDate}),
		model.FieldNode(model.Field{
			Key: "sku", Order: 5, Label: "sku", Type: model.FieldTypeString, Readonly: true,
			Rules: []model.ValidationRule{
				{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "^[A-Z]{3}-[0-9]+$"}},
			},
		}),
	}
	if diff := cmp.Diff(want, cfg.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverUnknownSchema(t *testing.T) {
	t.Parallel()

	resolver, err := openapi.NewResolver([]byte(productDoc))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "Order"); !errors.Is(err, config.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestResolverFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"api/inventory.yaml": {Data: []byte(productDoc)}}
	resolver, err := openapi.NewResolverFromFS(fsys, "api/inventory.yaml")
	if err != nil {
		t.Fatalf("from fs: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "Product"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := openapi.NewResolverFromFS(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := openapi.NewResolver(nil); err == nil {
		t.Fatalf("expected empty payload error")
	}
	if _, err := openapi.NewResolver([]byte("openapi: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
