package validation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/validation"
)

func productForm() model.FormConfig {
	return model.FormConfig{
		Key: "product",
		Content: []model.Node{
			model.FieldNode(model.Field{Key: "name", Rules: []model.ValidationRule{
				{Kind: model.ValidationRuleRequired},
				{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "3"}},
			}}),
			model.PanelNode(model.Panel{Key: "stock", Children: []model.Node{
				model.FieldNode(model.Field{Key: "qty", Rules: []model.ValidationRule{
					{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "0"}},
					{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "10", "exclusive": "true"}},
				}}),
				model.FieldNode(model.Field{Key: "sku", Rules: []model.ValidationRule{
					{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": `^[A-Z]{3}-\d+$`, "message": "use ABC-123"}},
					{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "8"}},
				}}),
			}}),
		},
	}
}

func TestRuleValidatorCollectsOrderedErrors(t *testing.T) {
	t.Parallel()

	v := validation.NewRuleValidator()
	err := v.Validate(context.Background(), productForm(), model.Draft{
		"name": "ab",
		"qty":  10,
		"sku":  "abc-123456",
	})

	got, ok := validation.ErrorsFrom(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	want := validation.Errors{
		{FieldKey: "name", Message: "must be at least 3 characters"},
		{FieldKey: "qty", Message: "must be less than 10"},
		{FieldKey: "sku", Message: "use ABC-123"},
		{FieldKey: "sku", Message: "must be at most 8 characters"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleValidatorRequiredAndOptional(t *testing.T) {
	t.Parallel()

	v := validation.NewRuleValidator()
	err := v.Validate(context.Background(), productForm(), model.Draft{"name": "  "})
	got, _ := validation.ErrorsFrom(err)
	want := validation.Errors{{FieldKey: "name", Message: "required"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if err := v.Validate(context.Background(), productForm(), model.Draft{"name": "valid", "qty": "4", "sku": "ABC-1"}); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestRuleValidatorHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := validation.NewRuleValidator().Validate(ctx, productForm(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestErrorsFrom(t *testing.T) {
	t.Parallel()

	if _, ok := validation.ErrorsFrom(nil); ok {
		t.Fatalf("nil error must not yield errors")
	}

	wrapped := fmt.Errorf("remote: %w", validation.Errors{
		{FieldKey: " name ", Message: " required "},
		{FieldKey: "name", Message: "required"},
		{FieldKey: "other", Message: ""},
	})
	got, ok := validation.ErrorsFrom(wrapped)
	if !ok {
		t.Fatalf("expected errors")
	}
	if diff := cmp.Diff(validation.Errors{{FieldKey: "name", Message: "required"}}, got); diff != "" {
		t.Fatalf("normalised mismatch (-want +got):\n%s", diff)
	}

	single, _ := validation.ErrorsFrom(validation.FieldError{FieldKey: "email", Message: "invalid"})
	if diff := cmp.Diff(validation.Errors{{FieldKey: "email", Message: "invalid"}}, single); diff != "" {
		t.Fatalf("single mismatch (-want +got):\n%s", diff)
	}

	plain, _ := validation.ErrorsFrom(errors.New("server unavailable"))
	if diff := cmp.Diff(validation.Errors{{Message: "server unavailable"}}, plain); diff != "" {
		t.Fatalf("plain mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorsByField(t *testing.T) {
	t.Parallel()

	fields, form := validation.Errors{
		{FieldKey: "name", Message: "required"},
		{Message: "record locked"},
		{FieldKey: "name", Message: "too short"},
	}.ByField()

	if diff := cmp.Diff(map[string][]string{"name": {"required", "too short"}}, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"record locked"}, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}
