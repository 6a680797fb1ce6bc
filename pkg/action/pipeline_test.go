package action_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/model"
)

func noop(context.Context, model.Draft) error { return nil }

func keys(list []action.Executable) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.Key())
	}
	return out
}

func always(v bool) model.Predicate {
	return func(model.Draft, model.ExternalContext) (bool, error) { return v, nil }
}

func TestAuthorized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		perms action.Permissions
		typ   model.ActionType
		want  bool
	}{
		{action.Permissions{CanCreate: true}, model.ActionCreate, true},
		{action.Permissions{}, model.ActionCreate, false},
		{action.Permissions{}, model.ActionUpdate, true},
		{action.Permissions{Readonly: true}, model.ActionUpdate, false},
		{action.Permissions{CanDelete: true}, model.ActionDelete, true},
		{action.Permissions{}, model.ActionDelete, false},
		{action.Permissions{Readonly: true}, model.ActionCustom, true},
	}
	for _, tc := range cases {
		if got := tc.perms.Authorized(tc.typ); got != tc.want {
			t.Fatalf("%+v %s: want %v, got %v", tc.perms, tc.typ, tc.want, got)
		}
	}
}

func TestBuildDropsDeleteWithoutPermission(t *testing.T) {
	t.Parallel()

	for _, hidden := range []bool{true, false} {
		p := action.New(action.Permissions{CanCreate: true, CanDelete: false})
		got := p.Build([]model.Action{
			{Key: "remove", Type: model.ActionDelete, Effect: noop, HideIf: always(hidden)},
			{Key: "save", Type: model.ActionUpdate, Effect: noop},
		}, model.Draft{}, model.ExternalContext{})

		if diff := cmp.Diff([]string{"save"}, keys(got)); diff != "" {
			t.Fatalf("hidden=%v: keys mismatch (-want +got):\n%s", hidden, diff)
		}
	}
}

func TestBuildRecoversFromMisbehavingActions(t *testing.T) {
	t.Parallel()

	var logged int
	log := funcr.New(func(_, _ string) { logged++ }, funcr.Options{})

	p := action.New(action.Permissions{CanCreate: true, CanDelete: true}, action.WithLogger(log))
	got := p.Build([]model.Action{
		{Key: "hidden", Type: model.ActionCustom, Effect: noop, HideIf: always(true)},
		{Key: "hide-errors", Type: model.ActionCustom, Effect: noop, HideIf: func(model.Draft, model.ExternalContext) (bool, error) {
			return false, errors.New("boom")
		}},
		{Key: "hide-panics", Type: model.ActionCustom, Effect: noop, HideIf: func(d model.Draft, _ model.ExternalContext) (bool, error) {
			return d["missing"].(bool), nil
		}},
		{Key: "no-effect", Type: model.ActionCustom},
		{Type: model.ActionCustom, Effect: noop},
		{Key: "describe-fails", Type: model.ActionCustom, Effect: noop, Describe: func(model.Action, model.Draft, model.ExternalContext) (model.Descriptor, error) {
			return model.Descriptor{}, fmt.Errorf("no icon")
		}},
		{Key: "save", Type: model.ActionUpdate, Effect: noop},
	}, model.Draft{}, model.ExternalContext{})

	if diff := cmp.Diff([]string{"save"}, keys(got)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if logged != 5 {
		t.Fatalf("expected 5 logged failures, got %d", logged)
	}
}

func TestBuildResolvesDescriptor(t *testing.T) {
	t.Parallel()

	p := action.New(action.Permissions{}, action.WithTranslator(mapTranslator{"Base_Save": "Enregistrer"}, "fr"))
	got := p.Build([]model.Action{
		{
			Key: "save", Type: model.ActionUpdate, Title: "Base_Save", Icon: "check", Color: "primary",
			Effect: noop, NeedValidation: true, ReadonlyAfterAction: true,
		},
		{
			Key: "archive", Type: model.ActionCustom, Effect: noop,
			Describe: func(a model.Action, d model.Draft, _ model.ExternalContext) (model.Descriptor, error) {
				return model.Descriptor{Title: fmt.Sprintf("Archive %v", d["name"]), Icon: "box"}, nil
			},
			Disabled: func(model.Draft, model.ExternalContext) (bool, error) { return false, errors.New("x") },
		},
	}, model.Draft{"name": "Alpha"}, model.ExternalContext{})

	want := []model.Descriptor{
		{Key: "save", Type: model.ActionUpdate, Title: "Enregistrer", Icon: "check", Color: "primary", NeedValidation: true, ReadonlyAfterAction: true},
		{Key: "archive", Type: model.ActionCustom, Title: "Archive Alpha", Icon: "box", Disabled: true},
	}
	var descriptors []model.Descriptor
	for _, item := range got {
		descriptors = append(descriptors, item.Descriptor)
	}
	if diff := cmp.Diff(want, descriptors); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(_, key string, _ ...any) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", errors.New("missing")
}
