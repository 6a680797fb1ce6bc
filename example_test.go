package formview_test

import (
	"context"
	"fmt"
	"strings"
	"testing/fstest"

	"github.com/goliatone/go-formview"
	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/form"
)

func ExampleGenerateHTML() {
	forms := fstest.MapFS{"forms/task.yaml": {Data: []byte(`
forms:
  task:
    title: Task
    content:
      - field: summary
        label: Summary
        rules:
          - kind: required
`)}}

	registry, err := formview.LoadForms(forms, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	out, err := formview.GenerateHTML(context.Background(), registry, "task", formview.Draft{"id": 1, "summary": "Write docs"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(strings.Contains(string(out), `value="Write docs"`))
	// Output: true
}

func ExampleNewOrchestrator() {
	registry, err := formview.LoadForms(fstest.MapFS{"task.yaml": {Data: []byte(`
forms:
  task:
    content:
      - field: summary
`)}}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	orch := formview.NewOrchestrator(formview.WithResolver(registry))
	session, err := orch.Open(context.Background(), formview.Request{
		FormKey:     "task",
		Permissions: action.Permissions{CanCreate: true},
		Options:     []form.Option{form.WithDefaultEditMode(true)},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer session.Close()

	changed, err := session.HandleFieldChange("summary", "Ship it")
	fmt.Println(changed, err, session.IsCreation())
	// Output: true <nil> true
}
