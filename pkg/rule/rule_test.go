package rule

import (
	"testing"

	"github.com/goliatone/go-formview/pkg/model"
)

func TestCompileEvaluates(t *testing.T) {
	t.Parallel()

	draft := model.Draft{
		"status":   "closed",
		"archived": false,
		"count":    3,
		"total":    12.5,
		"owner":    map[string]any{"name": "ann"},
		"tags":     []any{"x"},
	}
	ext := model.ExternalContext{
		Auth:   map[string]any{"role": "admin"},
		User:   map[string]any{"id": 4},
		Extras: map[string]any{"beta": true},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{`status == "closed"`, true},
		{`status != 'closed'`, false},
		{`status == closed`, true},
		{`archived`, false},
		{`!archived`, true},
		{`archived == false`, true},
		{`count == 3`, true},
		{`count > 2 && total <= 12.5`, true},
		{`count < 3`, false},
		{`owner.name == "ann"`, true},
		{`tags.0 == "x"`, true},
		{`missing == null`, true},
		{`owner != nil`, true},
		{`auth.role == "admin"`, true},
		{`user.id >= 4`, true},
		{`extras.beta && (archived || count == 3)`, true},
		{`!(status == "closed") || missing`, false},
		{``, false},
	}

	for _, tc := range cases {
		pred, err := Compile(tc.rule)
		if err != nil {
			t.Fatalf("compile %q: %v", tc.rule, err)
		}
		got, err := pred(draft, ext)
		if err != nil {
			t.Fatalf("eval %q: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("rule %q: want %v, got %v", tc.rule, tc.want, got)
		}
	}
}

func TestCompileRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		`status = "x"`,
		`a & b`,
		`a | b`,
		`(a`,
		`a ==`,
		`"unterminated`,
		`flag > true`,
		`a b`,
	} {
		if _, err := Compile(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustCompile("(")
}
