package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formview/pkg/draft"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/render"
)

// SkipAction is the extra option offered after the field prompts.
const SkipAction = "Done"

// Renderer implements render.Renderer for terminal-driven sessions: it walks
// the view tree in order, prompts every editable field and serializes the
// collected values.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	sink              FieldSink
	onAction          ActionHandler
	submitTransformer SubmitTransformer
	theme             Theme
	log               logr.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		driver:       NewSurveyDriver(nil),
		outputFormat: OutputFormatJSON,
		log:          logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for the view's fields. Terminal views print their message
// and serialize no values. Readonly fields are printed, not prompted.
func (r *Renderer) Render(ctx context.Context, view render.View) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrDriverNil
	}

	if !view.Tree.Ready() {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+terminalMessage(view.Tree)); err != nil {
			return nil, err
		}
		return r.serialize(map[string]any{})
	}

	if view.Title != "" {
		if err := r.driver.Info(ctx, r.theme.PanelPrefix+view.Title); err != nil {
			return nil, err
		}
	}
	for _, msg := range view.FormErrors {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return nil, err
		}
	}

	state := NewState(view.Tree)
	if err := r.promptNodes(ctx, view.Tree.Nodes, state); err != nil {
		return nil, err
	}

	if err := r.chooseAction(ctx, view); err != nil {
		return nil, err
	}

	values := state.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func terminalMessage(tree render.Tree) string {
	if tree.Message != "" {
		return tree.Message
	}
	return tree.MessageKey
}

func (r *Renderer) promptNodes(ctx context.Context, nodes []render.ViewNode, state *State) error {
	for _, node := range nodes {
		if node.IsPanel() {
			if node.Label != "" {
				if err := r.driver.Info(ctx, r.theme.PanelPrefix+node.Label); err != nil {
					return err
				}
			}
			if err := r.promptNodes(ctx, node.Children, state); err != nil {
				return err
			}
			continue
		}
		if err := r.promptField(ctx, node, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, node render.ViewNode, state *State) error {
	label := displayLabel(node)
	current, _ := state.GetValue(node.Key)

	if node.Readonly {
		return r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.InfoPrefix, label, formatValue(current)))
	}
	for _, msg := range state.ErrorsFor(node.Key) {
		if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, label, msg)); err != nil {
			return err
		}
	}

	for {
		value, err := r.ask(ctx, node, label, current)
		if err != nil {
			var bad invalidAnswerError
			if errors.As(err, &bad) {
				_ = r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %v", r.theme.ErrorPrefix, label, bad.err))
				continue
			}
			return err
		}
		if draft.Identical(current, value) {
			return nil
		}
		state.SetValue(node.Key, value)
		return r.forward(ctx, node, value, state)
	}
}

// forward hands the answer to the sink and adopts the resulting draft so
// later prompts default to cascaded values.
func (r *Renderer) forward(ctx context.Context, node render.ViewNode, value any, state *State) error {
	if r.sink == nil {
		return nil
	}
	if _, err := r.sink.HandleFieldChange(node.Key, value); err != nil {
		r.log.Info("field change rejected", "field", node.Key, "error", err.Error())
		return r.driver.Info(ctx, fmt.Sprintf("%s%s: %v", r.theme.ErrorPrefix, displayLabel(node), err))
	}
	if src, ok := r.sink.(interface{ Draft() model.Draft }); ok {
		state.Replace(src.Draft())
	}
	return nil
}

type invalidAnswerError struct {
	err error
}

func (e invalidAnswerError) Error() string {
	return e.err.Error()
}

func invalid(format string, args ...any) error {
	return invalidAnswerError{err: fmt.Errorf(format, args...)}
}

func (r *Renderer) ask(ctx context.Context, node render.ViewNode, label string, current any) (any, error) {
	help := node.HelpText

	switch node.Type {
	case model.FieldTypeBoolean:
		def, _ := current.(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: help})
		if err != nil {
			return nil, err
		}
		return answer, nil

	case model.FieldTypeInteger, model.FieldTypeNumber:
		input, err := r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(current), Help: help})
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			if node.Required {
				return nil, invalid("required")
			}
			return nil, nil
		}
		if node.Type == model.FieldTypeInteger {
			n, err := strconv.ParseInt(input, 10, 64)
			if err != nil {
				return nil, invalid("expected a whole number")
			}
			return float64(n), nil
		}
		f, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return nil, invalid("expected a number")
		}
		return f, nil

	case model.FieldTypeDate:
		input, err := r.driver.Input(ctx, InputConfig{Message: label + " (YYYY-MM-DD)", Default: formatValue(current), Help: help})
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			if node.Required {
				return nil, invalid("required")
			}
			return nil, nil
		}
		if _, err := time.Parse(time.DateOnly, input); err != nil {
			if _, err := time.Parse(time.RFC3339, input); err != nil {
				return nil, invalid("expected a date")
			}
		}
		return input, nil

	case model.FieldTypeObject:
		input, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label + " (JSON)", Default: formatValue(current), Help: help})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(input) == "" {
			if node.Required {
				return nil, invalid("required")
			}
			return nil, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(input), &decoded); err != nil {
			return nil, invalid("invalid JSON: %v", err)
		}
		return decoded, nil

	default:
		input, err := r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(current), Help: help})
		if err != nil {
			return nil, err
		}
		if node.Required && strings.TrimSpace(input) == "" {
			return nil, invalid("required")
		}
		return input, nil
	}
}

// chooseAction offers the enabled actions and runs the chosen one. Nothing is
// offered without an ActionHandler.
func (r *Renderer) chooseAction(ctx context.Context, view render.View) error {
	if r.onAction == nil {
		return nil
	}
	var keys, titles []string
	for _, desc := range view.Actions {
		if desc.Disabled {
			continue
		}
		keys = append(keys, desc.Key)
		titles = append(titles, desc.Title)
	}
	if len(keys) == 0 {
		return nil
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      "Action",
		Options:      append(titles, SkipAction),
		DefaultIndex: len(titles),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(keys) {
		return nil
	}
	if err := r.onAction(ctx, keys[idx]); err != nil {
		return fmt.Errorf("tui: action %s: %w", keys[idx], err)
	}
	return nil
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(node render.ViewNode) string {
	if node.Label != "" {
		return node.Label
	}
	return node.Key
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, value := range values {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				flattened.Add(key+"[]", formatValue(item))
			}
		default:
			flattened.Set(key, formatValue(v))
		}
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	state := &State{values: values}
	var b strings.Builder
	for _, key := range state.Keys() {
		fmt.Fprintf(&b, "%s=%s\n", key, formatValue(values[key]))
	}
	return b.String()
}
