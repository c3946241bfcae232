package blueprint_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/blueprint"
	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/schema"
)

func form(fields map[string]any) map[string]any {
	return map[string]any{"form": map[string]any{"fields": fields}}
}

func articleBlueprint(extra ...map[string]any) *blueprint.Blueprint {
	fields := map[string]any{
		"title": map[string]any{
			"type":     "text",
			"label":    "Title",
			"default":  "Untitled",
			"validate": map[string]any{"required": true},
		},
		"tags":  map[string]any{"type": "commalist"},
		"count": map[string]any{"type": "number", "validate": map[string]any{"min": 1}},
		"header": map[string]any{
			"fields": map[string]any{
				"published":   map[string]any{"type": "toggle", "default": true},
				"author.name": map[string]any{"type": "text", "label": "Author", "validate": map[string]any{"required": true}},
			},
		},
		"links": map[string]any{
			"type": "list",
			"fields": map[string]any{
				"url": map[string]any{"type": "url", "label": "URL", "validate": map[string]any{"required": true}},
			},
		},
	}
	for _, e := range extra {
		for k, v := range e {
			fields[k] = v
		}
	}
	return blueprint.FromMap("article", form(fields))
}

func TestScenario_TitleAndTags(t *testing.T) {
	bp := blueprint.FromMap("s", form(map[string]any{
		"title": map[string]any{"type": "text", "validate": map[string]any{"required": true}},
		"tags":  map[string]any{"type": "commalist"},
	}))
	ctx := context.Background()

	got, err := bp.Filter(ctx, map[string]any{"tags": "a, b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tags": []any{"a", "b"}}, got)

	err = bp.Validate(ctx, map[string]any{"tags": "a, b"})
	iss, ok := blueprint.AsIssues(err)
	require.True(t, ok, "want Issues, got %v", err)
	require.Len(t, iss, 1)
	assert.Equal(t, "title", iss[0].Path)
	assert.Equal(t, blueprint.CodeRequired, iss[0].Code)
	assert.Equal(t, "title is required", iss[0].Message)
}

func TestValidate_ReportsEveryMissingRequiredField(t *testing.T) {
	bp := articleBlueprint()
	err := bp.Validate(context.Background(), map[string]any{
		"links": []any{map[string]any{}, map[string]any{"url": "https://example.com"}},
	})
	iss, ok := blueprint.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{"header.author.name", "links.0.url", "title"}, iss.Paths())
	for _, it := range iss {
		assert.Equal(t, blueprint.CodeRequired, it.Code, it.Path)
	}
	assert.Equal(t, []string{"Author is required"}, iss.ByField()["header.author.name"])
}

func TestValidate_RequiredLevelBeforeNested(t *testing.T) {
	bp := articleBlueprint()
	err := bp.Validate(context.Background(), map[string]any{"header": map[string]any{}})
	iss, _ := blueprint.AsIssues(err)
	require.Len(t, iss, 2)
	assert.Equal(t, "title", iss[0].Path)
	assert.Equal(t, "header.author.name", iss[1].Path)
}

func TestValidate_ValuesAndTypes(t *testing.T) {
	bp := articleBlueprint()
	err := bp.Validate(context.Background(), map[string]any{
		"title":  "Hello",
		"count":  0,
		"header": "oops",
		"links":  []any{map[string]any{"url": "not a url"}},
	})
	iss, ok := blueprint.AsIssues(err)
	require.True(t, ok)
	byPath := map[string]string{}
	for _, it := range iss {
		byPath[it.Path] = it.Code
	}
	assert.Equal(t, map[string]string{
		"count":       blueprint.CodeTooSmall,
		"header":      blueprint.CodeInvalidType,
		"links.0.url": blueprint.CodeInvalidFormat,
	}, byPath)
}

func TestValidate_EmptyStringRequiredReportedOnce(t *testing.T) {
	bp := articleBlueprint()
	err := bp.Validate(context.Background(), map[string]any{
		"title":  "",
		"header": map[string]any{"author": map[string]any{"name": "Ann"}},
	})
	iss, _ := blueprint.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "title", iss[0].Path)
	assert.Equal(t, "required", iss[0].Rule)
}

func TestValidate_Valid(t *testing.T) {
	bp := articleBlueprint()
	err := bp.Validate(context.Background(), map[string]any{
		"title":  "Hello",
		"tags":   []any{"a"},
		"header": map[string]any{"published": true, "author": map[string]any{"name": "Ann"}},
		"links":  []any{map[string]any{"url": "https://example.com"}},
		"other":  "ignored when not strict",
	})
	assert.NoError(t, err)
}

func TestValidate_StrictUnknownField(t *testing.T) {
	bp := blueprint.FromMap("s", map[string]any{"form": map[string]any{
		"validation": "strict",
		"fields":     map[string]any{"title": map[string]any{"type": "text"}},
	}})
	err := bp.Validate(context.Background(), map[string]any{"title": "x", "bogus": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, blueprint.ErrUnknownField))
	var ue *blueprint.UnknownFieldError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "bogus", ue.Path)
	_, isIssues := blueprint.AsIssues(err)
	assert.False(t, isIssues)

	got, err := bp.Filter(context.Background(), map[string]any{"title": "x", "bogus": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "x"}, got)
}

func TestValidate_MessagesAndFailFast(t *testing.T) {
	bp := articleBlueprint(map[string]any{
		"code": map[string]any{"type": "text", "validate": map[string]any{"pattern": "[A-Z]+", "message": "Use capitals"}},
	})
	ctx := blueprint.WithLanguage(context.Background(), "ja")
	err := bp.Validate(ctx, map[string]any{"code": "abc"})
	iss, _ := blueprint.AsIssues(err)
	msgs := iss.ByField()
	assert.Equal(t, []string{"Use capitals"}, msgs["code"])
	assert.Equal(t, []string{"Titleは必須です"}, msgs["title"])

	err = bp.Validate(blueprint.WithFailFast(context.Background(), true), map[string]any{"code": "abc"})
	iss, _ = blueprint.AsIssues(err)
	assert.Len(t, iss, 1)
}

type upper string

func (u upper) Message(code string, _ map[string]string) string { return string(u) + code }

func TestOptions_TranslatorAndFailFast(t *testing.T) {
	bp := blueprint.FromMap("s", form(map[string]any{
		"a": map[string]any{"type": "text", "validate": map[string]any{"required": true}},
		"b": map[string]any{"type": "text", "validate": map[string]any{"required": true}},
	}), blueprint.Options{Translator: upper("E:"), FailFast: true})
	err := bp.Validate(context.Background(), map[string]any{})
	iss, _ := blueprint.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "E:required", iss[0].Message)
	assert.Equal(t, "required at a", err.Error())
}

func TestValidate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := articleBlueprint().Validate(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_Idempotent(t *testing.T) {
	bp := articleBlueprint()
	a, err := bp.Index()
	require.NoError(t, err)
	b, err := bp.Index()
	require.NoError(t, err)
	assert.Same(t, a, b)

	again, err := schema.Build(bp.Raw())
	require.NoError(t, err)
	assert.Equal(t, a.Paths(), again.Paths())
	assert.Equal(t, a.Flat, again.Flat)
	assert.Equal(t, a.Nested, again.Nested)
}

func TestIndex_ErrorSurfaces(t *testing.T) {
	bp := blueprint.FromMap("bad", form(map[string]any{"title": "not a map"}))
	_, err := bp.Fields()
	require.Error(t, err)
	assert.Error(t, bp.Validate(context.Background(), map[string]any{}))
	_, err = bp.Filter(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestFieldLookup(t *testing.T) {
	bp := articleBlueprint()
	f, err := bp.Field("header.author.name")
	require.NoError(t, err)
	assert.Equal(t, "Author", f.Label())

	_, err = bp.Field("nope")
	assert.ErrorIs(t, err, blueprint.ErrFieldNotFound)

	top, err := bp.Fields()
	require.NoError(t, err)
	assert.Len(t, top, 5)
}

func TestExtend(t *testing.T) {
	a := blueprint.FromMap("a", form(map[string]any{
		"x": map[string]any{"type": "text", "label": "A"},
	}))
	b := blueprint.FromMap("b", form(map[string]any{
		"x": map[string]any{"label": "B", "validate": map[string]any{"required": true}},
		"y": map[string]any{"type": "text"},
	}))

	on := a.Extend(b, true)
	x, err := on.Field("x")
	require.NoError(t, err)
	assert.Equal(t, "B", x.Label())
	assert.True(t, x.Required())
	_, err = on.Field("y")
	assert.NoError(t, err)

	under := a.Extend(b, false)
	x, err = under.Field("x")
	require.NoError(t, err)
	assert.Equal(t, "A", x.Label())
	assert.True(t, x.Required())

	orig, err := a.Field("x")
	require.NoError(t, err)
	assert.False(t, orig.Required(), "receiver is not modified")
	_, err = a.Field("y")
	assert.ErrorIs(t, err, blueprint.ErrFieldNotFound)
}

func TestMain(m *testing.M) {
	i18n.SetLanguage("en")
	m.Run()
}
