package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	assert.Equal(t, "Title is required", T("required", map[string]string{"label": "Title"}))

	SetLanguage("ja")
	defer SetLanguage("en")
	assert.Equal(t, "Titleは必須です", T("required", map[string]string{"label": "Title"}))
}

func TestTranslator_Substitutes(t *testing.T) {
	tr := New("en-US")
	assert.Equal(t, "Name must be at least 3 characters long",
		tr.Message("too_short", map[string]string{"label": "Name", "min": "3"}))
	assert.Equal(t, "Age must be at most 10", tr.Message("too_big", map[string]string{"label": "Age", "max": "10"}))
}

func TestTranslator_UnknownCodeAndLanguage(t *testing.T) {
	tr := New("fr")
	assert.Equal(t, "Title is required", tr.Message("required", map[string]string{"label": "Title"}))
	assert.Equal(t, "Title: stars_out_of_range", tr.Message("stars_out_of_range", map[string]string{"label": "Title"}))
	assert.Equal(t, "stars_out_of_range", tr.Message("stars_out_of_range", nil))
}

type fixed string

func (f fixed) Message(string, map[string]string) string { return string(f) }

func TestSetTranslator(t *testing.T) {
	SetTranslator(fixed("x"))
	defer SetTranslator(nil)
	assert.Equal(t, "x", T("required", nil))
}
