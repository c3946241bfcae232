// Package i18n renders human-readable messages for issue codes.
//
// Messages live in a golang.org/x/text catalog (English and Japanese). Each
// code declares which data keys it substitutes; "label" is always the field's
// display name.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "label" or "min").
type Translator interface {
	Message(code string, data map[string]string) string
}

type entry struct {
	args []string
	en   string
	ja   string
}

var entries = map[string]entry{
	"invalid_type":      {[]string{"label", "expected"}, "%[1]s must be a valid %[2]s", "%[1]sは有効な%[2]sではありません"},
	"required":          {[]string{"label"}, "%[1]s is required", "%[1]sは必須です"},
	"unknown_key":       {[]string{"label"}, "%[1]s is not a known field", "%[1]sは未知のフィールドです"},
	"duplicate_key":     {[]string{"label"}, "%[1]s is duplicated", "%[1]sが重複しています"},
	"too_short":         {[]string{"label", "min"}, "%[1]s must be at least %[2]s characters long", "%[1]sは%[2]s文字以上で入力してください"},
	"too_long":          {[]string{"label", "max"}, "%[1]s must be at most %[2]s characters long", "%[1]sは%[2]s文字以内で入力してください"},
	"too_small":         {[]string{"label", "min"}, "%[1]s must be at least %[2]s", "%[1]sは%[2]s以上にしてください"},
	"too_big":           {[]string{"label", "max"}, "%[1]s must be at most %[2]s", "%[1]sは%[2]s以下にしてください"},
	"step":              {[]string{"label", "step"}, "%[1]s does not match step %[2]s", "%[1]sは%[2]s刻みの値ではありません"},
	"pattern":           {[]string{"label"}, "%[1]s does not match the required pattern", "%[1]sの形式が正しくありません"},
	"invalid_enum":      {[]string{"label", "value"}, "%[1]s does not allow %[2]s", "%[1]sに%[2]sは選択できません"},
	"invalid_format":    {[]string{"label", "format"}, "%[1]s is not a valid %[2]s", "%[1]sは有効な%[2]sではありません"},
	"multiline":         {[]string{"label"}, "%[1]s must be a single line", "%[1]sに改行は使えません"},
	"cyclic_reference":  {[]string{"label"}, "cyclic schema reference: %[1]s", "スキーマ参照が循環しています: %[1]s"},
	"schema_not_found":  {[]string{"label"}, "schema %[1]s not found", "スキーマ%[1]sが見つかりません"},
	"custom_validation": {[]string{"label"}, "%[1]s is invalid", "%[1]sが不正です"},
}

var (
	catOnce sync.Once
	cat     *catalog.Builder
)

func messages() *catalog.Builder {
	catOnce.Do(func() {
		cat = catalog.NewBuilder(catalog.Fallback(language.English))
		for code, e := range entries {
			// SetString only fails for malformed tags.
			_ = cat.SetString(language.English, code, e.en)
			_ = cat.SetString(language.Japanese, code, e.ja)
		}
	})
	return cat
}

type catalogTranslator struct {
	p *message.Printer
}

// New returns the catalog Translator for lang. Unsupported languages fall
// back to English.
func New(lang string) Translator {
	tag := language.English
	if t, err := language.Parse(lang); err == nil {
		if base, _ := t.Base(); base.String() == "ja" {
			tag = language.Japanese
		}
	}
	return catalogTranslator{p: message.NewPrinter(tag, message.Catalog(messages()))}
}

func (t catalogTranslator) Message(code string, data map[string]string) string {
	e, ok := entries[code]
	if !ok {
		if label := data["label"]; label != "" {
			return label + ": " + code
		}
		return code
	}
	args := make([]any, len(e.args))
	for i, k := range e.args {
		args[i] = data[k]
	}
	return t.p.Sprintf(code, args...)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = New("en")
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	mu.Lock()
	defer mu.Unlock()
	currentTranslator = New(lang)
}

// SetTranslator replaces the Translator implementation (not limited to the
// catalog version). nil restores the English catalog.
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		tr = New("en")
	}
	currentTranslator = tr
}

// Current returns the process-wide Translator.
func Current() Translator {
	mu.RLock()
	defer mu.RUnlock()
	return currentTranslator
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
