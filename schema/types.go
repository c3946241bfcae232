package schema

// Kind enumerates the field types known to the engine. Names that do not map
// to a builtin kind become KindCustom and keep their original spelling in
// FieldType.Name.
type Kind int

const (
	KindText Kind = iota
	KindTextarea
	KindPassword
	KindHidden
	KindEmail
	KindURL
	KindTel
	KindColor
	KindDate
	KindTime
	KindDateTime
	KindMonth
	KindWeek
	KindNumber
	KindRange
	KindCheckbox
	KindCheckboxes
	KindRadio
	KindSelect
	KindToggle
	KindList
	KindCommaList
	KindArray
	KindBool
	KindIgnore
	KindUnset
	KindCustom
)

var kindNames = map[string]Kind{
	"text":       KindText,
	"textarea":   KindTextarea,
	"password":   KindPassword,
	"hidden":     KindHidden,
	"email":      KindEmail,
	"url":        KindURL,
	"tel":        KindTel,
	"color":      KindColor,
	"date":       KindDate,
	"time":       KindTime,
	"datetime":   KindDateTime,
	"month":      KindMonth,
	"week":       KindWeek,
	"number":     KindNumber,
	"range":      KindRange,
	"checkbox":   KindCheckbox,
	"checkboxes": KindCheckboxes,
	"radio":      KindRadio,
	"select":     KindSelect,
	"toggle":     KindToggle,
	"list":       KindList,
	"commalist":  KindCommaList,
	"array":      KindArray,
	"bool":       KindBool,
	"ignore":     KindIgnore,
	"unset":      KindUnset,
}

// FieldType is the resolved type of a field: a builtin Kind, or KindCustom
// carrying the unrecognized name.
type FieldType struct {
	Kind Kind
	Name string
}

// ParseType maps a type name to a FieldType. The empty name is generic text.
// Dashes and underscores are interchangeable ("comma-list" == "comma_list").
func ParseType(name string) FieldType {
	if name == "" {
		return FieldType{Kind: KindText, Name: "text"}
	}
	if k, ok := kindNames[normalizeTypeName(name)]; ok {
		return FieldType{Kind: k, Name: name}
	}
	return FieldType{Kind: KindCustom, Name: name}
}

func normalizeTypeName(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' || c == '_' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}

// String returns the type name as written in the schema.
func (t FieldType) String() string { return t.Name }

// IsCustom reports whether the type is unknown to the builtin table.
func (t FieldType) IsCustom() bool { return t.Kind == KindCustom }
