package validators

// Failure codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeStep          = "step"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeMultiline     = "multiline"
	// CodeCustom is reported for failures of registered handlers that leave
	// Code empty.
	CodeCustom = "custom_validation"
)
