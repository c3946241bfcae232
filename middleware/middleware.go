// Package middleware adapts Blueprint validation to net/http handlers: the
// request body is decoded, filtered and validated before the next handler
// runs, which then reads the clean data from the request context.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/reoring/blueprint"
	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/source"
)

// ctxKeyData is a typed context key for the filtered form data.
type ctxKeyData struct{}

// ContextWithData attaches filtered data to the context.
func ContextWithData(ctx context.Context, data map[string]any) context.Context {
	return context.WithValue(ctx, ctxKeyData{}, data)
}

// DataFromContext retrieves the data stored by ContextWithData.
func DataFromContext(ctx context.Context) (map[string]any, bool) {
	v, ok := ctx.Value(ctxKeyData{}).(map[string]any)
	return v, ok
}

// ErrorPayload shapes Issues for JSON responses: the full list plus the
// messages grouped by data path.
func ErrorPayload(issues blueprint.Issues) map[string]any {
	return map[string]any{"issues": issues, "fields": issues.ByField()}
}

// ValidateJSON decodes the JSON request body, filters it through bp and
// validates the result. Invalid data is answered with 422 and ErrorPayload;
// undecodable bodies and strict-mode unknown fields with 400, carrying the
// localized issue when the error has one.
func ValidateJSON(bp *blueprint.Blueprint, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lang := r.Header.Get("Accept-Language")
		if lang != "" {
			ctx = blueprint.WithLanguage(ctx, lang)
		}
		data, err := source.DecodeData(r.Body, source.FormatJSON)
		if err != nil {
			badRequest(w, err, lang)
			return
		}
		clean, err := bp.Filter(ctx, data)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		if err := bp.Validate(ctx, clean); err != nil {
			if iss, ok := blueprint.AsIssues(err); ok {
				writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload(iss))
				return
			}
			badRequest(w, err, lang)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithData(ctx, clean)))
	})
}

func badRequest(w http.ResponseWriter, err error, lang string) {
	payload := map[string]any{"error": err.Error()}
	if it, ok := blueprint.ErrorIssue(err, i18n.New(lang)); ok {
		payload["issues"] = blueprint.Issues{it}
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
