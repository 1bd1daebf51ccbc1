package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

const msgTextRequired = "Text is required"

var errBodyTooLarge = errors.New("request body too large")

type parseError struct {
	format string
	reason string
}

func (e *parseError) Error() string {
	return e.format + " parse error - " + e.reason
}

type unsupportedMediaTypeError struct {
	mediaType string
}

func (e *unsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("Unsupported media type %q in request.", e.mediaType)
}

// decodeBody reads a JSON object, a form-encoded or a multipart body into a
// flat map. An empty body decodes to an empty map.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			if isMaxBytesError(err) {
				return nil, errBodyTooLarge
			}
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return formValues(r.PostForm), nil
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(s.opts.MaxBodyBytes); err != nil {
			if isMaxBytesError(err) {
				return nil, errBodyTooLarge
			}
			return nil, &parseError{format: "Multipart form", reason: err.Error()}
		}
		return formValues(r.MultipartForm.Value), nil
	case contentType != "" && !isJSONMediaType(mediaType):
		return nil, &unsupportedMediaTypeError{mediaType: contentType}
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		if isMaxBytesError(err) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	// encoding/json would replace invalid bytes with U+FFFD.
	if !utf8.Valid(raw) {
		return nil, &parseError{format: "JSON", reason: "invalid UTF-8 in request body"}
	}

	var data map[string]any
	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, &parseError{format: "JSON", reason: err.Error()}
	}
	if data == nil {
		return nil, &parseError{format: "JSON", reason: "expected a JSON object"}
	}

	return data, nil
}

// formValues keeps the last value of every field.
func formValues(form map[string][]string) map[string]any {
	data := make(map[string]any, len(form))
	for key, values := range form {
		if len(values) > 0 {
			data[key] = values[len(values)-1]
		}
	}

	return data
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func isMaxBytesError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// writeDecodeError maps a decodeBody error onto a response.
func writeDecodeError(w http.ResponseWriter, err error) {
	var (
		pErr  *parseError
		mtErr *unsupportedMediaTypeError
	)

	switch {
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, detailResponse{Detail: "Request body too large."})
	case errors.As(err, &pErr):
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: pErr.Error()})
	case errors.As(err, &mtErr):
		writeJSON(w, http.StatusUnsupportedMediaType, detailResponse{Detail: mtErr.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: "Malformed request."})
	}
}

// validateText returns the text to transform, unchanged, or false when it is
// absent, not a string, or blank.
func validateText(data map[string]any) (string, bool) {
	text, ok := data["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}

	return text, true
}

// requiredStrings collects the named string fields, reporting each missing or
// blank one the way the token endpoints expect.
func requiredStrings(data map[string]any, fields ...string) (map[string]string, map[string][]string) {
	values := make(map[string]string, len(fields))
	missing := make(map[string][]string)

	for _, field := range fields {
		value, ok := data[field].(string)
		if !ok || strings.TrimSpace(value) == "" {
			missing[field] = []string{"This field is required."}
			continue
		}
		values[field] = value
	}

	if len(missing) == 0 {
		return values, nil
	}

	return values, missing
}
