package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a form-encoded or JSON object body once and serves
// string values from it. Form posts from the pages and JSON from scripted
// clients share one code path.
type RequestBodyParser struct {
	jsonData map[string]any
	formData url.Values
}

// ParseRequestBody parses r's body according to its Content-Type. JSON
// values that are numbers or booleans are returned in their text form.
func ParseRequestBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		p := &RequestBodyParser{jsonData: map[string]any{}}
		if len(body) == 0 {
			return p, nil
		}
		if err := json.Unmarshal(body, &p.jsonData); err != nil {
			return nil, fmt.Errorf("decode JSON body: %w", err)
		}
		return p, nil
	}

	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return &RequestBodyParser{formData: r.PostForm}, nil
}

// Get returns the sanitized value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

// GetRaw returns the value for key untouched. Used for passwords.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		s, _ := p.jsonData[key].(string)
		return s
	}
	return p.formData.Get(key)
}

// Has reports whether key is present at all. For checkboxes presence is the
// value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		if b, isBool := v.(bool); isBool {
			return b
		}
		return ok && v != nil
	}
	return p.formData.Has(key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
