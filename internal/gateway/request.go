package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Request carries the caller's options. Bodies are buffered so the request
// can be replayed after a refresh.
type Request struct {
	Method string
	Header http.Header
	Body   []byte
	Form   *Form
}

// Form is an encoded multipart payload. Its content type carries the
// boundary, so it replaces the JSON default.
type Form struct {
	body        []byte
	contentType string
}

// FormFile is one file part of a multipart form.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

func NewForm(fields map[string]string, files ...FormFile) (*Form, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}
	return &Form{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func (f *Form) ContentType() string { return f.contentType }

// JSON builds a request with a JSON-encoded body.
func JSON(method string, payload any) (Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode request body: %w", err)
	}
	return Request{Method: method, Body: b}, nil
}

// URLEncoded builds a form-urlencoded request, as the token endpoint expects.
func URLEncoded(method string, values url.Values) Request {
	return Request{
		Method: method,
		Header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
		Body:   []byte(values.Encode()),
	}
}

// Path joins escaped segments onto a base path: Path("/posts", 7, "status").
func Path(base string, segments ...any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(fmt.Sprint(s)))
	}
	return b.String()
}
