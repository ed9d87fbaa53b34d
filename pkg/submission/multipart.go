package submission

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// File is an uploaded file value.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Encode writes data as a multipart/form-data body and returns it with the
// matching Content-Type (boundary included). Keys are written in sorted order.
func Encode(data map[string]any) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	contentType, err := EncodeTo(body, data)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// EncodeTo is Encode writing into w.
func EncodeTo(w io.Writer, data map[string]any) (string, error) {
	writer := multipart.NewWriter(w)

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := writeValue(writer, key, data[key]); err != nil {
			return "", fmt.Errorf("submission: encode %q: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("submission: close multipart writer: %w", err)
	}
	return writer.FormDataContentType(), nil
}

func writeValue(w *multipart.Writer, key string, value any) error {
	if isNil(value) {
		return nil
	}

	switch v := value.(type) {
	case File:
		return writeFile(w, key, v)
	case *File:
		return writeFile(w, key, *v)
	case []byte:
		return w.WriteField(key, string(v))
	case []string:
		for _, item := range v {
			if err := w.WriteField(key, item); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, item := range v {
			if err := writeItem(w, key, item); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := writeItem(w, key, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}

	return w.WriteField(key, Stringify(value))
}

// writeItem appends one slice element. Nested slices are not flattened
// further; nil elements are written as empty strings so positions are kept.
func writeItem(w *multipart.Writer, key string, item any) error {
	switch v := item.(type) {
	case File:
		return writeFile(w, key, v)
	case *File:
		if v == nil {
			return w.WriteField(key, "")
		}
		return writeFile(w, key, *v)
	}
	if isNil(item) {
		return w.WriteField(key, "")
	}
	return w.WriteField(key, Stringify(item))
}

func writeFile(w *multipart.Writer, key string, file File) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(key), escapeQuotes(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

// Stringify renders a scalar the way a browser FormData would.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
