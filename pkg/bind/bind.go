// Package bind decodes and validates an HTTP request body into a struct.
//
// HTML forms bind by the `form` tag; JSON bodies by the `json` tag:
//
//	var in SupplierForm
//	errs, err := bind.Request(r, &in, config.MaxUploadBytes())
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// DefaultMaxBytes caps bodies when the caller passes limit <= 0.
const DefaultMaxBytes int64 = 4 << 20

// multipartMemory is how much of a multipart body stays in memory; the rest
// spills to temp files that ParseMultipartForm's caller must RemoveAll.
const multipartMemory = 8 << 20

// ErrTooLarge is returned when the body exceeds the limit.
var ErrTooLarge = errors.New("bind: request body too large")

// Request binds by content type: JSON for application/json, form fields
// otherwise. Returns (errs, nil) on validation failures and (nil, err) when
// the body itself is unusable.
func Request(r *http.Request, dest interface{}, limit int64) (map[string]string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		return JSON(r, dest, limit)
	}
	return Form(r, dest, limit)
}

// JSON decodes r.Body as JSON into dest and runs validation.
func JSON(r *http.Request, dest interface{}, limit int64) (errs map[string]string, err error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("bind: invalid JSON: %w", err)
	}
	return validated(dest), nil
}

// Form parses an urlencoded or multipart body and copies fields into dest
// by `form` tag. Supported kinds: string, bool, signed and unsigned
// integers (including named types such as rbac.Role) and slices of those.
func Form(r *http.Request, dest interface{}, limit int64) (map[string]string, error) {
	if err := ParseForm(r, limit); err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bind: dest must be a pointer to a struct, got %T", dest)
	}
	rv = rv.Elem()
	rt := rv.Type()

	errs := map[string]string{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		values, present := r.Form[name]
		if !present {
			continue
		}
		if err := setField(rv.Field(i), values); err != nil {
			errs[name] = fmt.Sprintf("The %s must be %s.", strings.ReplaceAll(name, "_", " "), err.Error())
		}
	}

	for k, v := range validated(dest) {
		if _, seen := errs[k]; !seen {
			errs[k] = v
		}
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// ParseForm parses the body once, capping it at limit bytes. Multipart
// temp files are the caller's to release with r.MultipartForm.RemoveAll.
func ParseForm(r *http.Request, limit int64) error {
	if r.Form != nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, limit)
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxErr.Limit)
		}
		return fmt.Errorf("bind: parse form: %w", err)
	}
	return nil
}

func validated(dest interface{}) map[string]string {
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs
	}
	return nil
}

type kindError string

func (e kindError) Error() string { return string(e) }

func setField(v reflect.Value, values []string) error {
	if v.Kind() == reflect.Slice {
		out := reflect.MakeSlice(v.Type(), 0, len(values))
		for _, raw := range values {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := setScalar(elem, raw); err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
		v.Set(out)
		return nil
	}
	// Checkbox groups repeat the name with a hidden "0" first; the last wins.
	return setScalar(v, values[len(values)-1])
}

func setScalar(v reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, ok := validate.ParseBool(raw)
		if !ok {
			return kindError("true or false")
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			v.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return kindError("an integer")
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			v.SetUint(0)
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return kindError("a valid choice")
		}
		v.SetUint(n)
	default:
		return kindError("a supported value")
	}
	return nil
}
