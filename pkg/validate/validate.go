// Package validate provides struct-tag validation for submitted forms.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	url                 valid URL (http/https)
//	boolean             "true","false","1","0","on","y" (or actual bool)
//	numeric             any number
//	integer             whole number
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	size=N              string: exact length
//	between=min,max     number or string length between min and max (inclusive)
//	in=a,b,c            value must be one of the listed items
//	not_in=a,b,c        value must NOT be one of the listed items
//	confirmed           value must equal the sibling field it confirms
//	regex=pattern       value must match the regex; must be the last rule
//
// Field names come from the `form` tag, then `json`, then the lower-cased
// Go name. Messages use the name with underscores replaced by spaces.
//
// Example:
//
//	type SupplierForm struct {
//	    Name    string `form:"name"    validate:"required,max=150"`
//	    Type    int    `form:"type"    validate:"required,in=1,2"`
//	    Website string `form:"website" validate:"nullable,url,max=255"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ─── Public API ───────────────────────────────────────────────────────────────

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}
		name := FieldName(field)
		if msg := check(name, rv.Field(i), rv, splitRules(tag)); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// Value validates a single raw form value against a rule tag. It serves
// callers that hold rows as column maps rather than structs. "confirmed" is
// not available here.
func Value(name, raw, tag string) string {
	return check(name, reflect.ValueOf(raw), reflect.Value{}, splitRules(tag))
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// FieldName returns the name errors are reported under.
func FieldName(f reflect.StructField) string {
	for _, key := range []string{"form", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

// check returns the first failing rule's message, or "".
func check(name string, v, parent reflect.Value, rules []string) string {
	// If `nullable` is present and field is empty, skip all rules.
	if hasRule(rules, "nullable") && isEmpty(v) {
		return ""
	}
	for _, rule := range rules {
		if rule == "nullable" {
			continue
		}
		if msg := applyRule(rule, name, v, parent); msg != "" {
			return msg
		}
	}
	return ""
}

// ─── Core dispatcher ──────────────────────────────────────────────────────────

func applyRule(rule, name string, v reflect.Value, parent reflect.Value) string {
	raw := strings.TrimSpace(fmt.Sprintf("%v", v.Interface()))
	key, param, _ := strings.Cut(rule, "=")
	field := strings.ReplaceAll(name, "_", " ")

	switch key {
	// ── Presence ──────────────────────────────────────────────────────
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	// ── Format ────────────────────────────────────────────────────────
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "boolean":
		if v.Kind() != reflect.Bool {
			if _, ok := ParseBool(raw); !ok {
				return fmt.Sprintf("The %s field must be true or false.", field)
			}
		}
	case "numeric":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", field)
		}
	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}

	// ── Size / range ──────────────────────────────────────────────────
	case "min":
		n := mustParseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if runeLen(raw) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := mustParseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if runeLen(raw) > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "size":
		if runeLen(raw) != mustParseFloat(param) {
			return fmt.Sprintf("The %s must be exactly %s characters.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			break
		}
		lower, upper := mustParseFloat(lo), mustParseFloat(hi)
		if isNumericKind(v) {
			if f := toFloat(v); f < lower || f > upper {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
		} else if l := runeLen(raw); l < lower || l > upper {
			return fmt.Sprintf("The %s must be between %s and %s characters.", field, lo, hi)
		}

	// ── Inclusion / exclusion ─────────────────────────────────────────
	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "not_in":
		for _, f := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(f) {
				return fmt.Sprintf("The selected %s is invalid.", field)
			}
		}

	// ── Pattern ───────────────────────────────────────────────────────
	case "regex":
		re, err := compile(param)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid validation pattern.", field)
		}
		if !re.MatchString(raw) {
			return fmt.Sprintf("The %s format is invalid.", field)
		}

	// ── Cross-field ───────────────────────────────────────────────────
	case "confirmed":
		other := findConfirmed(parent, name)
		if other == nil || fmt.Sprintf("%v", other.Interface()) != fmt.Sprintf("%v", v.Interface()) {
			return fmt.Sprintf("The %s confirmation does not match.", strings.ReplaceAll(strings.TrimSuffix(name, "_confirmation"), "_", " "))
		}
	}

	return ""
}

// ParseBool accepts the values HTML checkboxes and selects submit.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "y":
		return true, true
	case "0", "false", "off", "no", "n", "":
		return false, true
	}
	return false, false
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

func compile(pattern string) (*regexp.Regexp, error) {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	if re, ok := patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns[pattern] = re
	return re, nil
}

func runeLen(s string) float64 { return float64(len([]rune(s))) }

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false // false is a valid boolean value, not empty
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// splitRules splits the tag by comma. Parameters of in=, not_in= and
// between= may contain commas; regex= swallows the rest of the tag.
// e.g. "required,in=1,2,max=100" → ["required","in=1,2","max=100"]
func splitRules(tag string) []string {
	var rules []string
	parts := strings.Split(tag, ",")
	for i := 0; i < len(parts); i++ {
		p := strings.TrimSpace(parts[i])
		switch {
		case strings.HasPrefix(p, "regex="):
			rules = append(rules, strings.Join(append([]string{p}, parts[i+1:]...), ","))
			return rules
		case strings.HasPrefix(p, "in="), strings.HasPrefix(p, "not_in="), strings.HasPrefix(p, "between="):
			for i+1 < len(parts) && !looksLikeRule(parts[i+1]) {
				i++
				p += "," + strings.TrimSpace(parts[i])
			}
		}
		if p != "" {
			rules = append(rules, p)
		}
	}
	return rules
}

var ruleNames = map[string]bool{
	"required": true, "nullable": true, "email": true, "url": true,
	"boolean": true, "numeric": true, "integer": true, "confirmed": true,
	"min": true, "max": true, "size": true, "between": true, "in": true,
	"not_in": true, "regex": true,
}

// looksLikeRule reports whether s starts a new rule rather than continuing
// a multi-value parameter.
func looksLikeRule(s string) bool {
	key, _, _ := strings.Cut(strings.TrimSpace(s), "=")
	return ruleNames[key]
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}

// findConfirmed returns the field that name confirms: "password_confirmation"
// pairs with "password", and "password" pairs with "password_confirmation".
func findConfirmed(parent reflect.Value, name string) *reflect.Value {
	if !parent.IsValid() {
		return nil
	}
	target := strings.TrimSuffix(name, "_confirmation")
	if target == name {
		target = name + "_confirmation"
	}
	rt := parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if FieldName(rt.Field(i)) == target {
			v := parent.Field(i)
			return &v
		}
	}
	return nil
}
