package common

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names understood by the page and the API.
const (
	ParamHost        = "h"
	ParamGeoKey      = "k1"
	ParamHistoryKey  = "k2"
	ParamCity        = "c"
	ParamAdm         = "u"
	ParamDisplayName = "n"
	ParamRow         = "row"
)

// Params reads values from a URL query string. It performs no validation;
// callers must tolerate absent keys.
type Params struct {
	values url.Values
}

// ParseParams parses a raw query string. Malformed pairs are dropped.
func ParseParams(rawQuery string) Params {
	v, _ := url.ParseQuery(rawQuery)
	return Params{values: v}
}

// Get returns the first value for key and whether the key was present.
func (p Params) Get(key string) (string, bool) {
	if p.values == nil {
		return "", false
	}
	vs, ok := p.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Or returns the value for key, or def when the key is absent or blank.
func (p Params) Or(key, def string) string {
	if v, ok := p.Get(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Int returns the value for key parsed as an int. Absent or malformed
// values report false.
func (p Params) Int(key string) (int, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// With returns the encoded query with key set to value; an empty value
// removes the key.
func (p Params) With(key, value string) string {
	v := url.Values{}
	for k, vs := range p.values {
		v[k] = append([]string(nil), vs...)
	}
	if value == "" {
		v.Del(key)
	} else {
		v.Set(key, value)
	}
	return v.Encode()
}
