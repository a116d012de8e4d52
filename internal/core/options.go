package core

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// WidthAuto is the sentinel width value meaning "derive the width from
// client hints at the edge".
const WidthAuto = "auto"

// canonicalJSON serializes maps with sorted keys. Two option sets are
// equal iff their canonical serialization is equal, so this config is
// the equality definition for Options.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

// Options is one requested transform parameter set. The zero value means
// "no transformation requested". Options are immutable once constructed;
// mutating Extra after handing the value to the dispatcher is a caller bug.
type Options struct {
	// Width is the requested width in pixels, or WidthAuto.
	Width string
	// Height is the requested height in pixels, 0 when unset.
	Height int
	// Format is the requested output encoding (webp, avif, ...).
	Format string
	// Quality is the requested encoding quality, 0 when unset.
	Quality int
	// Fit controls how the image is fitted into the requested box.
	Fit string
	// Gravity controls the crop anchor.
	Gravity string
	// Metadata controls metadata stripping (keep, copyright, none).
	Metadata string
	// Extra holds free-form extension parameters.
	Extra map[string]string
}

// IsEmpty reports whether no transform parameter is set.
func (o Options) IsEmpty() bool {
	return o.Width == "" && o.Height == 0 && o.Format == "" && o.Quality == 0 &&
		o.Fit == "" && o.Gravity == "" && o.Metadata == "" && len(o.Extra) == 0
}

// WidthValue returns the numeric width and true when the width is a
// concrete pixel count rather than unset or the auto sentinel.
func (o Options) WidthValue() (int, bool) {
	if o.Width == "" || o.Width == WidthAuto {
		return 0, false
	}
	w, err := strconv.Atoi(o.Width)
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// toMap flattens the set fields into a string map. Known fields shadow
// same-named extras.
func (o Options) toMap() map[string]string {
	m := make(map[string]string, 8+len(o.Extra))
	for k, v := range o.Extra {
		m[k] = v
	}
	if o.Width != "" {
		m["width"] = o.Width
	}
	if o.Height > 0 {
		m["height"] = strconv.Itoa(o.Height)
	}
	if o.Format != "" {
		m["format"] = o.Format
	}
	if o.Quality > 0 {
		m["quality"] = strconv.Itoa(o.Quality)
	}
	if o.Fit != "" {
		m["fit"] = o.Fit
	}
	if o.Gravity != "" {
		m["gravity"] = o.Gravity
	}
	if o.Metadata != "" {
		m["metadata"] = o.Metadata
	}
	return m
}

// CanonicalKey returns the stable sorted-key serialization of the option
// set. It defines option-set equality and keys the prepared cache.
func (o Options) CanonicalKey() string {
	encoded, err := canonicalJSON.Marshal(o.toMap())
	if err != nil {
		// A map[string]string cannot fail to serialize; keep a distinct
		// key anyway so a broken entry never aliases another.
		return "opts:unencodable"
	}
	return string(encoded)
}

// nativeBag returns the option bag passed to the external transform
// capability on an outbound fetch.
func (o Options) nativeBag() map[string]interface{} {
	bag := make(map[string]interface{}, 8+len(o.Extra))
	for k, v := range o.Extra {
		bag[k] = v
	}
	if w, ok := o.WidthValue(); ok {
		bag["width"] = w
	} else if o.Width == WidthAuto {
		bag["width"] = WidthAuto
	}
	if o.Height > 0 {
		bag["height"] = o.Height
	}
	if o.Format != "" {
		bag["format"] = o.Format
	}
	if o.Quality > 0 {
		bag["quality"] = o.Quality
	}
	if o.Fit != "" {
		bag["fit"] = o.Fit
	}
	if o.Gravity != "" {
		bag["gravity"] = o.Gravity
	}
	if o.Metadata != "" {
		bag["metadata"] = o.Metadata
	}
	return bag
}

// pathSegment returns the encoded parameter segment embedded ahead of
// the object key in gateway URLs, e.g. "format=webp,width=800".
func (o Options) pathSegment() string {
	m := o.toMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tokens := make([]string, 0, len(keys))
	for _, k := range keys {
		tokens = append(tokens, k+"="+url.PathEscape(m[k]))
	}
	return strings.Join(tokens, ",")
}

// queryParams returns the option set encoded as a URL query string.
func (o Options) queryParams() string {
	values := url.Values{}
	for k, v := range o.toMap() {
		values.Set(k, v)
	}
	return values.Encode()
}
