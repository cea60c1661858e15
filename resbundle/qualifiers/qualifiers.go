// Package qualifiers parses and validates resource qualifier strings such as
// "en-rUS-ldrtl-sw400dp-v21" and builds runtime qualifier strings from a
// description of the live device.
//
// A qualifier string is a dash-joined list of tokens in a fixed dimension
// order. Each dimension appears at most once. Tokens keep their literal
// spelling for matching; recognition is case-insensitive.
package qualifiers

import (
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
)

// Dimension identifies one qualifier dimension. The numeric order is the
// precedence order of the grammar.
type Dimension int

const (
	DimMCC Dimension = iota
	DimMNC
	DimLanguage
	DimRegion
	DimLayoutDirection
	DimSmallestWidth
	DimWidth
	DimHeight
	DimScreenSize
	DimScreenLong
	DimScreenRound
	DimWideColorGamut
	DimHDR
	DimOrientation
	DimUIModeType
	DimNight
	DimDensity
	DimTouchscreen
	DimKeyboardHidden
	DimKeyboard
	DimNavHidden
	DimNavigation
	DimPixelSize
	DimVersion
)

var dimensionNames = [...]string{
	"mcc", "mnc", "language", "region", "layout-direction", "smallest-width", "width", "height",
	"screen-size", "screen-long", "screen-round", "wide-color-gamut", "hdr", "orientation",
	"ui-mode-type", "night", "density", "touchscreen", "keyboard-hidden", "keyboard",
	"nav-hidden", "navigation", "pixel-size", "version",
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= len(dimensionNames) {
		return "dimension(" + strconv.Itoa(int(d)) + ")"
	}
	return dimensionNames[d]
}

// Wildcard matches any value of its dimension.
const Wildcard = "any"

// Density buckets in dpi.
const (
	DensityLow     = 120
	DensityMedium  = 160
	DensityTV      = 213
	DensityHigh    = 240
	DensityXHigh   = 320
	DensityXXHigh  = 480
	DensityXXXHigh = 640

	// DensityAny and DensityNone mark the anydpi and nodpi resource
	// qualifiers. Neither describes a real screen.
	DensityAny  = 0xfffe
	DensityNone = 0xffff
)

var densityBuckets = map[string]int{
	"ldpi":    DensityLow,
	"mdpi":    DensityMedium,
	"tvdpi":   DensityTV,
	"hdpi":    DensityHigh,
	"xhdpi":   DensityXHigh,
	"xxhdpi":  DensityXXHigh,
	"xxxhdpi": DensityXXXHigh,
	"anydpi":  DensityAny,
	"nodpi":   DensityNone,
}

var keywordDimensions = []struct {
	dim   Dimension
	words []string
}{
	{DimLayoutDirection, []string{"ldltr", "ldrtl"}},
	{DimScreenSize, []string{"small", "normal", "large", "xlarge"}},
	{DimScreenLong, []string{"long", "notlong"}},
	{DimScreenRound, []string{"round", "notround"}},
	{DimWideColorGamut, []string{"widecg", "nowidecg"}},
	{DimHDR, []string{"highdr", "lowdr"}},
	{DimOrientation, []string{"port", "land", "square"}},
	{DimUIModeType, []string{"car", "desk", "television", "appliance", "watch", "vrheadset"}},
	{DimNight, []string{"night", "notnight"}},
	{DimTouchscreen, []string{"notouch", "stylus", "finger"}},
	{DimKeyboardHidden, []string{"keysexposed", "keyshidden", "keyssoft"}},
	{DimKeyboard, []string{"nokeys", "qwerty", "12key"}},
	{DimNavHidden, []string{"navexposed", "navhidden"}},
	{DimNavigation, []string{"nonav", "dpad", "trackball", "wheel"}},
}

// Token is one recognised qualifier token.
type Token struct {
	Text      string
	Dimension Dimension
	// Value holds the numeric payload of numeric tokens (dp sizes, dpi,
	// version, mcc/mnc, pixel width). Zero for keywords and wildcards.
	Value int
	// Extra holds the pixel height of a WxH token.
	Extra int
}

// IsDensitySentinel reports whether the token is anydpi or nodpi. Only the
// text decides: a numeric density that happens to equal DensityAny is a
// real dpi.
func (t Token) IsDensitySentinel() bool {
	return t.Dimension == DimDensity &&
		(strings.EqualFold(t.Text, "anydpi") || strings.EqualFold(t.Text, "nodpi"))
}

// IsWildcard reports whether the token is the "any" wildcard.
func (t Token) IsWildcard() bool {
	return strings.EqualFold(t.Text, Wildcard)
}

// Qualifiers is a parsed, validated qualifier string.
type Qualifiers struct {
	raw     string
	tokens  []Token
	version int
}

// Parse validates a resource qualifier string. The empty string is the
// default (unqualified) variant.
func Parse(s string) (Qualifiers, error) {
	q := Qualifiers{raw: s, version: -1}
	if s == "" {
		return q, nil
	}

	parts := strings.Split(s, "-")
	versions := 0
	for _, p := range parts {
		if _, ok := versionToken(strings.ToLower(p)); ok {
			versions++
		}
	}
	if versions > 1 {
		return Qualifiers{}, &common.QualifierError{Qualifiers: s, Err: common.ErrConflictingVersionQualifiers}
	}

	p := &parser{raw: s, parts: parts}
	if err := p.parse(); err != nil {
		return Qualifiers{}, err
	}
	q.tokens = p.tokens
	for _, t := range q.tokens {
		if t.Dimension == DimVersion && !t.IsWildcard() {
			q.version = t.Value
		}
	}
	return q, nil
}

// ParseRuntime validates a qualifier string describing a live device. On top
// of Parse it rejects the anydpi and nodpi densities, which only make sense
// on resources.
func ParseRuntime(s string) (Qualifiers, error) {
	q, err := Parse(s)
	if err != nil {
		return Qualifiers{}, err
	}
	if t, ok := q.Token(DimDensity); ok && t.IsDensitySentinel() {
		return Qualifiers{}, &common.QualifierError{Qualifiers: s, Token: t.Text, Err: common.ErrInvalidDensity}
	}
	return q, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Qualifiers {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the qualifier string as given.
func (q Qualifiers) String() string { return q.raw }

// IsDefault reports whether q is the unqualified variant.
func (q Qualifiers) IsDefault() bool { return len(q.tokens) == 0 }

// Len returns the number of tokens.
func (q Qualifiers) Len() int { return len(q.tokens) }

// Tokens returns the parsed tokens in string order.
func (q Qualifiers) Tokens() []Token {
	out := make([]Token, len(q.tokens))
	copy(out, q.tokens)
	return out
}

// Texts returns the literal token texts in string order.
func (q Qualifiers) Texts() []string {
	out := make([]string, len(q.tokens))
	for i, t := range q.tokens {
		out[i] = t.Text
	}
	return out
}

// Token returns the token for dimension d, if present.
func (q Qualifiers) Token(d Dimension) (Token, bool) {
	for _, t := range q.tokens {
		if t.Dimension == d {
			return t, true
		}
	}
	return Token{}, false
}

// Version returns the platform version carried by the string, if any.
func (q Qualifiers) Version() (int, bool) {
	return q.version, q.version >= 0
}

// Padded returns the canonical padded form used for ordering and matching.
// Tokens are case-insensitive, so the padded form is lower case.
func (q Qualifiers) Padded() string {
	return Pad(q.raw)
}

// Pad wraps every token of a qualifier string as "-token-", folded to lower
// case. The empty string pads to "--", which sorts before every qualified
// form.
func Pad(s string) string {
	if s == "" {
		return "--"
	}
	var b strings.Builder
	b.Grow(len(s) + 2*strings.Count(s, "-") + 2)
	for _, tok := range strings.Split(strings.ToLower(s), "-") {
		b.WriteByte('-')
		b.WriteString(tok)
		b.WriteByte('-')
	}
	return b.String()
}

// PadToken wraps a single token as "-token-", folded to lower case.
func PadToken(tok string) string {
	return "-" + strings.ToLower(tok) + "-"
}

// WithVersion appends a vNN token for sdk unless s already carries a
// version.
func WithVersion(s string, sdk int) (string, error) {
	q, err := Parse(s)
	if err != nil {
		return "", err
	}
	if _, ok := q.Token(DimVersion); ok {
		return s, nil
	}
	if s == "" {
		return "v" + strconv.Itoa(sdk), nil
	}
	return s + "-v" + strconv.Itoa(sdk), nil
}

type parser struct {
	raw    string
	parts  []string
	pos    int
	tokens []Token
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.parts) {
		return "", false
	}
	return p.parts[p.pos], true
}

func (p *parser) take(dim Dimension, value, extra int) {
	p.tokens = append(p.tokens, Token{Text: p.parts[p.pos], Dimension: dim, Value: value, Extra: extra})
	p.pos++
}

// try consumes the next token when match accepts it.
func (p *parser) try(dim Dimension, match func(lower string) (int, int, bool)) {
	part, ok := p.peek()
	if !ok {
		return
	}
	lower := strings.ToLower(part)
	if lower == Wildcard {
		p.take(dim, 0, 0)
		return
	}
	if v, extra, ok := match(lower); ok {
		p.take(dim, v, extra)
	}
}

func (p *parser) parse() error {
	p.try(DimMCC, prefixedNumber("mcc", ""))
	p.try(DimMNC, prefixedNumber("mnc", ""))
	if err := p.parseLocale(); err != nil {
		return err
	}
	p.try(DimLayoutDirection, keyword(DimLayoutDirection))
	p.try(DimSmallestWidth, prefixedNumber("sw", "dp"))
	p.try(DimWidth, prefixedNumber("w", "dp"))
	p.try(DimHeight, prefixedNumber("h", "dp"))
	for _, kd := range keywordDimensions[1:9] {
		p.try(kd.dim, keyword(kd.dim))
	}
	p.try(DimDensity, density)
	for _, kd := range keywordDimensions[9:] {
		p.try(kd.dim, keyword(kd.dim))
	}
	p.try(DimPixelSize, pixelSize)
	p.try(DimVersion, func(lower string) (int, int, bool) {
		v, ok := versionToken(lower)
		return v, 0, ok
	})

	if part, ok := p.peek(); ok {
		return &common.QualifierError{Qualifiers: p.raw, Token: part, Err: common.ErrUnknownQualifierToken}
	}
	return nil
}

// parseLocale consumes "ll", "ll-rRR" or a "b+" BCP 47 tag.
func (p *parser) parseLocale() error {
	part, ok := p.peek()
	if !ok {
		return nil
	}
	lower := strings.ToLower(part)
	if strings.HasPrefix(lower, "b+") {
		if !validBCP47Tag(lower[2:]) {
			return &common.QualifierError{Qualifiers: p.raw, Token: part, Err: common.ErrUnknownQualifierToken}
		}
		p.take(DimLanguage, 0, 0)
		return nil
	}
	if (len(lower) != 2 && len(lower) != 3) || !isAlpha(lower) || lower == "car" || lower == Wildcard {
		return nil
	}
	p.take(DimLanguage, 0, 0)

	if region, ok := p.peek(); ok {
		r := strings.ToLower(region)
		if len(r) == 3 && r[0] == 'r' && isAlpha(r[1:]) {
			p.take(DimRegion, 0, 0)
		}
	}
	return nil
}

// validBCP47Tag checks the "+"-separated subtags of a b+ locale token.
func validBCP47Tag(tag string) bool {
	subtags := strings.Split(tag, "+")
	if len(subtags) == 0 || len(subtags) > 4 {
		return false
	}
	if l := len(subtags[0]); (l != 2 && l != 3) || !isAlpha(subtags[0]) {
		return false
	}
	for _, st := range subtags[1:] {
		if len(st) < 2 || len(st) > 8 || !isAlnum(st) {
			return false
		}
	}
	return true
}

func keyword(dim Dimension) func(string) (int, int, bool) {
	var words []string
	for _, kd := range keywordDimensions {
		if kd.dim == dim {
			words = kd.words
		}
	}
	return func(lower string) (int, int, bool) {
		for i, w := range words {
			if lower == w {
				return i, 0, true
			}
		}
		return 0, 0, false
	}
}

func prefixedNumber(prefix, suffix string) func(string) (int, int, bool) {
	return func(lower string) (int, int, bool) {
		if !strings.HasPrefix(lower, prefix) || !strings.HasSuffix(lower, suffix) {
			return 0, 0, false
		}
		digits := lower[len(prefix) : len(lower)-len(suffix)]
		n, ok := atoi(digits)
		return n, 0, ok
	}
}

func density(lower string) (int, int, bool) {
	if dpi, ok := densityBuckets[lower]; ok {
		return dpi, 0, true
	}
	return prefixedNumber("", "dpi")(lower)
}

func pixelSize(lower string) (int, int, bool) {
	w, h, ok := strings.Cut(lower, "x")
	if !ok {
		return 0, 0, false
	}
	width, okW := atoi(w)
	height, okH := atoi(h)
	return width, height, okW && okH
}

func versionToken(lower string) (int, bool) {
	if !strings.HasPrefix(lower, "v") {
		return 0, false
	}
	return atoi(lower[1:])
}

func atoi(digits string) (int, bool) {
	if digits == "" || len(digits) > 9 {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return s != ""
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return s != ""
}
