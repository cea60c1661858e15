package qualifiers

import (
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"

	"golang.org/x/text/language"
)

// ScreenSize is one of the screen-size buckets with its minimum dp size in
// portrait orientation.
type ScreenSize struct {
	Name   string
	Width  int
	Height int
}

// Standard screen-size buckets, smallest first.
var ScreenSizes = []ScreenSize{
	{"small", 320, 426},
	{"normal", 320, 470},
	{"large", 480, 640},
	{"xlarge", 720, 960},
}

// DefaultScreenSize applies when neither a size bucket nor dimensions are set.
var DefaultScreenSize = ScreenSizes[1]

func (s ScreenSize) fits(x, y int) bool {
	if y < x {
		x, y = y, x
	}
	return s.Width <= x && s.Height <= y
}

// MatchScreenSize returns the largest bucket whose minimum size fits x by y
// dp, or small when none does.
func MatchScreenSize(x, y int) ScreenSize {
	best := ScreenSizes[0]
	for _, s := range ScreenSizes {
		if s.fits(x, y) {
			best = s
		}
	}
	return best
}

func screenSizeNamed(name string) (ScreenSize, bool) {
	for _, s := range ScreenSizes {
		if s.Name == name {
			return s, true
		}
	}
	return ScreenSize{}, false
}

// wideColorMinSDK is the first platform level with colour-mode qualifiers.
const wideColorMinSDK = 26

var rtlLanguages = map[string]bool{
	"ar": true, "fa": true, "he": true, "iw": true, "ur": true,
	"yi": true, "ji": true, "ps": true, "dv": true, "ug": true, "sd": true, "ckb": true,
}

var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Thaa": true, "Syrc": true, "Nkoo": true, "Adlm": true,
}

// Environment describes the live device a lookup runs against. Zero values
// mean "unset"; Build fills them with device defaults. Keyword fields take
// the qualifier keyword ("land", "night", "qwerty", ...).
type Environment struct {
	// Locale is a BCP 47 tag such as "en-US" or "sr-Latn-RS".
	Locale          string
	LayoutDirection string
	SmallestWidthDp int
	WidthDp         int
	HeightDp        int
	ScreenSize      string
	ScreenLong      string
	ScreenRound     string
	WideColorGamut  string
	HDR             string
	Orientation     string
	UIModeType      string
	Night           string
	DensityDpi      int
	Touchscreen     string
	KeyboardHidden  string
	Keyboard        string
	NavHidden       string
	Navigation      string
	// SDKLevel adds a vNN token when positive.
	SDKLevel int
}

// Apply overlays the values of a runtime qualifier string onto e. Wildcard
// tokens reset their dimension. Setting a screen-size bucket without
// dimensions clears the dimensions so Build recomputes them, and setting
// dimensions without an orientation clears the orientation.
func (e *Environment) Apply(qualifierString string) error {
	q, err := ParseRuntime(qualifierString)
	if err != nil {
		return err
	}

	var language, region string
	for _, t := range q.tokens {
		text := strings.ToLower(t.Text)
		if t.IsWildcard() {
			text = ""
		}
		switch t.Dimension {
		case DimLanguage:
			language = t.Text
		case DimRegion:
			region = t.Text[1:]
		case DimLayoutDirection:
			e.LayoutDirection = text
		case DimSmallestWidth:
			e.SmallestWidthDp = t.Value
		case DimWidth:
			e.WidthDp = t.Value
		case DimHeight:
			e.HeightDp = t.Value
		case DimScreenSize:
			e.ScreenSize = text
		case DimScreenLong:
			e.ScreenLong = text
		case DimScreenRound:
			e.ScreenRound = text
		case DimWideColorGamut:
			e.WideColorGamut = text
		case DimHDR:
			e.HDR = text
		case DimOrientation:
			e.Orientation = text
		case DimUIModeType:
			e.UIModeType = text
		case DimNight:
			e.Night = text
		case DimDensity:
			e.DensityDpi = t.Value
		case DimTouchscreen:
			e.Touchscreen = text
		case DimKeyboardHidden:
			e.KeyboardHidden = text
		case DimKeyboard:
			e.Keyboard = text
		case DimNavHidden:
			e.NavHidden = text
		case DimNavigation:
			e.Navigation = text
		case DimVersion:
			e.SDKLevel = t.Value
		}
	}

	if language != "" {
		if strings.HasPrefix(strings.ToLower(language), "b+") {
			e.Locale = strings.ReplaceAll(language[2:], "+", "-")
		} else if region != "" {
			e.Locale = language + "-" + region
		} else {
			e.Locale = language
		}
	}

	_, hasSize := q.Token(DimScreenSize)
	_, hasWidth := q.Token(DimWidth)
	_, hasHeight := q.Token(DimHeight)
	_, hasOrientation := q.Token(DimOrientation)
	if hasSize {
		if !hasWidth {
			e.WidthDp = 0
		}
		if !hasHeight {
			e.HeightDp = 0
		}
	}
	if !hasOrientation && (hasWidth || hasHeight) {
		e.Orientation = ""
	}
	return nil
}

// Build returns the canonical runtime qualifier string for e, filling every
// unset dimension with its device default.
func (e Environment) Build() (string, error) {
	tokens := make([]string, 0, 24)

	localeTokens, base, script, err := e.localeTokens()
	if err != nil {
		return "", err
	}
	tokens = append(tokens, localeTokens...)

	layoutDir := e.LayoutDirection
	if layoutDir == "" {
		layoutDir = "ldltr"
		if rtlLanguages[base] || rtlScripts[script] {
			layoutDir = "ldrtl"
		}
	}
	tokens = append(tokens, layoutDir)

	requested := DefaultScreenSize
	if e.ScreenSize != "" {
		s, ok := screenSizeNamed(e.ScreenSize)
		if !ok {
			return "", &common.QualifierError{Qualifiers: e.ScreenSize, Token: e.ScreenSize, Err: common.ErrUnknownQualifierToken}
		}
		requested = s
	}

	w, h := e.WidthDp, e.HeightDp
	orientation := e.Orientation
	if orientation == "" && w != 0 && h != 0 {
		orientation = orientationOf(w, h)
	}
	if w == 0 {
		w = requested.Width
	}
	if h == 0 {
		h = requested.Height
		if e.ScreenLong == "long" {
			h = int(float32(h) * 1.25)
		}
	}
	lesser, greater := min(w, h), max(w, h)

	sw := e.SmallestWidthDp
	if sw == 0 {
		sw = lesser
	}
	size := e.ScreenSize
	if size == "" {
		size = MatchScreenSize(w, h).Name
	}
	long := e.ScreenLong
	if long == "" {
		long = "notlong"
		if float32(greater)/float32(lesser) >= 1.75 {
			long = "long"
		}
	}
	round := e.ScreenRound
	if round == "" {
		round = "notround"
	}

	switch {
	case orientation == "":
		orientation = orientationOf(w, h)
	case orientation == "port" && w > h, orientation == "land" && w < h:
		w, h = h, w
	}

	tokens = append(tokens,
		"sw"+strconv.Itoa(sw)+"dp",
		"w"+strconv.Itoa(w)+"dp",
		"h"+strconv.Itoa(h)+"dp",
		size, long, round,
	)

	wideCG, hdr := e.WideColorGamut, e.HDR
	if e.SDKLevel >= wideColorMinSDK {
		if wideCG == "" {
			wideCG = "nowidecg"
		}
		if hdr == "" {
			hdr = "lowdr"
		}
	}
	tokens = appendSet(tokens, wideCG, hdr, orientation)

	if e.UIModeType != "" && e.UIModeType != "normal" {
		tokens = append(tokens, e.UIModeType)
	}
	tokens = append(tokens, orDefault(e.Night, "notnight"))

	densityToken, err := densityName(e.DensityDpi)
	if err != nil {
		return "", err
	}
	tokens = append(tokens,
		densityToken,
		orDefault(e.Touchscreen, "finger"),
		orDefault(e.KeyboardHidden, "keyssoft"),
		orDefault(e.Keyboard, "nokeys"),
		orDefault(e.NavHidden, "navhidden"),
		orDefault(e.Navigation, "nonav"),
	)
	if e.SDKLevel > 0 {
		tokens = append(tokens, "v"+strconv.Itoa(e.SDKLevel))
	}

	out := strings.Join(tokens, "-")
	if _, err := ParseRuntime(out); err != nil {
		return "", err
	}
	return out, nil
}

// localeTokens renders the locale as "ll[-rRR]" or, when a script is given,
// as a single "b+ll+Script[+RR]" token. An unset locale is en-US.
func (e Environment) localeTokens() (tokens []string, base, script string, err error) {
	locale := e.Locale
	if locale == "" {
		locale = "en-US"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, "", "", &common.QualifierError{Qualifiers: locale, Token: locale, Err: common.ErrUnknownQualifierToken}
	}
	b, conf := tag.Base()
	if conf == language.No || b.String() == "und" {
		return nil, "", "", &common.QualifierError{Qualifiers: locale, Token: locale, Err: common.ErrUnknownQualifierToken}
	}
	base = b.String()

	var region string
	if r, conf := tag.Region(); conf == language.Exact {
		region = r.String()
	}
	if s, conf := tag.Script(); conf == language.Exact {
		script = s.String()
	}

	if script != "" {
		tok := "b+" + base + "+" + script
		if region != "" {
			tok += "+" + region
		}
		return []string{tok}, base, script, nil
	}
	tokens = []string{base}
	if region != "" {
		tokens = append(tokens, "r"+region)
	}
	return tokens, base, script, nil
}

func densityName(dpi int) (string, error) {
	switch dpi {
	case 0:
		return "mdpi", nil
	case DensityAny:
		return "", &common.QualifierError{Qualifiers: "anydpi", Token: "anydpi", Err: common.ErrInvalidDensity}
	case DensityNone:
		return "", &common.QualifierError{Qualifiers: "nodpi", Token: "nodpi", Err: common.ErrInvalidDensity}
	}
	for name, v := range densityBuckets {
		if v == dpi {
			return name, nil
		}
	}
	return strconv.Itoa(dpi) + "dpi", nil
}

func orientationOf(w, h int) string {
	if w > h {
		return "land"
	}
	return "port"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func appendSet(tokens []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			tokens = append(tokens, v)
		}
	}
	return tokens
}
