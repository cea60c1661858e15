package qualifiers

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsGrammar(t *testing.T) {
	tests := []struct {
		in   string
		dims []Dimension
	}{
		{"", nil},
		{"en", []Dimension{DimLanguage}},
		{"en-rUS", []Dimension{DimLanguage, DimRegion}},
		{"b+sr+Latn+RS", []Dimension{DimLanguage}},
		{"mcc310-mnc004-en", []Dimension{DimMCC, DimMNC, DimLanguage}},
		{"en-rUS-ldrtl-sw400dp-v21", []Dimension{DimLanguage, DimRegion, DimLayoutDirection, DimSmallestWidth, DimVersion}},
		{"w720dp-h1024dp", []Dimension{DimWidth, DimHeight}},
		{"large-long-round-widecg-highdr-land", []Dimension{DimScreenSize, DimScreenLong, DimScreenRound, DimWideColorGamut, DimHDR, DimOrientation}},
		{"car-night-xxhdpi", []Dimension{DimUIModeType, DimNight, DimDensity}},
		{"420dpi", []Dimension{DimDensity}},
		{"anydpi-v26", []Dimension{DimDensity, DimVersion}},
		{"nodpi", []Dimension{DimDensity}},
		{"finger-keyssoft-qwerty-navexposed-dpad", []Dimension{DimTouchscreen, DimKeyboardHidden, DimKeyboard, DimNavHidden, DimNavigation}},
		{"12key", []Dimension{DimKeyboard}},
		{"1024x768-v19", []Dimension{DimPixelSize, DimVersion}},
		{"EN-Rus-PORT", []Dimension{DimLanguage, DimRegion, DimOrientation}},
		{"any-any-fr", []Dimension{DimMCC, DimMNC, DimLanguage}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := Parse(tt.in)
			require.NoError(t, err)

			var got []Dimension
			for _, tok := range q.Tokens() {
				got = append(got, tok.Dimension)
			}
			assert.Equal(t, tt.dims, got)
			assert.Equal(t, tt.in, q.String())
			assert.Equal(t, len(tt.dims) == 0, q.IsDefault())
		})
	}
}

func TestParseRejectsUnknownTokens(t *testing.T) {
	for _, in := range []string{"bogus", "en-bogus", "v21-en", "port-land", "en--v21", "swdp", "b+toolongtag", "mdpi-sw600dp"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrUnknownQualifierToken), "got %v", err)

			var qe *common.QualifierError
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, in, qe.Qualifiers)
			assert.NotEmpty(t, qe.Token+qe.Qualifiers)
		})
	}
}

func TestParseRejectsDoubleVersion(t *testing.T) {
	for _, in := range []string{"v21-v22", "en-v19-v21", "V4-v5"} {
		_, err := Parse(in)
		assert.Truef(t, errors.Is(err, common.ErrConflictingVersionQualifiers), "%q: got %v", in, err)
	}
}

func TestParseRuntimeRejectsPseudoDensities(t *testing.T) {
	for _, in := range []string{"anydpi", "en-nodpi-v21"} {
		_, err := ParseRuntime(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidDensity))
		assert.True(t, errors.Is(err, common.ErrUnknownQualifierToken))
	}

	q, err := ParseRuntime("en-xhdpi-v21")
	require.NoError(t, err)
	tok, ok := q.Token(DimDensity)
	require.True(t, ok)
	assert.Equal(t, DensityXHigh, tok.Value)

	for _, in := range []string{"65534dpi", "65535dpi", "en-65534dpi-v21"} {
		q, err := ParseRuntime(in)
		require.NoError(t, err, in)
		tok, ok := q.Token(DimDensity)
		require.True(t, ok)
		assert.False(t, tok.IsDensitySentinel())
	}
	tok, ok = MustParse("ANYDPI").Token(DimDensity)
	require.True(t, ok)
	assert.True(t, tok.IsDensitySentinel())
}

func TestVersion(t *testing.T) {
	v, ok := MustParse("en-v21").Version()
	assert.True(t, ok)
	assert.Equal(t, 21, v)

	_, ok = MustParse("en").Version()
	assert.False(t, ok)

	_, ok = MustParse("any-any-any").Version()
	assert.False(t, ok)
}

func TestPad(t *testing.T) {
	assert.Equal(t, "--", Pad(""))
	assert.Equal(t, "-en-", Pad("en"))
	assert.Equal(t, "-en--rus--v21-", Pad("en-rUS-v21"))
	assert.Equal(t, Pad("en-rus"), Pad("EN-rUS"))
	assert.Equal(t, "-rus-", PadToken("rUS"))
	assert.Equal(t, "-v21-", PadToken("v21"))
	assert.Equal(t, Pad("land-v21"), MustParse("land-v21").Padded())
	assert.Less(t, Pad(""), Pad("12key"), "the default variant sorts first")
}

func TestWithVersion(t *testing.T) {
	tests := []struct {
		in   string
		sdk  int
		want string
	}{
		{"", 21, "v21"},
		{"en-land", 28, "en-land-v28"},
		{"en-v19", 28, "en-v19"},
	}
	for _, tt := range tests {
		got, err := WithVersion(tt.in, tt.sdk)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := WithVersion("bogus", 21)
	assert.Error(t, err)
}

func TestDimensionString(t *testing.T) {
	assert.Equal(t, "version", DimVersion.String())
	assert.Equal(t, "language", DimLanguage.String())
	assert.Equal(t, "dimension(99)", Dimension(99).String())
}
