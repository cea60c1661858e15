package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `device:
  sdkLevel: 34
logging:
  level: error
`

const testFixture = `trees:
  - source: framework.jar
    namespace: android
    resources:
      - name: string/ok
        id: 0x01040000
        values:
          - {qualifiers: "", value: OK}
          - {qualifiers: fr, value: "D'accord"}
  - source: app.apk
    namespace: app
    resources:
      - name: string/title
        values:
          - {qualifiers: "", value: Title}
          - {qualifiers: en-v21, value: Title (v21)}
  - source: lib.aar
    namespace: lib
    idBase: 0x7f200000
    resources:
      - name: string/credit
        values:
          - {qualifiers: "", value: Lib credit}
overlays:
  - namespace: app
    sources: [app.apk, lib.aar]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", writeFile(t, "config.yaml", testConfig)}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestResolveCommand(t *testing.T) {
	fixture := writeFile(t, "fixture.yaml", testFixture)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "ByName",
			args: []string{"resolve", "-f", fixture, "-q", "en-rUS", "--sdk", "23", "app:string/title"},
			want: []string{`runtime "en-rUS-v23"`, "[app:string/title] Title (v21)", `"en-v21" from app.apk`},
		},
		{
			name: "DefaultVariant",
			args: []string{"resolve", "-f", fixture, "-q", "de", "--sdk", "0", "app:string/title"},
			want: []string{"[app:string/title] Title  (default from app.apk)"},
		},
		{
			name: "ByID",
			args: []string{"resolve", "-f", fixture, "-q", "fr", "0x01040000"},
			want: []string{"[android:string/ok] D'accord"},
		},
		{
			name: "ThroughOverlay",
			args: []string{"resolve", "-f", fixture, "lib:string/credit", "app:string/credit"},
			want: []string{"[lib:string/credit] Lib credit", "[app:string/credit] Lib credit", "from lib.aar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err, out)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestResolveCommandErrors(t *testing.T) {
	fixture := writeFile(t, "fixture.yaml", testFixture)

	out, err := execute(t, "resolve", "-f", fixture, "app:string/missing", "app:string/title")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNotFound))
	assert.Contains(t, out, "[app:string/missing] no value")
	assert.Contains(t, out, "[app:string/title] Title")

	_, err = execute(t, "resolve", "-f", fixture, "-q", "nodpi", "app:string/title")
	assert.Error(t, err)

	_, err = execute(t, "resolve", "-f", fixture, "0xzz")
	assert.Error(t, err)

	_, err = execute(t, "resolve", "app:string/title")
	assert.Error(t, err, "--fixture is required")

	_, err = execute(t, "resolve", "-f", filepath.Join(t.TempDir(), "none.yaml"), "app:string/title")
	assert.Error(t, err)
}

func TestQualifiersCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "Landscape",
			args: []string{"qualifiers", "--orientation", "land", "--sdk", "21"},
			want: "en-rUS-ldltr-sw320dp-w470dp-h320dp-normal-notlong-notround-land-notnight-mdpi-finger-keyssoft-nokeys-navhidden-nonav-v21\n",
		},
		{
			name: "Apply",
			args: []string{"qualifiers", "--apply", "fr-rCA-large-night-xhdpi-v28"},
			want: "fr-rCA-ldltr-sw480dp-w480dp-h640dp-large-notlong-notround-nowidecg-lowdr-port-night-xhdpi-finger-keyssoft-nokeys-navhidden-nonav-v28\n",
		},
		{
			name: "ConfigSDK",
			args: []string{"qualifiers", "--locale", "fr"},
			want: "fr-ldltr-sw320dp-w320dp-h470dp-normal-notlong-notround-nowidecg-lowdr-port-notnight-mdpi-finger-keyssoft-nokeys-navhidden-nonav-v34\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := execute(t, "qualifiers", "--density", "65535")
	assert.Error(t, err)
	_, err = execute(t, "qualifiers", "--apply", "bogus")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "", "en-rUS-land-v21")
	require.NoError(t, err)
	assert.Contains(t, out, "✓  default")
	assert.Contains(t, out, "[en-rUS-land-v21] language, region, orientation, version")

	out, err = execute(t, "validate", "en", "port-land", "v1-v2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3")
	assert.Contains(t, out, "✗  [port-land]")
	assert.Contains(t, out, "✗  [v1-v2]")

	_, err = execute(t, "validate", "anydpi")
	assert.NoError(t, err)
	_, err = execute(t, "validate", "--runtime", "anydpi")
	assert.Error(t, err)
}

func TestIndexCommand(t *testing.T) {
	fixture := writeFile(t, "fixture.yaml", testFixture)

	out, err := execute(t, "index", "-f", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "0x01040000")
	assert.Contains(t, out, "android:string/ok")
	assert.Contains(t, out, "app:string/credit")
	assert.Contains(t, out, "overlay(app)")

	out, err = execute(t, "index", "-f", fixture, "-n", "android")
	require.NoError(t, err)
	assert.Contains(t, out, "android:string/ok")
	assert.NotContains(t, out, "app:string/title")
}
