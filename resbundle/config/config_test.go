package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/resbundle/resbundle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultPlatformNamespace, cfg.Engine.PlatformNamespace)
	assert.Equal(suite.T(), internal.DefaultAppIDBase, cfg.Engine.AppIDBase)
	assert.Equal(suite.T(), internal.DefaultPlatformIDBase, cfg.Engine.PlatformIDBase)
	assert.Equal(suite.T(), internal.DefaultLoadConcurrency, cfg.Engine.LoadConcurrency)
	assert.Equal(suite.T(), internal.DefaultSDKLevel, cfg.Device.SDKLevel)
	assert.Equal(suite.T(), "", cfg.Device.Qualifiers)
	assert.Equal(suite.T(), internal.DefaultLogLevel, cfg.Logging.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
engine:
  platformNamespace: "platform"
  appIdBase: 2130837504
  loadConcurrency: 2
device:
  sdkLevel: 21
  qualifiers: "fr-rFR-land"
logging:
  level: "debug"
`
	configFile := filepath.Join(suite.tempDir, "resbundle.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "platform", cfg.Engine.PlatformNamespace)
	assert.Equal(suite.T(), uint32(0x7f020000), cfg.Engine.AppIDBase)
	assert.Equal(suite.T(), internal.DefaultPlatformIDBase, cfg.Engine.PlatformIDBase)
	assert.Equal(suite.T(), 2, cfg.Engine.LoadConcurrency)
	assert.Equal(suite.T(), 21, cfg.Device.SDKLevel)
	assert.Equal(suite.T(), "fr-rFR-land", cfg.Device.Qualifiers)
	assert.Equal(suite.T(), "debug", cfg.Logging.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigFromWorkingDirectory() {
	configContent := "engine:\n  platformNamespace: \"cwd-platform\"\n"
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.tempDir, "config.yaml"), []byte(configContent), 0o644))

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "cwd-platform", cfg.Engine.PlatformNamespace)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("RESBUNDLE_ENGINE_PLATFORMNAMESPACE", "env-platform")
	suite.T().Setenv("RESBUNDLE_DEVICE_SDKLEVEL", "28")

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "env-platform", cfg.Engine.PlatformNamespace)
	assert.Equal(suite.T(), 28, cfg.Device.SDKLevel)
}

func (suite *ConfigTestSuite) TestNonPositiveConcurrencyFallsBack() {
	configFile := filepath.Join(suite.tempDir, "zero.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("engine:\n  loadConcurrency: 0\n"), 0o644))

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), internal.DefaultLoadConcurrency, cfg.Engine.LoadConcurrency)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	configFile := filepath.Join(suite.tempDir, "broken.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("engine: [unclosed\n"), 0o644))

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}
