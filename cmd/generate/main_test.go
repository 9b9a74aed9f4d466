package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	engine "github.com/rxtech-lab/argo-replay/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/stretchr/testify/suite"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	dir string
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	// main writes relative to the working directory; Chdir restores it on cleanup
	suite.T().Chdir(suite.dir)
}

func (suite *GenerateCmdTestSuite) readSchemaProperties(path string) map[string]any {
	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal(content, &schema))
	suite.Equal("backtest-engine-v1-config", schema["title"])

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)

	return properties
}

func (suite *GenerateCmdTestSuite) readConfig(path string) types.BacktestConfig {
	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	config, err := engine.ParseConfig(string(content))
	suite.Require().NoError(err)

	return config
}

func (suite *GenerateCmdTestSuite) TestMainWritesSchemaAndSample() {
	main()

	properties := suite.readSchemaProperties(filepath.Join(suite.dir, "config", schemaName))
	for _, name := range []string{"initial_balance", "commission_rate", "slippage_rate", "position_size_fraction", "max_open_positions", "equity_sample_interval", "risk_free_rate"} {
		suite.Contains(properties, name)
	}

	interval, ok := properties["equity_sample_interval"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal(float64(types.DefaultEquitySampleInterval), interval["default"])

	samplePath := filepath.Join(suite.dir, "config", sampleConfigName)
	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(string(content), getSchemaReference(schemaName)))
	suite.Equal(engine.TestConfig(), suite.readConfig(samplePath))
}

func (suite *GenerateCmdTestSuite) TestMainKeepsEditedSample() {
	main()

	samplePath := filepath.Join(suite.dir, "config", sampleConfigName)
	suite.Require().NoError(os.WriteFile(samplePath, []byte("initial_balance: 2500\nposition_size_fraction: 0.25\nmax_open_positions: 3\n"), 0644))

	schemaPath := filepath.Join(suite.dir, "config", schemaName)
	suite.Require().NoError(os.Remove(schemaPath))

	main()

	// the schema is regenerated while the edited sample survives
	suite.FileExists(schemaPath)

	config := suite.readConfig(samplePath)
	suite.Equal(2500.0, config.InitialBalance)
	suite.Equal(0.25, config.PositionSizeFraction)
	suite.Equal(3, config.MaxOpenPositions)
	suite.Equal(types.DefaultEquitySampleInterval, config.EquitySampleInterval)
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileCreatesParents() {
	path := filepath.Join(suite.dir, "nested", "schemas", "engine.json")
	suite.Require().NoError(generateSchemaFile(path))

	properties := suite.readSchemaProperties(path)
	suite.Contains(properties, "initial_balance")
	suite.Contains(properties, "max_open_positions")
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileUnwritable() {
	// a regular file cannot be used as a directory
	blocker := filepath.Join(suite.dir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	suite.ErrorContains(generateSchemaFile(filepath.Join(blocker, "engine.json")), "failed to create directory")
}

func (suite *GenerateCmdTestSuite) TestGenerateSampleConfigRoundTrip() {
	config := engine.TestConfig()
	config.InitialBalance = 50000
	config.MaxOpenPositions = 4
	config.RiskFreeRate = 0.03

	path := filepath.Join(suite.dir, "samples", "custom.yaml")
	suite.Require().NoError(generateSampleConfig(config, path, "custom.json"))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(string(content), "# yaml-language-server: $schema=custom.json\n"))
	suite.Equal(config, suite.readConfig(path))
}

func (suite *GenerateCmdTestSuite) TestValidation() {
	suite.NoError(validatePaths("config/a.json", "config/a.yaml"))
	suite.ErrorContains(validatePaths("", "config/a.yaml"), "schema path cannot be empty")
	suite.ErrorContains(validatePaths("config/a.json", ""), "sample config path cannot be empty")

	suite.NoError(validateSchemaName(schemaName))
	suite.ErrorContains(validateSchemaName(""), "schema name cannot be empty")
	suite.ErrorContains(validateSchemaName(sampleConfigName), "must have .json extension")
}
