package engine

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-replay/internal/types"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseConfig parses a YAML engine configuration, applies defaults and validates it.
func ParseConfig(content string) (types.BacktestConfig, error) {
	var config types.BacktestConfig
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return types.BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return types.BacktestConfig{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the backtest configuration.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&types.BacktestConfig{})
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the backtest configuration.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns the configuration used by the engine tests and examples.
func TestConfig() types.BacktestConfig {
	return types.BacktestConfig{
		InitialBalance:       10000,
		CommissionRate:       0.001,
		SlippageRate:         0.0005,
		PositionSizeFraction: 0.1,
		MaxOpenPositions:     1,
		EquitySampleInterval: types.DefaultEquitySampleInterval,
		RiskFreeRate:         0,
	}
}

// EmptyConfig returns a configuration with only the defaults filled in.
// It does not validate; InitialBalance and PositionSizeFraction must be set.
func EmptyConfig() types.BacktestConfig {
	return types.BacktestConfig{
		InitialBalance:       0,
		CommissionRate:       0,
		SlippageRate:         0,
		PositionSizeFraction: 0,
		MaxOpenPositions:     1,
		EquitySampleInterval: types.DefaultEquitySampleInterval,
		RiskFreeRate:         0,
	}
}
