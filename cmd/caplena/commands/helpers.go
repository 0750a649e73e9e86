package commands

import (
	"encoding/json"
	"os"

	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/caplena/caplena-go/pkg/caplenaclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output format constants.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

// CreateClient builds a Caplena client from the resolved CLI configuration.
func CreateClient() (caplena.Client, error) {
	config := &caplena.Config{
		APIKey:  viper.GetString("api_key"),
		BaseURI: viper.GetString("base_uri"),
	}

	if viper.GetBool("verbose") {
		logger, err := NewZapLogger()
		if err != nil {
			return nil, err
		}

		config.Logger = logger
		config.Debug = true
	}

	return caplenaclient.New(config)
}

// StandardJSONRenderer writes a value to stdout as indented JSON.
func StandardJSONRenderer(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

// StandardYAMLRenderer writes a value to stdout as YAML.
func StandardYAMLRenderer(value interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer func() {
		_ = encoder.Close()
	}()

	return encoder.Encode(value)
}

// scalarString renders a declared field of an object for table output,
// treating unset fields as empty.
func scalarString(obj *caplena.Object, field string) string {
	value, err := obj.Get(field)
	if err != nil {
		return ""
	}

	if str, ok := value.(string); ok {
		return str
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	return string(raw)
}
