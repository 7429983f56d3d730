package config

import (
	"io/ioutil"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// LoadYAMLConfig constructs an AppConfiguration struct from a YAML file. An
// empty path yields a zero-value configuration, leaving env vars and
// defaults to fill everything in.
func LoadYAMLConfig(path string) (AppConfiguration, error) {
	var conf AppConfiguration
	if len(path) == 0 {
		return conf, nil
	}
	f, err := os.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return conf, err
	}

	contents, err := ioutil.ReadAll(f)
	if err != nil {
		return conf, err
	}

	err = yaml.Unmarshal(contents, &conf)
	if err != nil {
		return conf, err
	}

	return conf, nil
}
