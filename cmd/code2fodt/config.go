package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// configFileNames are looked up in the working directory, in this order.
var configFileNames = []string{".code2fodt.yaml", ".code2fodt.yml", ".code2fodt.toml"}

const defaultProfile = "default"

type configProfile struct {
	Include []string `yaml:"include" toml:"include"`
	Exclude []string `yaml:"exclude" toml:"exclude"`
}

type configFile struct {
	Title              string                   `yaml:"title" toml:"title"`
	ShortDescription   string                   `yaml:"short_description" toml:"short_description"`
	Template           string                   `yaml:"template" toml:"template"`
	VolumeLOCThreshold int                      `yaml:"volume_loc_threshold" toml:"volume_loc_threshold"`
	TabSize            *int                     `yaml:"tab_size" toml:"tab_size"`
	Probe              string                   `yaml:"probe" toml:"probe"`
	Hash               string                   `yaml:"hash" toml:"hash"`
	OnDecodeOverload   string                   `yaml:"on_decode_overload" toml:"on_decode_overload"`
	Include            []string                 `yaml:"include" toml:"include"`
	Exclude            []string                 `yaml:"exclude" toml:"exclude"`
	Profiles           map[string]configProfile `yaml:"profiles" toml:"profiles"`
}

type configRuleSet struct {
	include []string
	exclude []string
}

// findConfigFile returns the first config file present in dir, or "" when
// there is none.
func findConfigFile(dir string) (string, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// readConfigFile parses a YAML or TOML config, chosen by extension.
func readConfigFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg configFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return &cfg, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// rules combines the top-level include/exclude lists with those of the
// named profile, or of the default profile when that one does not exist.
func (c *configFile) rules(profile string) configRuleSet {
	include := append([]string{}, c.Include...)
	exclude := append([]string{}, c.Exclude...)

	if len(c.Profiles) > 0 {
		if prof, ok := c.Profiles[profile]; ok {
			include = append(include, prof.Include...)
			exclude = append(exclude, prof.Exclude...)
		} else if prof, ok := c.Profiles[defaultProfile]; ok {
			include = append(include, prof.Include...)
			exclude = append(exclude, prof.Exclude...)
		}
	}

	return configRuleSet{
		include: include,
		exclude: exclude,
	}
}

func (c *configFile) profileInfo(profile string) (hasProfiles bool, hasProfile bool, hasDefault bool) {
	if len(c.Profiles) == 0 {
		return false, false, false
	}
	_, hasProfile = c.Profiles[profile]
	_, hasDefault = c.Profiles[defaultProfile]
	return true, hasProfile, hasDefault
}
