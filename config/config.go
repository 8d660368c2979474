// Package config loads keyflow settings and the groups file.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/paths"
	"github.com/grovetools/keyflow/schema"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Format is a settings file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// configNames are searched in order inside the config directory.
var configNames = []string{"keyflow.yml", "keyflow.yaml", "keyflow.toml"}

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads, merges, defaults and validates the settings at path, plus any
// keyflow.override.* file next to it.
func Load(path string) (*Settings, error) {
	return LoadWithLogger(path, logrus.StandardLogger())
}

// LoadWithLogger is Load with an explicit logger.
func LoadWithLogger(path string, logger logrus.FieldLogger) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kferrors.ConfigNotFound(path)
		}
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	settings, err := decode(data, FormatFor(path))
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}
	logger.WithField("path", path).Debug("Loaded settings")

	for _, override := range overrideFiles(path) {
		odata, err := os.ReadFile(override)
		if err != nil {
			continue
		}
		o, err := decode(odata, FormatFor(override))
		if err != nil {
			logger.WithError(err).WithField("path", override).Warn("Failed to parse override file, skipping")
			continue
		}
		logger.WithField("path", override).Debug("Merging override settings")
		settings = mergeSettings(settings, o)
	}

	return finish(settings)
}

// LoadDefault loads the settings from the config directory. A missing file
// yields the defaults.
func LoadDefault() (*Settings, error) {
	path, err := FindConfigFile(paths.ConfigDir())
	if err != nil {
		if kferrors.Is(err, kferrors.ErrCodeConfigNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// LoadFromBytes parses settings of the given format and validates them.
func LoadFromBytes(data []byte, format Format) (*Settings, error) {
	settings, err := decode(data, format)
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "failed to parse configuration")
	}
	return finish(settings)
}

func decode(data []byte, format Format) (*Settings, error) {
	expanded := []byte(expandEnvVars(string(data)))
	var s Settings
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(expanded, &s); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	return &s, nil
}

func finish(s *Settings) (*Settings, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, kferrors.Wrap(err, kferrors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(s); err != nil {
		kerr := kferrors.Wrap(err, kferrors.ErrCodeConfigInvalid, "schema validation failed")
		var verr *schema.ViolationError
		if errors.As(err, &verr) {
			kerr = kerr.WithDetail("violations", len(verr.Violations))
		}
		return nil, kerr
	}
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FindConfigFile returns the first settings file in dir.
func FindConfigFile(dir string) (string, error) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", kferrors.ConfigNotFound(dir).WithDetail("searched", configNames)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
