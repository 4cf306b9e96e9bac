// Package toolconfig loads expressgen's own settings from layered sources.
//
// Overview:
//   - Responsibility: Merge defaults, an optional YAML file, EXPRESSGEN_* environment variables and CLI flags
//   - Key Types: Config, OutputConfig, LogConfig
//   - Concurrency Model: Load builds a fresh koanf instance per call; Config is a plain value
//   - Error Semantics: Unreadable files and invalid values fail with VALIDATION errors naming the key
//   - Performance Notes: Loaded once per process
//
// Usage:
//
//	cfg, err := toolconfig.Load(toolconfig.Sources{File: "expressgen.yaml", Overrides: flags})
package toolconfig

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/logx"
)

// EnvPrefix prefixes every environment variable toolconfig reads.
const EnvPrefix = "EXPRESSGEN_"

// Keys accepted from every source.
const (
	KeyOutputDir       = "output.dir"
	KeyOutputWorkers   = "output.workers"
	KeyOutputOverwrite = "output.overwrite"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogColor        = "log.color"
)

// SensitiveFields are log keys whose values are always masked.
var SensitiveFields = []string{"apikey", "password", "secret", "token"}

// Config is the merged tool configuration.
type Config struct {
	Output OutputConfig `koanf:"output"`
	Log    LogConfig    `koanf:"log"`
}

// OutputConfig controls where and how files are written.
type OutputConfig struct {
	Dir       string `koanf:"dir" validate:"required"`
	Workers   int    `koanf:"workers" validate:"min=1,max=64"`
	Overwrite bool   `koanf:"overwrite"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=logfmt json"`
	Color  bool   `koanf:"color"`
}

// Sources lists the optional layers above the defaults.
type Sources struct {
	File      string         // YAML file; "" skips the layer
	Overrides map[string]any // Explicitly set CLI flags keyed like KeyOutputDir
}

// Defaults returns the lowest-precedence layer.
func Defaults() map[string]any {
	return map[string]any{
		KeyOutputDir:       ".",
		KeyOutputWorkers:   4,
		KeyOutputOverwrite: false,
		KeyLogLevel:        "info",
		KeyLogFormat:       "logfmt",
		KeyLogColor:        false,
	}
}

var validate = validator.New()

// Load merges defaults, file, environment and overrides, in increasing precedence.
//
// Parameters:
//   - src: Optional file and flag overrides
//
// Returns:
//   - *Config: Validated configuration
//   - error: VALIDATION error naming the file or offending key
//
// Concurrency:
//   - Safe for concurrent use
//
// Performance:
//   - One file read and one environment scan
func Load(src Sources) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "toolconfig.Load", err)
	}

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil {
			return nil, errors.Build(errors.CodeValidation).
				WithOp("toolconfig.Load").
				WithErr(err).
				WithMsgf("cannot load config file %s", src.File).
				WithField("config").
				WithPath(src.File).
				Err()
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "toolconfig.Load", err)
	}

	if len(src.Overrides) > 0 {
		if err := k.Load(confmap.Provider(src.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(errors.CodeValidation, "toolconfig.Load", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrapf(errors.CodeValidation, "toolconfig.Load", err, "invalid configuration")
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

// envKey maps EXPRESSGEN_OUTPUT_DIR to output.dir. Only the first underscore is a separator.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.Replace(k, "_", ".", 1), v
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.CodeValidation, "toolconfig.Load", err)
	}
	b := errors.Build(errors.CodeValidation).WithOp("toolconfig.Load")
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := koanfKey(fe.Namespace())
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", key, fe.Tag(), fe.Value()))
		b.WithField(key)
	}
	return b.WithMsg(strings.Join(msgs, "; ")).Err()
}

// koanfKey maps a validator namespace such as Config.Output.Workers to output.workers.
func koanfKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// Logger builds the structured logger this configuration describes.
func (c *Config) Logger(w io.Writer) (log.Logger, error) {
	level, err := logx.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Build(errors.CodeValidation).WithOp("toolconfig.Logger").WithErr(err).WithField(KeyLogLevel).Err()
	}
	format, err := logx.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, errors.Build(errors.CodeValidation).WithOp("toolconfig.Logger").WithErr(err).WithField(KeyLogFormat).Err()
	}
	return logx.New(
		logx.WithWriter(w),
		logx.WithLevel(level),
		logx.WithFormat(format),
		logx.WithColor(c.Log.Color && format == logx.FormatLogfmt),
		logx.WithSensitiveFields(SensitiveFields...),
	), nil
}
