package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to the env tag of every option.
const EnvPrefix = "STRIPNODE_"

// option binds one struct field to its flag, TOML path and env variable.
type option struct {
	name     string
	field    reflect.Value
	flag     string
	tomlPath string
	envKey   string
}

func bindOptions(opts any) []option {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	bound := make([]option, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		bound = append(bound, option{
			name:     sf.Name,
			field:    v.Field(i),
			flag:     fieldNameToFlag(sf.Name),
			tomlPath: sf.Tag.Get("toml"),
			envKey:   sf.Tag.Get("env"),
		})
	}
	return bound
}

// LoadConfig fills opts with precedence CLI args > env vars > config file.
// The file is named by the Config field; a missing file is not an error.
// Flags explicitly set on cmd are never overwritten. Values that do not fit
// their field are skipped and reported together in the returned error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	bound := bindOptions(opts)

	changed := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changed[f.Name] = true
			}
		})
	}

	var configPath string
	for _, o := range bound {
		if o.name == "Config" {
			configPath = o.field.String()
			break
		}
	}

	table, err := readTable(configPath)
	if err != nil {
		return err
	}

	var errs []error
	for _, o := range bound {
		if changed[o.flag] {
			continue
		}
		if o.tomlPath != "" {
			if value := getNestedValue(table, o.tomlPath); value != nil {
				if setErr := setFieldValue(o.field, value); setErr != nil {
					errs = append(errs, fmt.Errorf("%s: %w", o.tomlPath, setErr))
				}
			}
		}
		if o.envKey != "" {
			if envValue := os.Getenv(EnvPrefix + o.envKey); envValue != "" {
				if setErr := setFieldValueFromString(o.field, envValue); setErr != nil {
					errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, o.envKey, setErr))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// readTable decodes the config file into a generic table. A missing or
// unreadable file yields an empty table.
func readTable(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var table map[string]any
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return table, nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "StripLEDCount" -> "strip-led-count".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// getNestedValue walks data along a dotted path.
func getNestedValue(data map[string]any, path string) any {
	keys := strings.Split(path, ".")
	for _, key := range keys[:len(keys)-1] {
		next, ok := data[key].(map[string]any)
		if !ok {
			return nil
		}
		data = next
	}
	return data[keys[len(keys)-1]]
}

var errTypeMismatch = errors.New("value does not match field type")

// setFieldValue stores a decoded TOML value in field. go-toml decodes
// integers as int64 and floats as float64.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return errTypeMismatch
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return errTypeMismatch
		}
		field.SetBool(b)
	case reflect.Int:
		switch i := value.(type) {
		case int64:
			field.SetInt(i)
		case int:
			field.SetInt(int64(i))
		default:
			return errTypeMismatch
		}
	case reflect.Float64:
		switch f := value.(type) {
		case float64:
			field.SetFloat(f)
		case int64:
			field.SetFloat(float64(f))
		default:
			return errTypeMismatch
		}
	case reflect.Slice:
		arr, ok := value.([]any)
		if !ok || field.Type().Elem().Kind() != reflect.String {
			return errTypeMismatch
		}
		slice := make([]string, 0, len(arr))
		for _, item := range arr {
			s, strOk := item.(string)
			if !strOk {
				return errTypeMismatch
			}
			slice = append(slice, s)
		}
		field.Set(reflect.ValueOf(slice))
	}
	return nil
}

// setFieldValueFromString parses an env value into field. Slices are
// comma separated.
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errTypeMismatch
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	}
	return nil
}

// LoadLoggingConfig reads the [logging] table of the config file. The
// defaults are returned when the file is missing or unreadable.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{Level: "info", Format: "text"}
	if configPath == "" {
		return cfg
	}

	f, err := LoadFile(configPath)
	if err != nil {
		return cfg
	}
	if level := f.Logging["level"]; level != "" {
		cfg.Level = level
	}
	if format := f.Logging["format"]; format != "" {
		cfg.Format = format
	}
	cfg.Modules = f.ModuleLevels()
	return cfg
}
