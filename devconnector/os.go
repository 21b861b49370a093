package devconnector

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// ErrNotPointer is returned by SetConfigFromEnvVars when s is not a pointer to a struct.
var ErrNotPointer = errors.New("config target must be a pointer to a struct")

func parseDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}

	return d, true
}

var durationType = reflect.TypeOf(time.Duration(0))

// SetConfigFromEnvVars fills every exported field tagged `env:"NAME"` from the environment.
//
// Supported field types are string, bool, signed integers and time.Duration.
// Unset variables leave the zero value; unparsable values are reported as errors.
func SetConfigFromEnvVars(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}

	elem := v.Elem()
	typ := elem.Type()

	var errs []error

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		key, ok := field.Tag.Lookup("env")
		if !ok || key == "" || !field.IsExported() {
			continue
		}

		raw := strings.TrimSpace(os.Getenv(key))
		target := elem.Field(i)

		if err := setField(target, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func setField(target reflect.Value, raw string) error {
	if target.Type() == durationType {
		if raw == "" {
			target.SetInt(0)
			return nil
		}

		d, ok := parseDuration(raw)
		if !ok {
			return fmt.Errorf("invalid duration %q", raw)
		}

		target.SetInt(int64(d))

		return nil
	}

	switch target.Kind() {
	case reflect.String:
		target.SetString(raw)
	case reflect.Bool:
		if raw == "" {
			target.SetBool(false)
			return nil
		}

		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}

		target.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			target.SetInt(0)
			return nil
		}

		n, err := strconv.ParseInt(raw, 10, target.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}

		target.SetInt(n)
	default:
		return fmt.Errorf("unsupported field kind %s", target.Kind())
	}

	return nil
}

// LocalEnvConfig records the outcome of loading a local .env file.
type LocalEnvConfig struct {
	Initialized bool
	Files       []string
}

var (
	localEnvConfig     *LocalEnvConfig
	localEnvConfigOnce sync.Once
)

// InitLocalEnvConfig loads the given dotenv files (".env" when none are given) once per process.
// Variables already present in the environment are never overwritten and a missing file is not an error.
func InitLocalEnvConfig(files ...string) *LocalEnvConfig {
	localEnvConfigOnce.Do(func() {
		if len(files) == 0 {
			files = []string{".env"}
		}

		loaded := make([]string, 0, len(files))

		for _, f := range files {
			if err := godotenv.Load(f); err == nil {
				loaded = append(loaded, f)
			}
		}

		localEnvConfig = &LocalEnvConfig{Initialized: len(loaded) > 0, Files: loaded}
	})

	return localEnvConfig
}
