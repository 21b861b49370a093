package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileSource reads keyed values from the layered configuration files.
type FileSource struct {
	v     *viper.Viper
	files []string
}

// LoadFileSource reads <dir>/default.* and merges <dir>/<env>.* over it.
// Missing files are skipped; a file that exists but cannot be parsed is an error.
func LoadFileSource(dir, env string) (*FileSource, error) {
	v := viper.New()
	v.AddConfigPath(dir)

	src := NewFileSource(v)

	v.SetConfigName("default")

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("read %s/default: %w", dir, err)
		}
	} else {
		src.files = append(src.files, v.ConfigFileUsed())
	}

	env = strings.TrimSpace(env)
	if env == "" || env == "default" {
		return src, nil
	}

	v.SetConfigName(env)

	if err := v.MergeInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("read %s/%s: %w", dir, env, err)
		}
	} else {
		src.files = append(src.files, v.ConfigFileUsed())
	}

	return src, nil
}

// NewFileSource wraps an already populated viper instance.
func NewFileSource(v *viper.Viper) *FileSource {
	if v == nil {
		v = viper.New()
	}

	return &FileSource{v: v}
}

// Lookup returns the trimmed string value for key and whether it is set and non-blank.
func (s *FileSource) Lookup(key string) (string, bool) {
	if s == nil || s.v == nil || !s.v.IsSet(key) {
		return "", false
	}

	value := strings.TrimSpace(s.v.GetString(key))

	return value, value != ""
}

// Files lists the configuration files that were read, in merge order.
func (s *FileSource) Files() []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s.files...)
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound)
}
