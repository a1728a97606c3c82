package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lang/en_US.yaml
var bundledLang embed.FS

const fallbackLocale = "en_US"

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// InitLocale initializes the global message catalog
func InitLocale() error {
	locale := DetectSystemLocale()

	l, err := LoadLocale(locale)
	if err != nil {
		l, err = LoadLocale(fallbackLocale)
		if err != nil {
			return fmt.Errorf("failed to load fallback locale %s: %w", fallbackLocale, err)
		}
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale follows POSIX precedence: LC_ALL, then LC_MESSAGES, then LANG.
func DetectSystemLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if locale := os.Getenv(name); locale != "" {
			parts := strings.Split(locale, ".")
			if parts[0] != "" && parts[0] != "C" && parts[0] != "POSIX" {
				return parts[0]
			}
		}
	}

	return fallbackLocale
}

// LoadLocale loads lang/<locale>.yaml next to the executable. The bundled
// English catalog is used when no file is found for en_US.
func LoadLocale(locale string) (*Locale, error) {
	var data []byte

	exePath, err := os.Executable()
	if err == nil {
		data, err = os.ReadFile(filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml"))
	}
	if err != nil {
		if locale != fallbackLocale {
			return nil, fmt.Errorf("no catalog for locale %s: %w", locale, err)
		}
		data, err = bundledLang.ReadFile("lang/" + fallbackLocale + ".yaml")
		if err != nil {
			return nil, err
		}
	}

	return parseLocale(locale, data)
}

func parseLocale(locale string, data []byte) (*Locale, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse locale %s: %w", locale, err)
	}

	return &Locale{
		translations: translations,
		locale:       locale,
	}, nil
}

// T translates a key with optional fmt parameters. Unknown keys are returned as is.
func T(key string, params ...interface{}) string {
	if globalLocale == nil {
		return key
	}

	translation, ok := globalLocale.translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

func GetLocale() string {
	if globalLocale == nil {
		return fallbackLocale
	}
	return globalLocale.locale
}
