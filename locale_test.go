package main

import (
	"testing"
)

func TestDetectSystemLocale(t *testing.T) {
	testCases := []struct {
		name           string
		lang           string
		lcAll          string
		lcMessages     string
		expectedLocale string
	}{
		{
			name:           "English US locale from LANG",
			lang:           "en_US.UTF-8",
			expectedLocale: "en_US",
		},
		{
			name:           "LC_ALL takes precedence over LANG",
			lang:           "de_DE.UTF-8",
			lcAll:          "ru_RU.UTF-8",
			expectedLocale: "ru_RU",
		},
		{
			name:           "LC_MESSAGES takes precedence over LANG",
			lang:           "de_DE.UTF-8",
			lcMessages:     "fr_FR",
			expectedLocale: "fr_FR",
		},
		{
			name:           "LC_ALL takes precedence over LC_MESSAGES",
			lcAll:          "ru_RU.UTF-8",
			lcMessages:     "fr_FR",
			expectedLocale: "ru_RU",
		},
		{
			name:           "POSIX LC_ALL falls through to LANG",
			lang:           "de_DE.UTF-8",
			lcAll:          "C",
			expectedLocale: "de_DE",
		},
		{
			name:           "POSIX locale is ignored",
			lang:           "C.UTF-8",
			expectedLocale: "en_US",
		},
		{
			name:           "Fallback to en_US when empty",
			expectedLocale: "en_US",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LANG", tc.lang)
			t.Setenv("LC_ALL", tc.lcAll)
			t.Setenv("LC_MESSAGES", tc.lcMessages)

			if got := DetectSystemLocale(); got != tc.expectedLocale {
				t.Errorf("Expected locale '%s', got '%s'", tc.expectedLocale, got)
			}
		})
	}
}

func TestLoadLocaleFallsBackToBundledCatalog(t *testing.T) {
	l, err := LoadLocale("en_US")
	if err != nil {
		t.Fatalf("Failed to load bundled locale: %v", err)
	}

	if l.locale != "en_US" {
		t.Errorf("Expected locale 'en_US', got '%s'", l.locale)
	}

	for _, key := range []string{"order_placed", "archive_created", "login_opening", "order_submit_retry"} {
		if l.translations[key] == "" {
			t.Errorf("Bundled catalog is missing %q", key)
		}
	}
}

func TestLoadLocaleUnknown(t *testing.T) {
	if _, err := LoadLocale("xx_XX"); err == nil {
		t.Error("Expected error for a locale without catalog")
	}
}

func TestParseLocaleInvalidYAML(t *testing.T) {
	if _, err := parseLocale("bad", []byte("key: [unterminated")); err == nil {
		t.Error("Expected parse error")
	}
}

func TestTranslationFunction(t *testing.T) {
	originalLocale := globalLocale
	defer func() {
		globalLocale = originalLocale
	}()

	globalLocale = &Locale{
		translations: map[string]string{
			"simple_key":          "Simple Translation",
			"key_with_param":      "Order %s placed",
			"key_with_two_params": "Order %d/%d",
		},
		locale: "test",
	}

	testCases := []struct {
		key      string
		params   []interface{}
		expected string
	}{
		{"simple_key", nil, "Simple Translation"},
		{"key_with_param", []interface{}{"RSB-1"}, "Order RSB-1 placed"},
		{"key_with_two_params", []interface{}{1, 2}, "Order 1/2"},
		{"missing_key", nil, "missing_key"},
	}

	for _, tc := range testCases {
		if got := T(tc.key, tc.params...); got != tc.expected {
			t.Errorf("T(%q) = %q, expected %q", tc.key, got, tc.expected)
		}
	}

	if GetLocale() != "test" {
		t.Errorf("Expected GetLocale 'test', got '%s'", GetLocale())
	}
}

func TestTranslationWithoutLocale(t *testing.T) {
	originalLocale := globalLocale
	defer func() {
		globalLocale = originalLocale
	}()
	globalLocale = nil

	if got := T("order_placed"); got != "order_placed" {
		t.Errorf("Expected key to be returned, got %q", got)
	}
	if GetLocale() != "en_US" {
		t.Errorf("Expected fallback locale, got %q", GetLocale())
	}
}
