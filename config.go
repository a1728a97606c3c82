package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

type Config struct {
	BaseURL     string      `yaml:"base_url"`
	Environment Environment `yaml:"environment"`

	DefaultTimeoutMs    int `yaml:"default_timeout_ms"`
	VisibilityTimeoutMs int `yaml:"visibility_timeout_ms"`
	SlowMotionMs        int `yaml:"slow_motion_ms"`

	ScreenshotOnFailure bool   `yaml:"screenshot_on_failure"`
	Headless            bool   `yaml:"headless"`
	BrowserProfilePath  string `yaml:"browser_profile_path"`
	DebugMode           bool   `yaml:"debug_mode"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	OrdersPath  string `yaml:"orders_path"`
	DownloadDir string `yaml:"download_dir"`

	// OutputDir is the base for ReceiptsDir, ArchivePath and FailuresDir
	// when those are left empty.
	OutputDir   string `yaml:"output_dir"`
	ReceiptsDir string `yaml:"receipts_dir,omitempty"`
	ArchivePath string `yaml:"archive_path,omitempty"`
	FailuresDir string `yaml:"failures_dir,omitempty"`

	ArchiveExclude []string `yaml:"archive_exclude"`

	HeadOptions []string `yaml:"head_options"`
	BodyOptions []string `yaml:"body_options"`

	Submit  SubmitConfig  `yaml:"submit"`
	Publish PublishConfig `yaml:"publish"`

	Selectors SelectorConfig `yaml:"selectors"`
}

// SubmitConfig bounds the submit/poll loop. Zero values mean no bound.
type SubmitConfig struct {
	MaxAttempts        int `yaml:"max_attempts"`
	MaxDurationSeconds int `yaml:"max_duration_seconds"`
}

type PublishConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	Region   string `yaml:"region"`
}

// SelectorConfig holds the XPath expressions of the order portal.
// BodyCheckbox contains a {n} placeholder for the body option.
type SelectorConfig struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	LoginButton   string `yaml:"login_button"`
	PostLogin     string `yaml:"post_login"`
	HomeLink      string `yaml:"home_link"`
	OrderLink     string `yaml:"order_link"`
	ModalOK       string `yaml:"modal_ok"`
	HeadSelect    string `yaml:"head_select"`
	BodyCheckbox  string `yaml:"body_checkbox"`
	LegsInput     string `yaml:"legs_input"`
	AddressInput  string `yaml:"address_input"`
	PreviewButton string `yaml:"preview_button"`
	SubmitButton  string `yaml:"submit_button"`
	SuccessMarker string `yaml:"success_marker"`
	FailureMarker string `yaml:"failure_marker"`
	Receipt       string `yaml:"receipt"`
	RobotPreview  string `yaml:"robot_preview"`
}

func DefaultConfig() *Config {
	config := baseConfig()
	config.resolveOutputPaths()
	return config
}

// baseConfig holds the defaults with the output paths still unresolved.
func baseConfig() *Config {
	return &Config{
		BaseURL:             "https://robotsparebinindustries.com",
		Environment:         EnvDev,
		DefaultTimeoutMs:    5000,
		VisibilityTimeoutMs: 100,
		SlowMotionMs:        100,
		ScreenshotOnFailure: true,
		Headless:            false,
		BrowserProfilePath:  filepath.Join(getUserDataDir(), "browser-profile"),
		DebugMode:           false,
		Username:            "maria",
		Password:            "thoushallnotpass",
		OrdersPath:          "orders.csv",
		DownloadDir:         ".",
		OutputDir:           "output",
		ArchiveExclude:      []string{"*.png"},
		HeadOptions:         []string{"1", "2", "3", "4", "5", "6"},
		BodyOptions:         []string{"1", "2", "3", "4", "5", "6"},
		Selectors: SelectorConfig{
			Username:      `//input[@id="username"]`,
			Password:      `//input[@id="password"]`,
			LoginButton:   `//button[text()="Log in"]`,
			PostLogin:     `//input[@id="firstname"]`,
			HomeLink:      `//a[text()="Home"]`,
			OrderLink:     `//a[text()="Order your robot!"]`,
			ModalOK:       `//div[@class="modal"]//button[text()="OK"]`,
			HeadSelect:    `//select[@id="head"]`,
			BodyCheckbox:  `//input[@id="id-body-{n}"]`,
			LegsInput:     `//label[text()="3. Legs:"]/following-sibling::input`,
			AddressInput:  `//input[@id="address"]`,
			PreviewButton: `//button[@id="preview"]`,
			SubmitButton:  `//button[@id="order"]`,
			SuccessMarker: `//div[@id="receipt" and contains(@class, "alert-success")]/p[contains(@class, "badge-success")]`,
			FailureMarker: `//div[contains(@class, "alert-danger")]`,
			Receipt:       `//div[@id="receipt"]`,
			RobotPreview:  `//div[@id="robot-preview-image"]`,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := baseConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	config.resolveOutputPaths()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// ApplyEnv overrides credentials, environment and the attempt cap from
// ROBOT_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ROBOT_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("ROBOT_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("ROBOT_ENV"); v != "" {
		c.Environment = Environment(v)
	}
	if v := os.Getenv("ROBOT_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROBOT_MAX_ATTEMPTS must be an integer, got %q", v)
		}
		c.Submit.MaxAttempts = n
	}
	return nil
}

func (c *Config) resolveOutputPaths() {
	if c.ReceiptsDir == "" {
		c.ReceiptsDir = filepath.Join(c.OutputDir, "receipts")
	}
	if c.ArchivePath == "" {
		c.ArchivePath = filepath.Join(c.OutputDir, "receipts.zip")
	}
	if c.FailuresDir == "" {
		c.FailuresDir = filepath.Join(c.OutputDir, "failures")
	}
}

func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDev, EnvTest, EnvProd:
	default:
		return fmt.Errorf("unknown environment %q (want dev, test or prod)", c.Environment)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.DefaultTimeoutMs <= 0 {
		return fmt.Errorf("default_timeout_ms must be positive, got %d", c.DefaultTimeoutMs)
	}
	if c.VisibilityTimeoutMs <= 0 {
		return fmt.Errorf("visibility_timeout_ms must be positive, got %d", c.VisibilityTimeoutMs)
	}
	if c.Submit.MaxAttempts < 0 || c.Submit.MaxDurationSeconds < 0 {
		return fmt.Errorf("submit limits must not be negative")
	}
	if c.ReceiptsDir == "" || c.ArchivePath == "" {
		return fmt.Errorf("receipts_dir and archive_path are required")
	}
	if len(c.BodyOptions) == 0 || len(c.HeadOptions) == 0 {
		return fmt.Errorf("head_options and body_options must not be empty")
	}

	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

func (c *Config) VisibilityTimeout() time.Duration {
	return time.Duration(c.VisibilityTimeoutMs) * time.Millisecond
}

func (c *Config) SlowMotion() time.Duration {
	return time.Duration(c.SlowMotionMs) * time.Millisecond
}

func (c *Config) OrdersURL() string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.BaseURL, "/"), filepath.Base(c.OrdersPath))
}
