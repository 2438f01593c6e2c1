package config

import (
	"os"
	"path"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Port          int      `yaml:"port"`
	LogLevel      string   `yaml:"log_level"`
	LogJSON       bool     `yaml:"log_json"`
	StorageEngine string   `yaml:"storage_engine"` // "relational" or "appendlog"
	CommentsDir   string   `yaml:"comments_dir"`   // append-log root directory
	ValidAPIKeys  []string `yaml:"valid_api_keys"` // empty list accepts any key
	Pg            Pg       `yaml:"pg"`
	Mail          Mail     `yaml:"mail"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Mail struct {
	From        string `yaml:"from"`
	SenderName  string `yaml:"sender_name"`
	AdminEmail  string `yaml:"admin_email"`  // empty disables admin notifications
	AdminDomain string `yaml:"admin_domain"` // external base URL used in delete links
	SMTPServer  string `yaml:"smtp_server"`
	SMTPPort    int    `yaml:"smtp_port"`
	Timeout     int    `yaml:"timeout"` // seconds
}

type Private struct {
	HashSecret      string `yaml:"hash_secret"` // keys the admin delete tokens
	RecaptchaSecret string `yaml:"recaptcha_secret"`
	SMTPUsername    string `yaml:"smtp_username"`
	SMTPPassword    string `yaml:"smtp_password"`
}

func (c *Config) HashSecret() string {
	return c.private.HashSecret
}

func (c *Config) RecaptchaSecret() string {
	return c.private.RecaptchaSecret
}

func (c *Config) SMTPCredentials() (username, password string) {
	return c.private.SMTPUsername, c.private.SMTPPassword
}

// NewForTesting builds a Config from already-parsed sections.
func NewForTesting(public Public, private Private) *Config {
	return &Config{public, private}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder.
// Panics on any problem, startup config is not recoverable.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
