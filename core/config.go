package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	DirectoryConfig struct {
		// Server is the samba host reached over SSH, "host:port".
		Server   string
		User     string
		Password string // SSH password; also answers sudo -S prompts
		Domain   string // NetBIOS name, e.g. "CFA-ELEVES"
		Realm    string // DNS realm, e.g. "cfa-eleves.lan"

		ConnectTimeout time.Duration
		CommandTimeout time.Duration

		DefaultGroup string
		// IgnoredAccounts are system accounts filtered out of every
		// directory listing (compared lowercase).
		IgnoredAccounts []string
	}

	PasswordConfig struct {
		// Mode selects the policy: "initials" (prefix+initials+digits+suffix)
		// or "random" (fixed-length alphanumeric).
		Mode         string
		Prefix       string
		Suffix       string
		DigitLength  int
		RandomLength int
	}

	SyncConfig struct {
		Python     string
		Script     string
		WorkDir    string
		Timeout    time.Duration
		Principal  string
		KeytabPath string
		Krb5Conf   string
	}

	ServerConfig struct {
		Address    string
		AdminToken string
	}

	EmailConfig struct {
		SendgridKey      string
		DefaultFrom      string
		ReportRecipients []string
	}

	Config struct {
		AppName  string
		Env      string
		Debug    bool
		TestMode bool

		// ClassMapping maps raw roster class labels to canonical codes.
		ClassMapping map[string]string

		RosterFile string // scraper JSON dump consumed by services/roster

		Database  DatabaseConfig
		Directory DirectoryConfig
		Password  PasswordConfig
		Sync      SyncConfig
		Server    ServerConfig
		Email     EmailConfig

		RollbarToken string
	}
)

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

// LoadConfig reads configuration once into an immutable Config.
// Defaults first, then an optional config/.env.<env> file, then environment
// variables prefixed with the env name.
func LoadConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "RosterSync")
	conf.SetDefault("rosterFile", "/home/rostersync/data/eleves.json")

	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "3306")
	conf.SetDefault("dbUser", "rostersync")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbName", "rostersync")

	conf.SetDefault("sambaServer", "samba.cfa-eleves.lan:22")
	conf.SetDefault("sambaUser", "admin")
	conf.SetDefault("sambaPassword", "")
	conf.SetDefault("sambaDomain", "CFA-ELEVES")
	conf.SetDefault("sambaRealm", "cfa-eleves.lan")
	conf.SetDefault("sambaConnectTimeout", 30*time.Second)
	conf.SetDefault("sambaCommandTimeout", 30*time.Second)
	conf.SetDefault("defaultGroup", "Eleves")
	conf.SetDefault("ignoredAccounts", []string{"administrator", "guest", "krbtgt"})

	conf.SetDefault("passwordMode", "initials")
	conf.SetDefault("passwordPrefix", "CFA")
	conf.SetDefault("passwordSuffix", "!*")
	conf.SetDefault("passwordDigitLength", 4)
	conf.SetDefault("passwordRandomLength", 8)

	conf.SetDefault("syncPython", "/home/samba-sync-ad/venv/bin/python")
	conf.SetDefault("syncScript", "/home/samba-sync-ad/run_sync.py")
	conf.SetDefault("syncWorkDir", "/home/samba-sync-ad")
	conf.SetDefault("syncTimeout", 120*time.Second)
	conf.SetDefault("syncPrincipal", "")
	conf.SetDefault("syncKeytabPath", "")
	conf.SetDefault("syncKrb5Conf", "")

	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("adminToken", "")

	conf.SetDefault("sendgridKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("reportRecipients", []string{})

	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("classMapping", map[string]string{})

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetDefault("testMode", strings.EqualFold(env, "TEST"))
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		ClassMapping: conf.GetStringMapString("classMapping"),
		RosterFile:   conf.GetString("rosterFile"),
		Database: DatabaseConfig{
			Host:     conf.GetString("dbHost"),
			Port:     conf.GetString("dbPort"),
			User:     conf.GetString("dbUser"),
			Password: conf.GetString("dbPassword"),
			Name:     conf.GetString("dbName"),
		},
		Directory: DirectoryConfig{
			Server:          conf.GetString("sambaServer"),
			User:            conf.GetString("sambaUser"),
			Password:        conf.GetString("sambaPassword"),
			Domain:          conf.GetString("sambaDomain"),
			Realm:           conf.GetString("sambaRealm"),
			ConnectTimeout:  conf.GetDuration("sambaConnectTimeout"),
			CommandTimeout:  conf.GetDuration("sambaCommandTimeout"),
			DefaultGroup:    conf.GetString("defaultGroup"),
			IgnoredAccounts: conf.GetStringSlice("ignoredAccounts"),
		},
		Password: PasswordConfig{
			Mode:         conf.GetString("passwordMode"),
			Prefix:       conf.GetString("passwordPrefix"),
			Suffix:       conf.GetString("passwordSuffix"),
			DigitLength:  conf.GetInt("passwordDigitLength"),
			RandomLength: conf.GetInt("passwordRandomLength"),
		},
		Sync: SyncConfig{
			Python:     conf.GetString("syncPython"),
			Script:     conf.GetString("syncScript"),
			WorkDir:    conf.GetString("syncWorkDir"),
			Timeout:    conf.GetDuration("syncTimeout"),
			Principal:  conf.GetString("syncPrincipal"),
			KeytabPath: conf.GetString("syncKeytabPath"),
			Krb5Conf:   conf.GetString("syncKrb5Conf"),
		},
		Server: ServerConfig{
			Address:    conf.GetString("serverAddress"),
			AdminToken: conf.GetString("adminToken"),
		},
		Email: EmailConfig{
			SendgridKey:      conf.GetString("sendgridKey"),
			DefaultFrom:      conf.GetString("defaultFromEmail"),
			ReportRecipients: conf.GetStringSlice("reportRecipients"),
		},
		RollbarToken: conf.GetString("rollbarToken"),
	}
}
