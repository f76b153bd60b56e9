package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // planner time zones must resolve on minimal images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		Timezone         string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Planner  PlannerConfig
		Batch    BatchConfig
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3
		Host          string
		Port          string
		Name          string
		QuestionsName string // question bank; defaults to Name
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite3 file (or ":memory:")
	}

	PlannerConfig struct {
		MaxContinuousPerDay   int
		MaxBackPerDay         int
		MaxPerSubjectPerDay   int
		QuestionsPerTopic     int
		QuestionTiers         []string
		AbortOnRetrievalError bool
		AssembleConcurrency   int
	}

	BatchConfig struct {
		MaxRetries  int
		RetryDelay  time.Duration
		Timezone    string
		WeeklyCrons []string
		DailyCron   string
		StreakCron  string
		NextWeek    bool
	}
)

func init() {
	Conf = NewConfig()
}

// NewConfig loads the app configuration from the environment (and `config/.env.<env>` if present).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Revisa")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "Revisa <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("timezone", "Asia/Kolkata")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "revisa")
	v.SetDefault("database.questionsName", "")
	v.SetDefault("database.user", "revisa")
	v.SetDefault("database.password", "revisa")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "revisa.db")

	v.SetDefault("planner.maxContinuousPerDay", 3)
	v.SetDefault("planner.maxBackPerDay", 2)
	v.SetDefault("planner.maxPerSubjectPerDay", 2)
	v.SetDefault("planner.questionsPerTopic", 2)
	v.SetDefault("planner.questionTiers", []string{"jeemains_easy", "neet", "boards", "jeemains", "jeeadvance"})
	v.SetDefault("planner.abortOnRetrievalError", false)
	v.SetDefault("planner.assembleConcurrency", 7)

	v.SetDefault("batch.maxRetries", 3)
	v.SetDefault("batch.retryDelay", 3*time.Minute)
	v.SetDefault("batch.timezone", "UTC")
	v.SetDefault("batch.weeklyCrons", []string{"10 19 * * 4", "12 19 * * 4"})
	v.SetDefault("batch.dailyCron", "30 16 * * *")
	v.SetDefault("batch.streakCron", "12 0 * * *")
	v.SetDefault("batch.nextWeek", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		WorkDir:          wd,
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Timezone:         v.GetString("timezone"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			QuestionsName: v.GetString("database.questionsName"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Planner: PlannerConfig{
			MaxContinuousPerDay:   v.GetInt("planner.maxContinuousPerDay"),
			MaxBackPerDay:         v.GetInt("planner.maxBackPerDay"),
			MaxPerSubjectPerDay:   v.GetInt("planner.maxPerSubjectPerDay"),
			QuestionsPerTopic:     v.GetInt("planner.questionsPerTopic"),
			QuestionTiers:         v.GetStringSlice("planner.questionTiers"),
			AbortOnRetrievalError: v.GetBool("planner.abortOnRetrievalError"),
			AssembleConcurrency:   v.GetInt("planner.assembleConcurrency"),
		},
		Batch: BatchConfig{
			MaxRetries:  v.GetInt("batch.maxRetries"),
			RetryDelay:  v.GetDuration("batch.retryDelay"),
			Timezone:    v.GetString("batch.timezone"),
			WeeklyCrons: v.GetStringSlice("batch.weeklyCrons"),
			DailyCron:   v.GetString("batch.dailyCron"),
			StreakCron:  v.GetString("batch.streakCron"),
			NextWeek:    v.GetBool("batch.nextWeek"),
		},
	}
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// Location returns the reference time zone used for every planner date computation.
func (conf *Config) Location() *time.Location {
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Fatalf("config.Location(%s): %v", conf.Timezone, err)
	}
	return loc
}

func (conf *Config) BatchLocation() *time.Location {
	loc, err := time.LoadLocation(conf.Batch.Timezone)
	if err != nil {
		log.Fatalf("config.BatchLocation(%s): %v", conf.Batch.Timezone, err)
	}
	return loc
}

func (dbConf DatabaseConfig) Address() string {
	return net.JoinHostPort(dbConf.Host, dbConf.Port)
}

func (dbConf DatabaseConfig) QuestionBankName() string {
	if dbConf.QuestionsName != "" {
		return dbConf.QuestionsName
	}
	return dbConf.Name
}
