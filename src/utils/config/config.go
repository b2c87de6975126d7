package config

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "FAUCET_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// Public REST API address. Claims, recent claims, monitoring and admin endpoints.
	RESTListenAddress string

	// Maximum time the faucet will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database   Database
	Watchtower Watchtower
	Compiler   Compiler
	Claim      Claim
	Reconciler Reconciler
	Webhook    Webhook
	Admin      Admin
	Profiler   Profiler
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("IsDevelopment", "false")
	v.SetDefault("RESTListenAddress", ":8000")
	v.SetDefault("LogLevel", "DEBUG")
	v.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults(v)
	setWatchtowerDefaults(v)
	setCompilerDefaults(v)
	setClaimDefaults(v)
	setReconcilerDefaults(v)
	setWebhookDefaults(v)
	setAdminDefaults(v)
	setProfilerDefaults(v)
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

// Visits every field and registers upper snake case ENV name for it
// Works with embedded structs
func bindEnv(v *viper.Viper, path []string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		key := strings.ToLower(strings.Join(path, "."))
		env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := v.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
		return
	}

	for i := 0; i < val.NumField(); i++ {
		newPath := make([]string, len(path))
		copy(newPath, path)
		newPath = append(newPath, val.Type().Field(i).Name)
		bindEnv(v, newPath, val.Field(i))
	}
}

func decoderConfig(c *mapstructure.DecoderConfig) {
	c.WeaklyTypedInput = true
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	v := viper.New()
	v.SetConfigType("json")

	setDefaults(v)

	bindEnv(v, []string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = v.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = v.Unmarshal(config, decoderConfig)
	if err != nil {
		return nil, err
	}

	return
}
