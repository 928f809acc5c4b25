package poark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/drivers"
)

const defaultName = "poark"

type envOverrides struct {
	MqttBroker string `env:"POARK_MQTT_BROKER"`
	ClientId   string `env:"POARK_CLIENT_ID"`
	LogLevel   string `env:"POARK_LOG_LEVEL"`
	HttpToken  string `env:"POARK_HTTP_TOKEN"`
}

// LoadConfig reads a JSON config (YAML for .yaml/.yml files) and applies environment overrides.
func LoadConfig(path string) (*Poark, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading config file %s", path)
	}

	pk := &Poark{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(buff, pk)
	default:
		err = json.Unmarshal(buff, pk)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed unmarshalling config %s", path)
	}

	err = pk.ApplyEnv()
	if err != nil {
		return nil, err
	}

	err = pk.ApplyDefaults()
	if err != nil {
		return nil, err
	}

	return pk, nil
}

func (pk *Poark) ApplyEnv() error {
	overrides := envOverrides{}
	err := env.Parse(&overrides)
	if err != nil {
		return errors.Wrap(err, "failed parsing environment")
	}

	if len(overrides.MqttBroker) > 0 {
		pk.MqttBroker = overrides.MqttBroker
	}
	if len(overrides.ClientId) > 0 {
		pk.ClientId = overrides.ClientId
	}
	if len(overrides.LogLevel) > 0 {
		pk.LogLevel = overrides.LogLevel
	}
	if len(overrides.HttpToken) > 0 && pk.Http != nil {
		pk.Http.Token = overrides.HttpToken
	}

	return nil
}

func (pk *Poark) ApplyDefaults() error {
	if len(pk.Name) == 0 {
		pk.Name = defaultName
	}
	if len(pk.ClientId) == 0 {
		pk.ClientId = pk.Name + "-" + uuid.NewString()[:8]
	}

	if len(pk.ModeTopic) == 0 {
		pk.ModeTopic = drivers.DefaultModeTopic
	}
	if len(pk.StateTopic) == 0 {
		pk.StateTopic = drivers.DefaultStateTopic
	}
	if len(pk.ReadingsTopic) == 0 {
		pk.ReadingsTopic = drivers.DefaultReadingsTopic
	}

	if pk.Pins == nil {
		layout := control.DefaultLayout()
		pk.Pins = &layout
	}

	if len(pk.TickInterval) > 0 {
		d, err := time.ParseDuration(pk.TickInterval)
		if err != nil {
			return errors.Wrapf(err, "failed to parse TickInterval (%s)", pk.TickInterval)
		}
		if d <= 0 {
			return errors.Errorf("TickInterval must be positive, got %s", pk.TickInterval)
		}
		pk.Loop.Interval = d
	}

	return nil
}
