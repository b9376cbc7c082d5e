package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the client
const EnvPrefix = "CSCC"

// Setting keys, shared by flags and environment variables
const (
	KeyEndpoint  = "endpoint"
	KeyTransport = "transport"
	KeyTimeout   = "timeout"
	KeyAMQPURL   = "amqp-url"
	KeyAMQPQueue = "amqp-queue"
	KeyWorkers   = "workers"
	KeyVerbose   = "verbose"
)

const (
	TransportZMQ  = "zmq"
	TransportAMQP = "amqp"

	DefaultEndpoint = "tcp://localhost:5454"
	DefaultTimeout  = 10 * time.Second
)

// ClientSettings configures how the client reaches the provider
type ClientSettings struct {
	Endpoint  string
	Transport string
	Timeout   time.Duration
	AMQPURL   string
	AMQPQueue string
	Workers   int
	Verbose   int
}

// NewViper returns a viper instance with client defaults and CSCC_* environment lookup
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyTransport, TransportZMQ)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyAMQPQueue, DefaultRequestQueue)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyVerbose, 0)
	return v
}

// RegisterFlags adds the client flags to a flag set
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyEndpoint, DefaultEndpoint, "provider ZeroMQ endpoint")
	flags.String(KeyTransport, TransportZMQ, "provider transport: zmq or amqp")
	flags.Duration(KeyTimeout, DefaultTimeout, "provider request timeout")
	flags.String(KeyAMQPURL, "", "AMQP broker URL")
	flags.String(KeyAMQPQueue, DefaultRequestQueue, "AMQP request queue")
	flags.Int(KeyWorkers, 0, "normalization workers (0 uses all CPUs)")
	flags.IntP(KeyVerbose, "v", 0, "verbosity: 1 debug, 2 raw output, 3 both")
}

// BindFlags lets explicitly set flags override environment and defaults
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyEndpoint, KeyTransport, KeyTimeout, KeyAMQPURL, KeyAMQPQueue, KeyWorkers, KeyVerbose} {
		flag := flags.Lookup(key)
		if flag == nil {
			return errors.Errorf("flag %s is not registered", key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", key)
		}
	}
	return nil
}

// LoadClientSettings reads and validates the client settings
func LoadClientSettings(v *viper.Viper) (ClientSettings, error) {
	s := ClientSettings{
		Endpoint:  strings.TrimSpace(v.GetString(KeyEndpoint)),
		Transport: strings.ToLower(strings.TrimSpace(v.GetString(KeyTransport))),
		Timeout:   v.GetDuration(KeyTimeout),
		AMQPURL:   strings.TrimSpace(v.GetString(KeyAMQPURL)),
		AMQPQueue: strings.TrimSpace(v.GetString(KeyAMQPQueue)),
		Workers:   v.GetInt(KeyWorkers),
		Verbose:   v.GetInt(KeyVerbose),
	}

	switch s.Transport {
	case TransportZMQ:
		if s.Endpoint == "" {
			return s, fmt.Errorf("endpoint is required for the zmq transport")
		}
	case TransportAMQP:
		if s.AMQPURL == "" {
			return s, fmt.Errorf("amqp-url is required for the amqp transport")
		}
		if s.AMQPQueue == "" {
			return s, fmt.Errorf("amqp-queue is required for the amqp transport")
		}
	default:
		return s, fmt.Errorf("transport %s is invalid, must be 'zmq' or 'amqp'", s.Transport)
	}
	if s.Timeout <= 0 {
		return s, fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.Workers < 0 {
		return s, fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Verbose < 0 || s.Verbose > 3 {
		return s, fmt.Errorf("verbose must be between 0 and 3, got %d", s.Verbose)
	}
	return s, nil
}
