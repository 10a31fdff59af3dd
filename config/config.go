// Package config provides configuration management for the checkout signing service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"sync"
	"time"
)

// Config holds all configuration for the checkout service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug bool `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	// Environment is the default gateway environment: sandbox or live.
	// There is no default; a deployment must choose.
	Environment string `yaml:"environment" env:"PAYMENT_ENVIRONMENT" env-default:""`
	CorsOrigin  string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"http://localhost:5173"`
	Log         struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"log"`
	Listen struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"3001"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"checkout"`
	} `yaml:"mongo"`
	Upstream struct {
		Timeout time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"20s"`
	} `yaml:"upstream"`
	JazzCash  JazzCash  `yaml:"jazzcash"`
	Easypaisa Easypaisa `yaml:"easypaisa"`
}

// JazzCash holds merchant credentials and endpoints of the HMAC gateway family.
type JazzCash struct {
	// Environment overrides Config.Environment for this gateway
	Environment   string `yaml:"environment" env:"JAZZCASH_ENVIRONMENT" env-default:""`
	MerchantID    string `yaml:"merchant_id" env:"JAZZCASH_MERCHANT_ID" env-default:""`
	Password      string `yaml:"password" env:"JAZZCASH_PASSWORD" env-default:""`
	IntegritySalt string `yaml:"integrity_salt" env:"JAZZCASH_INTEGRITY_SALT" env-default:""`
	ReturnURL     string `yaml:"return_url" env:"JAZZCASH_RETURN_URL" env-default:""`
	// HashCase is the hex casing of pp_SecureHash on the hosted form: lower or upper
	HashCase string `yaml:"hash_case" env:"JAZZCASH_HASH_CASE" env-default:"lower"`
	// RestHashCase is the hex casing used by the MWALLET REST API
	RestHashCase string        `yaml:"rest_hash_case" env:"JAZZCASH_REST_HASH_CASE" env-default:"upper"`
	Description  string        `yaml:"description" env:"JAZZCASH_DESCRIPTION" env-default:"Order payment"`
	Expiry       time.Duration `yaml:"expiry" env:"JAZZCASH_EXPIRY" env-default:"1h"`

	EndpointSandbox       string `yaml:"endpoint_sandbox" env:"JAZZCASH_ENDPOINT_SANDBOX" env-default:"https://sandbox.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform"`
	EndpointLive          string `yaml:"endpoint_live" env:"JAZZCASH_ENDPOINT_LIVE" env-default:"https://payments.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform"`
	WalletEndpointSandbox string `yaml:"wallet_endpoint_sandbox" env:"JAZZCASH_WALLET_ENDPOINT_SANDBOX" env-default:"https://sandbox.jazzcash.com.pk/ApplicationAPI/API/2.0/Purchase/DoMWalletTransaction"`
	// WalletEndpointLive is shared by JazzCash after merchant approval
	WalletEndpointLive string `yaml:"wallet_endpoint_live" env:"JAZZCASH_WALLET_ENDPOINT_LIVE" env-default:""`
}

// Easypaisa holds store credentials and endpoints of the block-cipher gateway family.
type Easypaisa struct {
	Environment string `yaml:"environment" env:"EASYPAY_ENVIRONMENT" env-default:""`
	StoreID     string `yaml:"store_id" env:"EASYPAY_STORE_ID" env-default:""`
	// HashKey must be 16, 24 or 32 bytes
	HashKey       string `yaml:"hash_key" env:"EASYPAY_HASH_KEY" env-default:""`
	ReturnURL     string `yaml:"return_url" env:"EASYPAY_RETURN_URL" env-default:""`
	PaymentMethod string `yaml:"payment_method" env:"EASYPAY_PAYMENT_METHOD" env-default:"CC_PAYMENT_METHOD"`
	// Username and Password are the OpenAPI credentials of the MA REST API
	Username string `yaml:"username" env:"EASYPAY_USERNAME" env-default:""`
	Password string `yaml:"password" env:"EASYPAY_PASSWORD" env-default:""`

	EndpointSandbox        string `yaml:"endpoint_sandbox" env:"EASYPAY_INDEX_SANDBOX" env-default:"https://easypaystg.easypaisa.com.pk/easypay/Index.jsf"`
	EndpointLive           string `yaml:"endpoint_live" env:"EASYPAY_INDEX_LIVE" env-default:"https://easypay.easypaisa.com.pk/easypay/Index.jsf"`
	AccountEndpointSandbox string `yaml:"account_endpoint_sandbox" env:"EASYPAY_MA_SANDBOX" env-default:"https://easypaystg.easypaisa.com.pk/easypay-service/rest/v4/initiate-ma-transaction"`
	AccountEndpointLive    string `yaml:"account_endpoint_live" env:"EASYPAY_MA_LIVE" env-default:"https://easypay.easypaisa.com.pk/easypay-service/rest/v4/initiate-ma-transaction"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path once per process.
// Later calls return the first result.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance, err = Load(path)
	})
	if err == nil && instance == nil {
		err = fmt.Errorf("load config: not loaded")
	}
	return instance, err
}

// Load reads a fresh configuration. An empty path reads environment variables only.
func Load(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(conf)
	} else {
		err = cleanenv.ReadConfig(path, conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	return conf, nil
}
