package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
environment: sandbox
listen:
  port: "8080"
jazzcash:
  merchant_id: MC12345
  integrity_salt: from-file
  expiry: 30m
easypaisa:
  store_id: "43223"
  hash_key: 0123456789abcdef
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(testYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("JAZZCASH_INTEGRITY_SALT", "from-env")

	conf, err := Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if conf.Environment != "sandbox" || conf.Listen.Port != "8080" {
		t.Errorf("file values: %q %q", conf.Environment, conf.Listen.Port)
	}
	if conf.JazzCash.IntegritySalt != "from-env" {
		t.Errorf("environment did not override file: %q", conf.JazzCash.IntegritySalt)
	}
	if conf.JazzCash.Expiry != 30*time.Minute {
		t.Errorf("expiry = %v", conf.JazzCash.Expiry)
	}
	if conf.Easypaisa.HashKey != "0123456789abcdef" || conf.Easypaisa.StoreID != "43223" {
		t.Errorf("easypaisa = %+v", conf.Easypaisa)
	}
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if conf.Upstream.Timeout != 20*time.Second {
		t.Errorf("upstream timeout = %v", conf.Upstream.Timeout)
	}
	if conf.JazzCash.HashCase != "lower" || conf.JazzCash.RestHashCase != "upper" {
		t.Errorf("hash case = %q %q", conf.JazzCash.HashCase, conf.JazzCash.RestHashCase)
	}
	if conf.JazzCash.Description != "Order payment" {
		t.Errorf("description = %q", conf.JazzCash.Description)
	}
	if conf.Easypaisa.PaymentMethod != "CC_PAYMENT_METHOD" {
		t.Errorf("payment method = %q", conf.Easypaisa.PaymentMethod)
	}
	if conf.JazzCash.EndpointSandbox == "" || conf.Easypaisa.AccountEndpointSandbox == "" {
		t.Error("sandbox endpoints have no default")
	}
	if conf.JazzCash.WalletEndpointLive != "" {
		t.Error("live wallet endpoint must be configured explicitly")
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("PAYMENT_ENVIRONMENT", "live")
	t.Setenv("EASYPAY_STORE_ID", "777")

	conf, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Environment != "live" || conf.Easypaisa.StoreID != "777" {
		t.Errorf("env config = %q %q", conf.Environment, conf.Easypaisa.StoreID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("missing file accepted")
	}
}
