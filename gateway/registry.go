package gateway

import (
	"checkout/config"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	JazzCash         = "jazzcash"
	JazzCashMWallet  = "jazzcash_mwallet"
	Easypaisa        = "easypaisa"
	EasypaisaAccount = "easypaisa_ma"

	EnvSandbox = "sandbox"
	EnvLive    = "live"

	maxReferenceLength = 20
)

// Easypaisa payment methods accepted in the paymentMethod field.
var easypaisaPaymentMethods = map[string]bool{
	"MA_PAYMENT_METHOD":  true,
	"OTC_PAYMENT_METHOD": true,
	"CC_PAYMENT_METHOD":  true,
	"QR_PAYMENT_METHOD":  true,
}

// Registry resolves gateway profiles from the process configuration.
type Registry struct {
	conf *config.Config
}

func NewRegistry(conf *config.Config) *Registry {
	return &Registry{conf: conf}
}

func (r *Registry) Names() []string {
	names := []string{JazzCash, JazzCashMWallet, Easypaisa, EasypaisaAccount}
	sort.Strings(names)
	return names
}

// Resolve returns the profile of gateway name in environment env. An empty env
// falls back to the gateway's configured environment, then to the global one.
// Missing settings fail here rather than defaulting to another environment.
func (r *Registry) Resolve(name, env string) (*Profile, error) {
	if r.conf == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", ErrMissingConfiguration)
	}
	var profile *Profile
	switch name {
	case JazzCash, JazzCashMWallet:
		environment, err := r.environment(env, r.conf.JazzCash.Environment)
		if err != nil {
			return nil, err
		}
		if profile, err = jazzCashProfile(name, environment, r.conf.JazzCash); err != nil {
			return nil, err
		}
	case Easypaisa, EasypaisaAccount:
		environment, err := r.environment(env, r.conf.Easypaisa.Environment)
		if err != nil {
			return nil, err
		}
		if name == EasypaisaAccount {
			profile, err = accountProfile(environment, r.conf.Easypaisa)
		} else {
			profile, err = easypaisaProfile(environment, r.conf.Easypaisa)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	if err := profile.checkRules(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *Registry) environment(values ...string) (string, error) {
	for _, v := range append(values, r.conf.Environment) {
		if v != "" {
			return NormalizeEnvironment(v)
		}
	}
	return "", fmt.Errorf("%w: environment is not set", ErrMissingConfiguration)
}

// NormalizeEnvironment accepts sandbox, live and production (alias of live).
func NormalizeEnvironment(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvSandbox:
		return EnvSandbox, nil
	case EnvLive, "production":
		return EnvLive, nil
	}
	return "", fmt.Errorf("%w: unsupported environment %q", ErrMissingConfiguration, env)
}

func require(settings map[string]string) error {
	var missing []string
	for name, value := range settings {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", "))
}

func pick(env, sandbox, live string) string {
	if env == EnvLive {
		return live
	}
	return sandbox
}

func jazzCashProfile(name, env string, conf config.JazzCash) (*Profile, error) {
	wallet := name == JazzCashMWallet

	endpoint := pick(env, conf.EndpointSandbox, conf.EndpointLive)
	caseSetting := conf.HashCase
	if wallet {
		endpoint = pick(env, conf.WalletEndpointSandbox, conf.WalletEndpointLive)
		caseSetting = conf.RestHashCase
	}
	if err := require(map[string]string{
		"jazzcash.merchant_id":    conf.MerchantID,
		"jazzcash.password":       conf.Password,
		"jazzcash.integrity_salt": conf.IntegritySalt,
		"jazzcash.return_url":     conf.ReturnURL,
		name + ".endpoint":        endpoint,
	}); err != nil {
		return nil, err
	}
	hashCase, err := ParseHashCase(caseSetting)
	if err != nil {
		return nil, err
	}
	expiry := conf.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	version, prefix := "1.1", "pp_"
	order := []string{
		"pp_Version", "pp_TxnType", "pp_Language", "pp_MerchantID", "pp_Password",
		"pp_TxnRefNo", "pp_Amount", "pp_TxnCurrency", "pp_TxnDateTime", "pp_TxnExpiryDateTime",
		"pp_BillReference", "pp_Description", "pp_ReturnURL", "pp_SecureHashType",
	}
	if wallet {
		// REST v2.0 signs every field starting with "pp", including ppmpf_*
		version, prefix = "2.0", "pp"
		order = append(order, "pp_MobileNumber", "pp_CNIC")
	}
	order = append(order, "ppmpf_1", "ppmpf_2", "ppmpf_3", "ppmpf_4", "ppmpf_5")

	return &Profile{
		Name:        name,
		Environment: env,
		Family:      FamilyHMAC,
		Endpoint:    endpoint,
		Order:       order,
		Static: map[string]string{
			"pp_Version":        version,
			"pp_TxnType":        "MWALLET",
			"pp_Language":       "EN",
			"pp_MerchantID":     conf.MerchantID,
			"pp_Password":       conf.Password,
			"pp_TxnCurrency":    "PKR",
			"pp_Description":    conf.Description,
			"pp_ReturnURL":      conf.ReturnURL,
			"pp_SecureHashType": "SHA256",
		},
		TagField:           "pp_SecureHash",
		Prefix:             prefix,
		Case:               hashCase,
		Secret:             conf.IntegritySalt,
		AmountFormat:       AmountMinorUnits,
		MaxReferenceLength: maxReferenceLength,
		Expiry:             expiry,
		RequirePayer:       wallet,
		ReferenceField:     "pp_TxnRefNo",
		ResponseCodeField:  "pp_ResponseCode",
		MessageField:       "pp_ResponseMessage",
		SuccessRules: []SuccessRule{
			{Field: "pp_ResponseCode", Value: "000"},
			{Field: "pp_TxnStatus", Value: "1"},
		},
	}, nil
}

func easypaisaProfile(env string, conf config.Easypaisa) (*Profile, error) {
	endpoint := pick(env, conf.EndpointSandbox, conf.EndpointLive)
	if err := require(map[string]string{
		"easypaisa.store_id":       conf.StoreID,
		"easypaisa.hash_key":       conf.HashKey,
		"easypaisa.return_url":     conf.ReturnURL,
		"easypaisa.endpoint":       endpoint,
		"easypaisa.payment_method": conf.PaymentMethod,
	}); err != nil {
		return nil, err
	}
	if !easypaisaPaymentMethods[conf.PaymentMethod] {
		return nil, fmt.Errorf("%w: easypaisa.payment_method %q is not supported", ErrMissingConfiguration, conf.PaymentMethod)
	}
	if _, err := CipherVariantFor([]byte(conf.HashKey)); err != nil {
		return nil, fmt.Errorf("%w: easypaisa.hash_key: %w", ErrMissingConfiguration, err)
	}
	return &Profile{
		Name:        Easypaisa,
		Environment: env,
		Family:      FamilyCipher,
		Endpoint:    endpoint,
		// order is fixed by the merchant integration guide
		Order: []string{
			"amount", "autoRedirect", "emailAddr", "mobileNum",
			"orderRefNum", "paymentMethod", "postBackURL", "storeId",
		},
		Static: map[string]string{
			"paymentMethod": conf.PaymentMethod,
			"postBackURL":   conf.ReturnURL,
			"storeId":       conf.StoreID,
		},
		TagField:           "merchantHashedReq",
		Secret:             conf.HashKey,
		AmountFormat:       AmountOneDecimal,
		MaxReferenceLength: maxReferenceLength,
		ReferenceField:     "orderRefNum",
		ResponseCodeField:  "status",
		MessageField:       "desc",
		// status and responseCode are outside the digest, and the final redirect
		// carries no digest at all: payment is confirmed with inquire-transaction
		SuccessRules: nil,
	}, nil
}

func accountProfile(env string, conf config.Easypaisa) (*Profile, error) {
	endpoint := pick(env, conf.AccountEndpointSandbox, conf.AccountEndpointLive)
	if err := require(map[string]string{
		"easypaisa.store_id":         conf.StoreID,
		"easypaisa.username":         conf.Username,
		"easypaisa.password":         conf.Password,
		"easypaisa.account_endpoint": endpoint,
	}); err != nil {
		return nil, err
	}
	return &Profile{
		Name:        EasypaisaAccount,
		Environment: env,
		Family:      FamilyAccount,
		Endpoint:    endpoint,
		Order: []string{
			"emailAddress", "mobileAccountNo", "orderId",
			"storeId", "transactionAmount", "transactionType",
		},
		Static: map[string]string{
			"storeId":         conf.StoreID,
			"transactionType": "MA",
		},
		Credentials:        base64.StdEncoding.EncodeToString([]byte(conf.Username + ":" + conf.Password)),
		AmountFormat:       AmountOneDecimal,
		MaxReferenceLength: maxReferenceLength,
		ReferenceField:     "orderId",
		ResponseCodeField:  "responseCode",
		MessageField:       "responseDesc",
	}, nil
}
