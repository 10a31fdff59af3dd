package internal

import (
	"checkout/config"
	"checkout/entity"
	"checkout/gateway"
	"checkout/services"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// Checkout signs outbound payment requests and verifies gateway callbacks.
type Checkout struct {
	conf       *config.Config
	registry   *gateway.Registry
	database   services.Database
	logger     services.LogHandler
	httpClient *http.Client
	now        func() time.Time
}

// NewCheckout creates the service with an HTTP client bounded by the upstream timeout.
func NewCheckout(conf *config.Config) *Checkout {
	timeout := conf.Upstream.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Checkout{
		conf:     conf,
		registry: gateway.NewRegistry(conf),
		logger:   nopLogger{},
		now:      time.Now,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Checkout) SetDatabase(database services.Database) {
	c.database = database
}

func (c *Checkout) SetLogger(logger services.LogHandler) {
	c.logger = logger
}

// GenerateReference returns "T" + YYYYMMDDHHMMSS + 3 random digits (18 characters).
func GenerateReference(now time.Time) string {
	return fmt.Sprintf("T%s%03d", gateway.FormatTimestamp(now), 100+rand.IntN(900))
}

// Init builds and signs the hosted checkout form of gatewayName.
func (c *Checkout) Init(ctx context.Context, gatewayName string, req entity.TransactionRequest) (*entity.SignedPayload, error) {
	reqID := GetRequestID(ctx)

	profile, err := c.hostedProfile(gatewayName)
	if err != nil {
		signaturesTotal.WithLabelValues(metricGateway(gatewayName, err), "config").Inc()
		return nil, err
	}
	payload, err := c.sign(profile, &req)
	if err != nil {
		return nil, err
	}
	c.logger.Info(fmt.Sprintf("[%s] %s init: reference %s; amount %s; endpoint %s",
		reqID, profile.Name, req.Reference, req.Amount.String(), profile.Endpoint))
	return payload, nil
}

// hostedProfile resolves gatewayName, refusing profiles without a hosted checkout.
func (c *Checkout) hostedProfile(gatewayName string) (*gateway.Profile, error) {
	profile, err := c.registry.Resolve(gatewayName, "")
	if err != nil {
		return nil, err
	}
	if profile.Family == gateway.FamilyAccount {
		return nil, fmt.Errorf("%w: %s has no hosted checkout", gateway.ErrUnknownGateway, gatewayName)
	}
	return profile, nil
}

// sign reads the clock once so the transaction and expiry timestamps agree.
func (c *Checkout) sign(profile *gateway.Profile, req *entity.TransactionRequest) (*entity.SignedPayload, error) {
	now := c.now()
	if strings.TrimSpace(req.Reference) == "" {
		req.Reference = GenerateReference(now)
	}
	fields, err := gateway.Build(*req, profile, now)
	if err != nil {
		signaturesTotal.WithLabelValues(profile.Name, "invalid").Inc()
		return nil, err
	}
	payload, err := gateway.Sign(fields, profile)
	if err != nil {
		signaturesTotal.WithLabelValues(profile.Name, "config").Inc()
		return nil, err
	}
	signaturesTotal.WithLabelValues(profile.Name, "ok").Inc()
	return payload, nil
}

// Return verifies a callback before anything else observes it and journals the result.
func (c *Checkout) Return(ctx context.Context, gatewayName string, inbound *entity.FieldSet) (*gateway.Outcome, error) {
	reqID := GetRequestID(ctx)

	profile, err := c.hostedProfile(gatewayName)
	if err != nil {
		return nil, err
	}
	outcome := gateway.Verify(inbound, profile)
	countCallback(profile.Name, outcome.Authentic(), outcome.Approved())

	if !outcome.Authentic() {
		c.logger.Warn(fmt.Sprintf("[%s] %s return: verification failed for reference %s; %v",
			reqID, profile.Name, outcome.Reference(), outcome.Err()))
	} else {
		c.logger.Info(fmt.Sprintf("[%s] %s return: reference %s; code %s; approved %v",
			reqID, profile.Name, outcome.Reference(), outcome.ResponseCode(), outcome.Approved()))
	}

	if c.database != nil {
		record := &entity.CallbackRecord{
			Gateway:      profile.Name,
			Reference:    outcome.Reference(),
			Authentic:    outcome.Authentic(),
			Approved:     outcome.Approved(),
			ResponseCode: outcome.ResponseCode(),
			Message:      outcome.Message(),
			Fields:       inbound.Without(profile.TagField).Map(),
			ReceivedAt:   c.now(),
		}
		if err := c.database.SaveCallback(ctx, record); err != nil {
			c.logger.Error(fmt.Sprintf("[%s] save callback", reqID), err)
		}
	}
	return outcome, nil
}

// InitiateWallet runs a JazzCash MWALLET transaction through the REST API.
// The response is verified with the same profile; OK requires an authentic approval.
func (c *Checkout) InitiateWallet(ctx context.Context, req entity.TransactionRequest) (*entity.InitiateResult, error) {
	reqID := GetRequestID(ctx)

	profile, err := c.registry.Resolve(gateway.JazzCashMWallet, "")
	if err != nil {
		return nil, err
	}
	payload, err := c.sign(profile, &req)
	if err != nil {
		return nil, err
	}

	form := payload.Fields.Values().Encode()
	body, err := c.post(ctx, profile.Name, payload.Endpoint, "application/x-www-form-urlencoded", []byte(form), nil)
	if err != nil {
		c.logger.Error(fmt.Sprintf("[%s] %s initiate %s", reqID, profile.Name, req.Reference), err)
		return nil, err
	}

	var response entity.FieldSet
	if err = json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", gateway.ErrUpstreamRequestFailed, profile.Name, err)
	}
	outcome := gateway.Verify(&response, profile)
	c.logger.Info(fmt.Sprintf("[%s] %s initiate: reference %s; code %s; authentic %v",
		reqID, profile.Name, req.Reference, outcome.ResponseCode(), outcome.Authentic()))

	return &entity.InitiateResult{
		OK:        outcome.Approved(),
		Authentic: outcome.Authentic(),
		Request: entity.InitiateEcho{
			Reference: req.Reference,
			Amount:    payload.Fields.Value("pp_Amount"),
			Mobile:    req.MobileNumber,
		},
		Response: body,
	}, nil
}

// InitiateMobileAccount runs an Easypaisa MA transaction. This API authenticates
// with OpenAPI credentials instead of a digest.
func (c *Checkout) InitiateMobileAccount(ctx context.Context, req entity.TransactionRequest) (*entity.InitiateResult, error) {
	reqID := GetRequestID(ctx)

	profile, err := c.registry.Resolve(gateway.EasypaisaAccount, "")
	if err != nil {
		return nil, err
	}
	fields, err := gateway.Build(req, profile, c.now())
	if err != nil {
		return nil, err
	}

	amount := fields.Value("transactionAmount")
	body, err := json.Marshal(entity.MobileAccountRequest{
		EmailAddress:      fields.Value("emailAddress"),
		MobileAccountNo:   fields.Value("mobileAccountNo"),
		OrderID:           fields.Value("orderId"),
		StoreID:           fields.Value("storeId"),
		TransactionAmount: json.Number(amount),
		TransactionType:   fields.Value("transactionType"),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %v", err)
	}

	data, err := c.post(ctx, profile.Name, profile.Endpoint, "application/json", body, map[string]string{"Credentials": profile.Credentials})
	if err != nil {
		c.logger.Error(fmt.Sprintf("[%s] %s initiate %s", reqID, profile.Name, req.Reference), err)
		return nil, err
	}
	var response entity.MobileAccountResponse
	if err = json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", gateway.ErrUpstreamRequestFailed, profile.Name, err)
	}
	c.logger.Info(fmt.Sprintf("[%s] %s initiate: order %s; code %s; mobile %s",
		reqID, profile.Name, req.Reference, response.ResponseCode, secret(req.MobileNumber)))

	return &entity.InitiateResult{
		OK:        response.ResponseCode == "0000",
		Authentic: false,
		Request: entity.InitiateEcho{
			Reference: req.Reference,
			Amount:    amount,
			Mobile:    req.MobileNumber,
		},
		Response: data,
	}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string)        {}
func (nopLogger) Info(string)         {}
func (nopLogger) Warn(string)         {}
func (nopLogger) Error(string, error) {}
