package internal

import (
	"bytes"
	"checkout/config"
	"checkout/entity"
	"checkout/gateway"
	"checkout/services"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"io"
	"net"
	"net/http"
	"strings"
)

const (
	hostedInit      = "/api/payment/:gateway/hosted/init"
	hostedReturn    = "/api/payment/:gateway/hosted/return"
	walletInitiate  = "/api/payment/jazzcash/rest/initiate"
	accountInitiate = "/api/payment/easypaisa/rest/initiate"
	healthCheck     = "/health"
	metricsPath     = "/metrics"

	maxBodySize = 1 << 20
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	checkout   services.Checkout
	logger     services.LogHandler
}

type errorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf:   conf,
		logger: nopLogger{},
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: server.cors(router),
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(hostedInit, s.hostedInit)
	router.POST(hostedReturn, s.hostedReturn)
	router.GET(hostedReturn, s.hostedReturn)
	router.POST(walletInitiate, s.walletInitiate)
	router.POST(accountInitiate, s.accountInitiate)
	router.GET(healthCheck, s.health)
	router.Handler(http.MethodGet, metricsPath, promhttp.Handler())
}

func (s *Server) SetCheckout(checkout services.Checkout) {
	s.checkout = checkout
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.conf != nil && origin == s.conf.CorsOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) hostedInit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var req entity.TransactionRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] hosted init: decode request body; %v", reqID, err))
		s.writeError(w, fmt.Errorf("%w: request body: %v", gateway.ErrInvalidField, err))
		return
	}

	payload, err := s.checkout.Init(ctx, ps.ByName("gateway"), req)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] hosted init %s: %v", reqID, ps.ByName("gateway"), err))
		s.writeError(w, err)
		return
	}

	if accepts(r, "text/html") {
		var page bytes.Buffer
		if err = RenderRedirectForm(&page, payload); err != nil {
			s.logger.Error(fmt.Sprintf("[%s] hosted init: render form", reqID), err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page.Bytes())
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) hostedReturn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] hosted return: parse form; %v", reqID, err))
		s.writeError(w, fmt.Errorf("%w: form: %v", gateway.ErrInvalidField, err))
		return
	}

	outcome, err := s.checkout.Return(ctx, ps.ByName("gateway"), entity.FieldSetFromValues(r.Form))
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] hosted return %s: %v", reqID, ps.ByName("gateway"), err))
		s.writeError(w, err)
		return
	}

	if accepts(r, "application/json") {
		s.writeJSON(w, http.StatusOK, outcome)
		return
	}
	var page bytes.Buffer
	if err = RenderOutcome(&page, outcome); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] hosted return: render page", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page.Bytes())
}

func (s *Server) walletInitiate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.initiate(w, r, "jazzcash", s.checkout.InitiateWallet)
}

func (s *Server) accountInitiate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.initiate(w, r, "easypaisa", s.checkout.InitiateMobileAccount)
}

type initiateFunc func(ctx context.Context, req entity.TransactionRequest) (*entity.InitiateResult, error)

func (s *Server) initiate(w http.ResponseWriter, r *http.Request, name string, run initiateFunc) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var req entity.TransactionRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] %s initiate: decode request body; %v", reqID, name, err))
		s.writeError(w, fmt.Errorf("%w: request body: %v", gateway.ErrInvalidField, err))
		return
	}

	result, err := run(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty body")
	}
	return json.Unmarshal(body, v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusOf(err), errorResponse{
		OK:        false,
		Error:     gateway.Code(err),
		Message:   err.Error(),
		Retryable: gateway.IsRetryable(err),
	})
}

func statusOf(err error) int {
	switch {
	case gateway.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrUnknownGateway):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case gateway.IsRetryable(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func accepts(r *http.Request, mediaType string) bool {
	return strings.Contains(r.Header.Get("Accept"), mediaType)
}
