// Package main is the entry point for the collateral engine service, an
// HTTP facade over the accounting core: collateral deposits, debt
// issuance, redemption, burning and liquidation, backed by oracle
// valuation and a price circuit breaker.
package main

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/collateral-engine/internal/circuitbreaker"
	"github.com/yourorg/collateral-engine/internal/config"
	"github.com/yourorg/collateral-engine/internal/engine"
	"github.com/yourorg/collateral-engine/internal/events"
	"github.com/yourorg/collateral-engine/internal/feed"
	"github.com/yourorg/collateral-engine/internal/journal"
	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/oracle"
	obs "github.com/yourorg/collateral-engine/internal/otel"
	"github.com/yourorg/collateral-engine/internal/token"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// defaultEngineAddress is the custody identity used when none is configured.
const defaultEngineAddress = "0x0000000000000000000000000000000000000c0e"

// Server hosts the HTTP API over the accounting engine.
type Server struct {
	cfg    config.Config
	engine *engine.Engine

	// In-process token ledgers standing in for external token contracts.
	collateralTokens map[model.Asset]*token.Token
	debtToken        *token.Token
	engineAddr       common.Address

	recorder *events.Recorder
	exporter *events.Exporter
	journal  *journal.Journal

	rateLimit *rate.Limiter
	server    *http.Server
}

func main() {
	setupLogging()

	cfg := config.Load()

	shutdownTracing := obs.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracing()

	server, err := NewServer(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize server: %v", err)
	}
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// NewServer wires the feed registry, token ledgers, event pipeline,
// journal and the engine itself from configuration.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	if len(cfg.Assets) == 0 {
		logrus.Fatal("No collateral assets configured; set ASSETS")
	}

	registry, err := feed.BuildRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engineAddr := common.HexToAddress(getEnvOrDefault("ENGINE_ADDRESS", defaultEngineAddress))

	// One in-process token per collateral type plus the debt unit. The
	// engine is the debt unit's sole minter.
	debtToken := token.New("USDU")
	debtToken.SetMinter(engineAddr)

	assets := registry.Assets()
	collateralTokens := make(map[model.Asset]*token.Token, len(assets))
	feeds := make([]oracle.PriceFeed, 0, len(assets))
	bound := make([]engine.CollateralToken, 0, len(assets))
	for _, asset := range assets {
		f, _ := registry.Feed(asset)
		feeds = append(feeds, f)
		t := token.New(string(asset))
		collateralTokens[asset] = t
		bound = append(bound, t.Bind(engineAddr))
	}

	recorder := events.NewRecorder(cfg.EventHistory)
	var exporter *events.Exporter
	if cfg.WebhookURL != "" {
		exporter = events.NewExporter(events.ExporterConfig{
			WebhookURL: cfg.WebhookURL,
			APIKey:     cfg.WebhookAPIKey,
			Interval:   cfg.ExportInterval,
		})
		recorder = recorder.WithExporter(exporter)
		logrus.Infof("Event export enabled to %s every %s", cfg.WebhookURL, cfg.ExportInterval)
	}

	var opJournal *journal.Journal
	if cfg.JournalPath != "" {
		opJournal, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Operation journal at %s", cfg.JournalPath)
	}

	eng, err := engine.New(ctx, engine.Params{
		Address:                 engineAddr,
		Assets:                  assets,
		Feeds:                   feeds,
		Tokens:                  bound,
		DebtToken:               debtToken.Bind(engineAddr),
		LiquidationThresholdBps: cfg.LiquidationThresholdBps,
		LiquidationBonusBps:     cfg.LiquidationBonusBps,
		DepositFeeBps:           cfg.DepositFeeBps,
		StalenessTimeout:        cfg.StalenessTimeout,
		AllowedDropBps:          cfg.AllowedDropBps,
		Cooldown:                cfg.Cooldown,
		Events:                  recorder,
		Journal:                 opJournal,
		Registry:                prometheus.DefaultRegisterer,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"port":            cfg.Port,
		"assets":          len(assets),
		"threshold_bps":   cfg.LiquidationThresholdBps,
		"bonus_bps":       cfg.LiquidationBonusBps,
		"deposit_fee_bps": cfg.DepositFeeBps,
		"dev_faucet":      cfg.DevFaucet,
	}).Info("Server initialized")

	return &Server{
		cfg:              cfg,
		engine:           eng,
		collateralTokens: collateralTokens,
		debtToken:        debtToken,
		engineAddr:       engineAddr,
		recorder:         recorder,
		exporter:         exporter,
		journal:          opJournal,
		rateLimit:        rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}, nil
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/deposit", s.op("deposit", s.handleDeposit))
	mux.HandleFunc("/mint", s.op("mint", s.handleMint))
	mux.HandleFunc("/deposit-and-mint", s.op("deposit_and_mint", s.handleDepositAndMint))
	mux.HandleFunc("/redeem", s.op("redeem", s.handleRedeem))
	mux.HandleFunc("/burn", s.op("burn", s.handleBurn))
	mux.HandleFunc("/redeem-and-burn", s.op("redeem_and_burn", s.handleRedeemAndBurn))
	mux.HandleFunc("/liquidate", s.op("liquidate", s.handleLiquidate))

	mux.HandleFunc("/account", s.handleAccount)
	mux.HandleFunc("/value", s.handleValue)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	if s.cfg.DevFaucet {
		logrus.Warn("Dev faucet enabled; do not expose this instance publicly")
		mux.HandleFunc("/faucet", s.op("faucet", s.handleFaucet))
	}

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	if s.exporter != nil {
		s.exporter.Stop()
	}
	if s.journal != nil {
		_ = s.journal.Close()
	}

	logrus.Info("Server stopped")
}

// op wraps a state-changing handler with method checking, rate limiting
// and a trace span.
func (s *Server) op(name string, handler func(ctx context.Context, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !s.rateLimit.Allow() {
			s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		ctx, span := obs.Tracer().Start(r.Context(), name)
		defer span.End()

		if err := handler(ctx, r); err != nil {
			obs.RecordError(ctx, err)
			s.errorResponse(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type depositRequest struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

func (s *Server) handleDeposit(ctx context.Context, r *http.Request) error {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	return s.engine.Deposit(ctx, account, model.Asset(req.Asset), amount)
}

type mintRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

func (s *Server) handleMint(ctx context.Context, r *http.Request) error {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	return s.engine.Mint(ctx, account, amount)
}

type compositeRequest struct {
	Account          string `json:"account"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateral_amount"`
	DebtAmount       string `json:"debt_amount"`
}

func (s *Server) handleDepositAndMint(ctx context.Context, r *http.Request) error {
	var req compositeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	collateral, err := parseAmount(req.CollateralAmount)
	if err != nil {
		return err
	}
	debt, err := parseAmount(req.DebtAmount)
	if err != nil {
		return err
	}
	return s.engine.DepositAndMint(ctx, account, model.Asset(req.Asset), collateral, debt)
}

func (s *Server) handleRedeem(ctx context.Context, r *http.Request) error {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	return s.engine.Redeem(ctx, account, model.Asset(req.Asset), amount)
}

func (s *Server) handleBurn(ctx context.Context, r *http.Request) error {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	return s.engine.Burn(ctx, account, amount)
}

func (s *Server) handleRedeemAndBurn(ctx context.Context, r *http.Request) error {
	var req compositeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	collateral, err := parseAmount(req.CollateralAmount)
	if err != nil {
		return err
	}
	debt, err := parseAmount(req.DebtAmount)
	if err != nil {
		return err
	}
	return s.engine.RedeemAndBurn(ctx, account, model.Asset(req.Asset), collateral, debt)
}

type liquidateRequest struct {
	Liquidator  string `json:"liquidator"`
	Target      string `json:"target"`
	Asset       string `json:"asset"`
	DebtToCover string `json:"debt_to_cover"`
}

func (s *Server) handleLiquidate(ctx context.Context, r *http.Request) error {
	var req liquidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	liquidator, err := parseAddress(req.Liquidator)
	if err != nil {
		return err
	}
	target, err := parseAddress(req.Target)
	if err != nil {
		return err
	}
	cover, err := parseAmount(req.DebtToCover)
	if err != nil {
		return err
	}
	return s.engine.Liquidate(ctx, liquidator, target, model.Asset(req.Asset), cover)
}

// handleFaucet mints collateral tokens into an account's wallet and grants
// the engine an unbounded allowance. Dev mode only.
func (s *Server) handleFaucet(ctx context.Context, r *http.Request) error {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest("invalid request body")
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	t, ok := s.collateralTokens[model.Asset(req.Asset)]
	if !ok {
		return errBadRequest("unknown asset " + req.Asset)
	}
	if err := t.Mint(account, account, amount); err != nil {
		return err
	}
	unlimited := new(big.Int).Lsh(big.NewInt(1), 255)
	t.Approve(account, s.engineAddr, unlimited)
	s.debtToken.Approve(account, s.engineAddr, unlimited)
	logrus.Infof("Faucet minted %s %s to %s", amount, req.Asset, account.Hex())
	return nil
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(r.URL.Query().Get("address"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.engine.AccountInformation(r.Context(), account)
	if err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}

	collateral := make(map[string]string, len(info.Collateral))
	for asset, amount := range info.Collateral {
		collateral[string(asset)] = amount.String()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":              info.Account.Hex(),
		"collateral":           collateral,
		"collateral_value_usd": info.CollateralValueUSD.String(),
		"debt":                 info.Debt.String(),
		"health_factor":        info.HealthFactor.String(),
	})
}

// handleValue converts between token amounts and USD value at the current
// oracle price. Pass amount for token->USD or usd for USD->token.
func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	asset := model.Asset(r.URL.Query().Get("asset"))

	if raw := r.URL.Query().Get("usd"); raw != "" {
		usd, err := parseAmount(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		amount, err := s.engine.TokenAmountFromUSD(r.Context(), asset, usd)
		if err != nil {
			s.errorResponse(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"asset": string(asset), "amount": amount.String()})
		return
	}

	amount, err := parseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := s.engine.USDValue(r.Context(), asset, amount)
	if err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": string(asset), "value_usd": value.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": s.recorder.Recent(limit),
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	breakers := make(map[string]interface{}, len(s.engine.Assets()))
	for _, asset := range s.engine.Assets() {
		state, remaining := s.engine.BreakerState(asset)
		entry := map[string]interface{}{"state": state.String()}
		if state == circuitbreaker.StateFrozen {
			entry["cooldown_remaining"] = remaining.Round(time.Second).String()
		}
		breakers[string(asset)] = entry
	}

	status := map[string]interface{}{
		"status":     "operational",
		"uptime":     time.Since(startTime).String(),
		"assets":     s.engine.Assets(),
		"breakers":   breakers,
		"total_debt": s.engine.TotalDebt().String(),
		"configuration": map[string]interface{}{
			"liquidation_threshold_bps": s.cfg.LiquidationThresholdBps,
			"liquidation_bonus_bps":     s.cfg.LiquidationBonusBps,
			"deposit_fee_bps":           s.cfg.DepositFeeBps,
			"allowed_drop_bps":          s.cfg.AllowedDropBps,
			"breaker_cooldown":          s.cfg.Cooldown.String(),
			"staleness_timeout":         s.cfg.StalenessTimeout.String(),
		},
	}

	if value, err := s.engine.TotalCollateralValueUSD(r.Context()); err == nil {
		status["total_collateral_value_usd"] = value.String()
	}

	writeJSON(w, http.StatusOK, status)
}

// errorResponse sends a JSON error with the given status code.
func (s *Server) errorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	logrus.Warn(errorMsg)
	writeJSON(w, statusCode, map[string]interface{}{
		"status": "error",
		"error":  errorMsg,
	})
}
