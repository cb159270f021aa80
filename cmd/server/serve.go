package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/api"
	"github.com/soaringjerry/surveyguy/internal/config"
	"github.com/soaringjerry/surveyguy/internal/guard"
	"github.com/soaringjerry/surveyguy/internal/middleware"
	"github.com/soaringjerry/surveyguy/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("close store", zap.Error(cerr))
		}
	}()

	submissionGuard, err := buildGuard(ctx, cfg, log)
	if err != nil {
		return err
	}
	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		log.Warn("session.secret not set; using an ephemeral secret, tokens will not survive a restart")
	}
	signer, err := middleware.NewSessionSigner(secret, cfg.Session.TTL)
	if err != nil {
		return err
	}
	fpKey := cfg.Fingerprint.Key
	if fpKey == "" {
		fpKey = secret
	}

	mux := http.NewServeMux()
	api.NewRouter(api.Options{
		Store:           st,
		Guard:           submissionGuard,
		Sessions:        signer,
		Fingerprint:     middleware.NewFingerprinter(fpKey).Of,
		DuplicateWindow: cfg.Submission.DuplicateWindow,
		Logger:          log,
		Build:           api.BuildInfo{Commit: cfg.Commit, BuildTime: cfg.BuildTime},
	}).Register(mux)
	mountFrontend(mux, cfg, log)

	handler := middleware.Chain(mux,
		middleware.RequestLogger(log),
		middleware.SecureHeaders,
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.LocaleMiddleware,
		middleware.NoStore,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("surveyguy server listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildGuard(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.SubmissionGuard, error) {
	if cfg.Redis.Addr == "" {
		return guard.NewMemory(), nil
	}
	g, err := guard.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	log.Info("duplicate guard backed by redis", zap.String("addr", cfg.Redis.Addr))
	return g, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// mountFrontend serves static files when static_dir is set, otherwise proxies
// to dev_frontend_url when that is set.
func mountFrontend(mux *http.ServeMux, cfg *config.Config, log *zap.Logger) {
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
		return
	}
	if cfg.DevFrontendURL == "" {
		return
	}
	u, err := url.Parse(cfg.DevFrontendURL)
	if err != nil {
		log.Warn("invalid dev_frontend_url", zap.String("url", cfg.DevFrontendURL), zap.Error(err))
		return
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ModifyResponse = func(res *http.Response) error {
		res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		res.Header.Set("Pragma", "no-cache")
		res.Header.Set("Expires", "0")
		return nil
	}
	mux.Handle("/", rp)
}
