package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/ltv-backend/internal/config"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/tier"
)

// Run loads the policy, serves HTTP and gRPC on the configured addresses and
// reloads the policy when its files change. It returns when ctx is cancelled
// and both listeners have shut down, or when either fails.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.HTTPAddr == "" && cfg.GRPCAddr == "" {
		return errors.New("nothing to serve: http_addr and grpc_addr are both empty")
	}
	loader := policy.NewLoader(cfg.PolicyDir)
	engine, err := loader.Load(cfg.PolicyProfile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	srv := New(tier.NewEvaluator(engine), logger)
	logger.Info("policy loaded", "version", engine.Version(), "dir", cfg.PolicyDir, "profile", cfg.PolicyProfile)

	var httpLis, grpcLis net.Listener
	if cfg.HTTPAddr != "" {
		if httpLis, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
	}
	if cfg.GRPCAddr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			if httpLis != nil {
				httpLis.Close()
			}
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.PolicyDir != "" && cfg.ReloadInterval > 0 {
		w := policy.NewWatcher(loader.Paths().Candidates(cfg.PolicyProfile), cfg.ReloadInterval)
		g.Go(func() error {
			return w.Run(ctx, func(path string) {
				reloadPolicy(srv, loader, cfg.PolicyProfile, path, logger)
			})
		})
	}

	if httpLis != nil {
		httpServer := &http.Server{
			Handler:      srv,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http listening", "addr", httpLis.Addr().String())
			if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if grpcLis != nil {
		grpcServer := NewGRPCServer(srv)
		g.Go(func() error {
			logger.Info("grpc listening", "addr", grpcLis.Addr().String())
			if err := grpcServer.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(cfg.ShutdownTimeout):
				grpcServer.Stop()
			}
			return nil
		})
	}

	return g.Wait()
}

// reloadPolicy recompiles the policy after a file change. A broken file keeps
// the previous policy in service.
func reloadPolicy(srv *Server, loader *policy.Loader, profile, path string, logger *slog.Logger) {
	loader.Invalidate()
	engine, err := loader.Load(profile)
	if err != nil {
		logger.Error("policy reload failed, keeping previous policy", "file", path, "error", err)
		return
	}
	srv.SetEvaluator(tier.NewEvaluator(engine))
	logger.Info("policy reloaded", "file", path, "version", engine.Version())
}
