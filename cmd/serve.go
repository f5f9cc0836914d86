package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skylark-bi/boardpulse/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for questions and snapshot access",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/snapshots", func(w http.ResponseWriter, req *http.Request) {
			snaps, err := env.Store.ListSnapshots(req.Context(), store.SnapshotFilter{
				BoardID: req.URL.Query().Get("board"),
				Limit:   20,
			})
			if err != nil {
				zap.L().Error("list snapshots failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				return
			}
			writeJSON(w, http.StatusOK, snaps)
		})

		r.Post("/api/ask", func(w http.ResponseWriter, req *http.Request) {
			if err := env.requireAnalyst(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}

			var body struct {
				Question string `json:"question"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Question == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
				return
			}

			snapshots, err := env.Store.LatestSnapshots(req.Context())
			if err != nil || len(snapshots) == 0 {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "no snapshots available; fetch first"})
				return
			}

			answer, err := env.Analyst.Ask(req.Context(), body.Question, snapshots)
			if err != nil {
				zap.L().Error("ask failed", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "analysis failed"})
				return
			}

			if err := env.Store.SaveAnswer(req.Context(), &store.Answer{
				ID:           uuid.New().String(),
				Question:     body.Question,
				Answer:       answer.Text,
				Model:        answer.Model,
				InputTokens:  answer.Usage.InputTokens,
				OutputTokens: answer.Usage.OutputTokens,
				CreatedAt:    time.Now().UTC(),
			}); err != nil {
				zap.L().Warn("save answer failed", zap.Error(err))
			}

			writeJSON(w, http.StatusOK, map[string]string{
				"answer": answer.Text,
				"model":  answer.Model,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Serve.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
