package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/batch"
	"github.com/sells-group/leadbio-cli/internal/config"
	"github.com/sells-group/leadbio-cli/internal/model"
)

const shutdownTimeout = 30 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bio generation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(env.Pipeline, env.Processor, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.Bool("offline", offline))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// leadRunner runs the single-lead pipeline.
type leadRunner interface {
	Run(ctx context.Context, lead model.Lead) model.LeadResult
}

// batchRunner processes a parsed batch table.
type batchRunner interface {
	Run(ctx context.Context, rows [][]string) (*batch.Result, error)
}

type bioRequest struct {
	First   string `json:"first" validate:"required,max=100"`
	Last    string `json:"last" validate:"max=100"`
	Company string `json:"company" validate:"required,max=200"`
}

type server struct {
	leads     leadRunner
	batches   batchRunner
	validate  *validator.Validate
	maxUpload int64
}

// buildRouter wires the HTTP routes. It is separate from serveCmd so tests
// can drive it without a listener.
func buildRouter(leads leadRunner, batches batchRunner, sc config.ServerConfig) http.Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	maxMB := sc.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	s := &server{
		leads:     leads,
		batches:   batches,
		validate:  v,
		maxUpload: int64(maxMB) << 20,
	}

	origins := sc.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/generate_bio", s.generateBio)
	r.Post("/generate_batch_bio", s.generateBatchBio)
	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) generateBio(w http.ResponseWriter, r *http.Request) {
	var req bioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.First = strings.TrimSpace(req.First)
	req.Last = strings.TrimSpace(req.Last)
	req.Company = strings.TrimSpace(req.Company)

	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	lead := model.Lead{FirstName: req.First, LastName: req.Last, Company: req.Company}
	result := s.leads.Run(r.Context(), lead)
	if result.Failed() {
		zap.L().Warn("generate_bio failed",
			zap.String("name", result.Name),
			zap.String("company", result.Company),
			zap.String("error", result.Error),
		)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   result.Error,
			"name":    result.Name,
			"company": result.Company,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.LeadResult{"output": result})
}

func (s *server) generateBatchBio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	rows, err := batch.ReadTable(hdr.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.batches.Run(r.Context(), rows)
	if err != nil {
		if batch.IsInputError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.L().Error("generate_batch_bio failed", zap.String("file", hdr.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "batch processing failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
