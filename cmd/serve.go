package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/techindex-cli/internal/artifact"
	"github.com/sells-group/techindex-cli/internal/model"
	"github.com/sells-group/techindex-cli/internal/store"
)

var (
	servePort   int
	serveNoSink bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the artifacts and tech index over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		dir, err := initDir()
		if err != nil {
			return err
		}

		var st store.Store
		if !serveNoSink {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newAPIRouter(dir, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// techLite is the trimmed list projection of a tech entity.
type techLite struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	AddressKey  string  `json:"addressKey"`
	City        string  `json:"city"`
	Segment     string  `json:"segment"`
	Confidence  float64 `json:"confidence"`
	MatchScore  int     `json:"matchScore"`
	JoinMode    string  `json:"joinMode"`
}

func liteView(entities []model.TechEntity) []techLite {
	out := make([]techLite, 0, len(entities))
	for _, e := range entities {
		out = append(out, techLite{
			ID:          e.ID,
			DisplayName: e.DisplayName,
			AddressKey:  e.AddressKey,
			City:        e.City,
			Segment:     e.Segment.Label,
			Confidence:  e.Segment.Confidence,
			MatchScore:  e.Premise.MatchScore,
			JoinMode:    e.RosterJoin.Mode,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serveArtifact loads the latest artifact for a stage and writes it out.
func serveArtifact[T any](dir *artifact.Dir, stage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var art T
		if err := dir.Load(stage, &art); err != nil {
			if eris.Is(err, artifact.ErrMissingInput) {
				writeError(w, http.StatusNotFound, "artifact not built: "+stage)
				return
			}
			zap.L().Error("serve: load artifact failed", zap.String("stage", stage), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load artifact failed")
			return
		}
		writeJSON(w, http.StatusOK, art)
	}
}

func newAPIRouter(dir *artifact.Dir, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/rollup", serveArtifact[model.RollupArtifact](dir, artifact.StageRollup))
	r.Get("/api/density", serveArtifact[model.DensityArtifact](dir, artifact.StageDensity))
	r.Get("/api/facilities", serveArtifact[model.FacilityArtifact](dir, artifact.StageFacility))

	r.Get("/api/tech", func(w http.ResponseWriter, req *http.Request) {
		var art model.TechArtifact
		if err := dir.Load(artifact.StageTech, &art); err != nil {
			if eris.Is(err, artifact.ErrMissingInput) {
				writeError(w, http.StatusNotFound, "artifact not built: tech")
				return
			}
			zap.L().Error("serve: load tech artifact failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load artifact failed")
			return
		}
		if req.URL.Query().Get("view") == "lite" {
			writeJSON(w, http.StatusOK, map[string]any{
				"tech":   liteView(art.Tech),
				"counts": art.Counts,
			})
			return
		}
		writeJSON(w, http.StatusOK, art)
	})

	r.Get("/api/tech/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")

		// The sink serves point lookups without scanning the artifact.
		if st != nil {
			e, err := st.GetTechEntity(req.Context(), id)
			if err != nil {
				zap.L().Error("serve: store lookup failed", zap.String("id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "store lookup failed")
				return
			}
			if e == nil {
				writeError(w, http.StatusNotFound, "tech entity not found: "+id)
				return
			}
			writeJSON(w, http.StatusOK, e)
			return
		}

		var art model.TechArtifact
		if err := dir.Load(artifact.StageTech, &art); err != nil {
			writeError(w, http.StatusNotFound, "tech entity not found: "+id)
			return
		}
		for i := range art.Tech {
			if art.Tech[i].ID == id {
				writeJSON(w, http.StatusOK, art.Tech[i])
				return
			}
		}
		writeError(w, http.StatusNotFound, "tech entity not found: "+id)
	})

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoSink, "no-sink", false, "serve artifacts only, no store")
	rootCmd.AddCommand(serveCmd)
}
