package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skypanel/auth"
	"skypanel/config"
	"skypanel/daemon"
	"skypanel/deploy"
	"skypanel/handler"
	"skypanel/model"
	"skypanel/probe"
	"skypanel/reconcile"
	"skypanel/store"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := store.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatalf("migration: %v", err)
	}

	st := store.New(db)

	if cfg.ImagesFile != "" {
		if err := seedImages(st, cfg.ImagesFile); err != nil {
			log.Printf("WARNING: image catalog seed: %v", err)
		}
	}

	// Node daemon client
	nodes := daemon.New(nil)

	guard := auth.NewGuard(st)
	orchestrator := deploy.New(st, nodes)
	reconciler := reconcile.New(st, nodes)
	nodeProbe := probe.New(st, nodes)

	h := handler.New(st, nodes, guard, orchestrator, reconciler, nodeProbe, cfg)

	// Background loops
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if cfg.PollInterval > 0 {
		poller := &reconcile.Poller{Reconciler: reconciler, Interval: cfg.PollInterval}
		go poller.Run(bgCtx)
		log.Printf("state reconciliation sweep every %s", cfg.PollInterval)
	}
	if cfg.ProbeInterval > 0 {
		go nodeProbe.Run(bgCtx, cfg.ProbeInterval)
		log.Printf("node health probe every %s", cfg.ProbeInterval)
	}

	// Router
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if cfg.AllowedOrigins != "" {
		for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "x-api-key", "x-user-id"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.APIKeyMiddleware(st))

		r.Get("/health", h.Health)
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"version": Version})
		})
		r.Get("/name", h.PanelName)
		r.Get("/images", h.ListImages)

		r.Get("/users", h.ListUsers)
		r.Post("/getUser", h.GetUser)
		r.Post("/auth/create-user", h.CreateUser)

		r.Get("/instances", h.ListInstances)
		r.Post("/getInstance", h.GetInstance)
		r.Post("/getUserInstance", h.GetUserInstances)
		r.Post("/instances/deploy", h.Deploy)
		r.Delete("/instance/delete", h.DeleteInstance)
		r.Get("/instances/suspend", h.Suspend)
		r.Get("/instances/unsuspend", h.Unsuspend)

		r.Post("/instance/action/{power}/{id}", h.Power)
		r.Get("/instance/{id}/state", h.InstanceState)
		r.Post("/instance/{id}/console/token", h.ConsoleToken)
		r.Get("/instance/console/{id}", h.Console)

		r.Get("/instance/{id}/files", h.ListFiles)
		r.Post("/instance/{id}/files/edit/{filename}", h.EditFile)
		r.Post("/instance/{id}/files/unzip/{file}", h.UnzipFile)
		r.Post("/instance/{id}/plugins/install", h.InstallPlugin)

		r.Get("/nodes", h.ListNodes)
		r.Post("/nodes/create", h.CreateNode)
		r.Get("/nodes/delete/{id}", h.DeleteNode)
		r.Get("/nodes/{id}/check", h.CheckNode)
		r.Get("/nodes/configure-command", h.ConfigureCommand)
	})

	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("skypanel %s listening on %s:%s", Version, cfg.BindAddr, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// seedImages loads the image catalog from disk on first boot. An
// already-populated catalog wins over the seed file.
func seedImages(st *store.Store, path string) error {
	ctx := context.Background()

	existing, err := st.Images(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	images, err := model.LoadImages(path)
	if err != nil {
		return err
	}
	if err := st.SaveImages(ctx, images); err != nil {
		return err
	}
	log.Printf("seeded %d images from %s", len(images), path)
	return nil
}
