package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docindex/app/api"
	"docindex/app/middleware"
	"docindex/engine"
	"docindex/model"
	"docindex/store"
	"docindex/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    12 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	cfg        types.Config
	logger     *slog.Logger

	engine *engine.Engine
}

func NewServer(addr string, cfg types.Config) *Server {
	return &Server{
		listenAddr: addr,
		cfg:        cfg,
		logger:     slog.Default(),
	}
}

// Engine exposes the shared engine instance, e.g. to the ingestion watcher.
// Valid after Run has built the dependencies.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

func (s *Server) Stop() {
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Error("error closing engine", "error", err.Error())
		}
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run(ready chan<- struct{}) {
	ctx := context.Background()

	index, err := buildIndex(ctx)
	if err != nil {
		log.Fatal("error to build vector index: ", err)
		return
	}

	meta := store.NewMetadataStore(s.cfg.MetadataPath)
	s.engine = engine.New(s.cfg, meta, index)
	if err := s.engine.Open(); err != nil {
		log.Fatal("error to open engine: ", err)
		return
	}
	close(ready)

	var (
		app        = fiber.New(config)
		check      = app.Group("/check")
		apiv1      = app.Group("/api/v1")
		docHandler = api.NewDocumentHandler(s.engine)
		qryHandler = api.NewQueryHandler(s.engine)
	)

	app.Use(middleware.PlugStatic("/static"))
	app.Static("/static", "./static")

	check.Get("/healthy", api.NewCheckHandler().HandleHealthy)
	apiv1.Post("/documents", docHandler.HandleUpload)
	apiv1.Get("/documents", docHandler.HandleList)
	apiv1.Delete("/documents/:id", docHandler.HandleDelete)
	apiv1.Get("/references/:ref", docHandler.HandleReference)
	apiv1.Post("/query", qryHandler.HandleQuery)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

// buildIndex selects the vector index backend. INDEX_BACKEND=memory runs
// without Postgres; anything else connects to pgvector.
func buildIndex(ctx context.Context) (store.VectorIndexer, error) {
	embedder := model.NewOllamaEmbedder()

	if os.Getenv("INDEX_BACKEND") == "memory" {
		return store.NewMemoryIndex(embedder), nil
	}

	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))

	dim, _ := strconv.Atoi(os.Getenv("EMBEDDING_DIM"))
	if dim <= 0 {
		dim = 768
	}
	index, err := store.NewPgVectorIndex(ctx, connStr, embedder, dim)
	if err != nil {
		return nil, err
	}
	if err := index.Init(ctx); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}
