// cinerec-server 是推荐引擎的 HTTP 服务入口。
//
//	GET /recommend?user_id=42&mood=happy&n=10
//	GET /recommend?user_id=42&query=Inception
//	GET /suggest?q=incep
//	GET /healthz
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/engine"
	"github.com/cinerec/cinerec/enrich"
	"github.com/cinerec/cinerec/feast"
	"github.com/cinerec/cinerec/filter"
	"github.com/cinerec/cinerec/model"
	"github.com/cinerec/cinerec/recall"
	"github.com/cinerec/cinerec/store"
	"github.com/cinerec/cinerec/tmdb"
)

type serverConfig struct {
	Addr string `yaml:"addr"`

	Artifacts struct {
		Catalog    string `yaml:"catalog"`
		Similarity string `yaml:"similarity"`
		SVD        string `yaml:"svd"`
		Classifier string `yaml:"classifier"`
	} `yaml:"artifacts"`

	TMDB struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"tmdb"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Feast struct {
		Host    string   `yaml:"host"`
		Port    int      `yaml:"port"`
		Project string   `yaml:"project"`
		Genres  []string `yaml:"genres"`
	} `yaml:"feast"`

	Popular struct {
		Key string  `yaml:"key"`
		IDs []int64 `yaml:"ids"`
	} `yaml:"popular"`
}

func loadConfig(path string) (*serverConfig, error) {
	cfg := &serverConfig{}
	cfg.Addr = ":8080"
	cfg.TMDB.CacheSize = enrich.DefaultCacheSize

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "cinerec.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}

	models := model.NewStore(model.Options{
		CatalogPath:    cfg.Artifacts.Catalog,
		SimilarityPath: cfg.Artifacts.Similarity,
		SVDPath:        cfg.Artifacts.SVD,
		ClassifierPath: cfg.Artifacts.Classifier,
	})
	// 工件错误在启动阶段暴露，不留到请求路径。
	if err := models.EnsureLoaded(context.Background()); err != nil {
		log.Fatalf("load model artifacts: %v", err)
	}
	defer models.Close()

	var kv core.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("connect redis %s: %v", cfg.Redis.Addr, err)
		}
		kv = redisStore
	} else {
		kv = store.NewMemory()
	}
	defer kv.Close()

	enricher := &enrich.Node{
		Provider: tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey),
		Cache:    enrich.NewCache(cfg.TMDB.CacheSize),
	}
	if cfg.Redis.Addr != "" {
		enricher.Shared = &enrich.SharedCache{Store: kv}
	}

	opts := []engine.Option{
		engine.WithEnricher(enricher),
		engine.WithFilters(&filter.Seen{Store: kv}),
		engine.WithPopular(&recall.PopularRecall{
			Store:  kv,
			Key:    cfg.Popular.Key,
			IDs:    cfg.Popular.IDs,
			Models: models,
		}),
	}
	if cfg.Feast.Host != "" {
		feastClient, err := feast.NewGrpcClient(cfg.Feast.Host, cfg.Feast.Port, cfg.Feast.Project)
		if err != nil {
			log.Printf("feast unavailable, serving without genre profiles: %v", err)
		} else {
			defer feastClient.Close()
			opts = append(opts, engine.WithProfiles(&feast.Profiles{
				Client: feastClient,
				Genres: cfg.Feast.Genres,
			}))
		}
	}

	eng := engine.New(models, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/recommend", handleRecommend(eng))
	mux.HandleFunc("/suggest", handleSuggest(eng))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("cinerec-server listening on %s (catalog: %d titles)", cfg.Addr, models.Len())
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("serve: %v", err)
	}
}

func handleRecommend(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		n, _ := strconv.Atoi(q.Get("n"))
		result, err := eng.Recommend(r.Context(), &engine.Request{
			UserID:   q.Get("user_id"),
			MoodText: q.Get("mood"),
			Query:    q.Get("query"),
			N:        n,
		})
		if err != nil {
			log.Printf("recommend user_id=%q: %v", q.Get("user_id"), err)
			http.Error(w, "recommendation unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, result)
	}
}

func handleSuggest(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		suggestions, err := eng.Suggest(r.Context(), q.Get("q"), limit)
		if err != nil {
			log.Printf("suggest q=%q: %v", q.Get("q"), err)
			http.Error(w, "suggestions unavailable", http.StatusInternalServerError)
			return
		}
		if suggestions == nil {
			suggestions = []engine.Suggestion{}
		}
		writeJSON(w, suggestions)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
