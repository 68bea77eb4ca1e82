package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"yelly/internal/chunker"
	"yelly/internal/config"
	"yelly/internal/domain"
	"yelly/internal/embedding"
	geminiembed "yelly/internal/embedding/gemini"
	"yelly/internal/embedding/openai"
	"yelly/internal/embedding/tfidf"
	"yelly/internal/llm"
	geminillm "yelly/internal/llm/gemini"
	"yelly/internal/retriever"
	"yelly/internal/session"
	"yelly/internal/summarizer"
	"yelly/internal/transcript"
	"yelly/internal/tui"
	"yelly/internal/vectorindex"
	"yelly/internal/vectorindex/chromem"
	"yelly/internal/vectorindex/flat"
	"yelly/internal/vectorindex/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, videoURL string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/yelly/config.yaml if not provided)")
	flag.StringVar(&videoURL, "url", "", "YouTube URL to load on startup (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("failed to read environment: %v", err)
	}

	ctx := context.Background()

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "gemini", "":
		if envCfg.GoogleAPIKey == "" {
			log.Fatalf("GOOGLE_API_KEY is not set")
		}
		emb, err = geminiembed.NewEmbedder(ctx, geminiembed.Config{
			APIKey:    envCfg.GoogleAPIKey,
			Model:     cfg.Embedder.Gemini.Model,
			Dimension: cfg.Embedder.Gemini.Dimension,
			Timeout:   time.Duration(cfg.Embedder.Gemini.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("gemini embedder init failed: %v", err)
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		emb, err = openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	case "tfidf":
		emb = tfidf.NewEmbedder()
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "character", "":
		ch = chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var newIndex func() vectorindex.Index
	switch cfg.Index.Type {
	case "flat", "":
		newIndex = func() vectorindex.Index { return flat.New() }
	case "chromem":
		newIndex = func() vectorindex.Index { return chromem.New() }
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     cfg.Index.Qdrant.APIKey,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		}
		newIndex = func() vectorindex.Index { return qdrant.New(qcfg) }
	default:
		log.Fatalf("unknown index: %s", cfg.Index.Type)
	}

	var completer llm.Completer
	switch cfg.LLM.Provider {
	case "gemini", "":
		if envCfg.GoogleAPIKey == "" {
			log.Fatalf("GOOGLE_API_KEY is not set")
		}
		completer, err = geminillm.NewClient(ctx, geminillm.Config{
			APIKey:      envCfg.GoogleAPIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("gemini client init failed: %v", err)
		}
	default:
		log.Fatalf("unknown llm provider: %s", cfg.LLM.Provider)
	}

	fetcher := transcript.NewYouTubeClient(time.Duration(cfg.Transcript.TimeoutSecs) * time.Second)
	store := transcript.NewStore(cfg.Transcript.DataFile)

	sess := session.New(session.Options{
		Fetcher:    fetcher,
		Store:      store,
		Chunker:    ch,
		Embedder:   emb,
		Completer:  completer,
		Summarizer: summarizer.NewFrequencySummarizer(),
		NewIndex:   newIndex,
		IndexPath:  cfg.Index.Path,
		Language:   cfg.Transcript.Language,
		Retrieval: retriever.Options{
			TopK:   cfg.Retriever.TopK,
			FetchK: cfg.Retriever.FetchK,
			Lambda: *cfg.Retriever.Lambda,
		},
		MultiQuery:       cfg.Retriever.MultiQuery,
		NumQueries:       cfg.Retriever.NumQueries,
		MaxTurns:         cfg.Memory.MaxTurns,
		SummarySentences: cfg.Summary.MaxSentences,
	})

	if videoURL != "" {
		if err := sess.LoadVideo(ctx, videoURL); err != nil {
			log.Fatalf("video load failed: %v", err)
		}
	} else if err := sess.Resume(ctx); err == nil {
		log.Printf("resumed video %s", sess.VideoID())
	}

	m := tui.New(sess)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
