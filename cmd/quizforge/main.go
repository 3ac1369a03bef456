package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizforge/internal/extract"
	"github.com/pavelanni/quizforge/internal/handler"
	appI18n "github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/llm"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/storage"
	"github.com/pavelanni/quizforge/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quizforge",
		Short:        "Generate multiple-choice quizzes from documents with an LLM",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, extractCmd(), generateCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizforge --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addDBFlags(f)
	addLLMFlags(f)
	addExtractFlags(f)
	f.Int64("max-upload-size", 10<<20, "Maximum upload size in bytes")
	f.String("archive", "none", "Upload archive (none, fs, s3)")
	f.String("archive-path", "./data/archive", "Directory for the fs archive")
	f.String("s3-bucket", "", "S3 bucket for the s3 archive")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL (R2, MinIO)")
	f.String("s3-region", "auto", "S3 region")
	f.String("s3-access-key", "", "S3 access key (default AWS credential chain when empty)")
	f.String("s3-secret-key", "", "S3 secret key")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.StringP("lang", "l", "en", "Default language for API messages (en, ru)")
	addLogFlags(f)
	return cmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <location>",
		Short: "Extract text from a URL or a local file and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	f := cmd.Flags()
	f.StringP("kind", "k", "", "Source kind (url, pdf, word, image); guessed from the location when empty")
	addExtractFlags(f)
	addLogFlags(f)
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <location>",
		Short: "Extract a source and print a generated topic with questions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringP("kind", "k", "", "Source kind (url, pdf, word, image); guessed from the location when empty")
	addLLMFlags(f)
	addExtractFlags(f)
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	addDBFlags(f)
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func addDBFlags(f *pflag.FlagSet) {
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "quizforge.db", "SQLite database path or PostgreSQL DSN")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-provider", "openai", "LLM provider (openai, gemini)")
	f.String("llm-url", "", "Base URL of an OpenAI-compatible API (provider default when empty)")
	f.String("llm-key", "", "LLM API key (or QUIZFORGE_LLM_KEY, OPENAI_API_KEY, GEMINI_API_KEY)")
	f.String("llm-model", "", "LLM model name (provider default when empty)")
	f.Int("llm-max-attempts", 3, "Attempts per LLM call before giving up")
	f.Duration("llm-base-delay", time.Second, "First retry delay, doubled on each retry")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Timeout of a single LLM call")
	f.IntP("num-questions", "n", llm.DefaultNumQuestions, "Questions generated per topic")
	f.Int("content-budget", llm.DefaultContentBudget, "Characters of source text sent for question generation")
	f.Int("topic-budget", llm.DefaultTopicBudget, "Characters of source text sent for topic naming")
	f.Duration("pacing-delay", 3*time.Second, "Pause between the topic and question LLM calls (0 disables)")
}

func addExtractFlags(f *pflag.FlagSet) {
	defaults := extract.DefaultTierConfig()
	f.String("upload-dir", os.TempDir(), "Directory for staged uploads")
	f.Bool("browser", defaults.Browser, "Try a headless browser first for URL sources")
	f.String("browser-path", "", "Chrome executable (searched in PATH when empty)")
	f.Duration("browser-timeout", defaults.BrowserTimeout, "Page load timeout of the headless browser")
	f.Duration("browser-settle", defaults.BrowserSettle, "Wait after page load for scripts to render")
	f.Duration("fetch-timeout", defaults.FetchTimeout, "Timeout of plain HTTP fetches")
	f.String("ocr-binary", "tesseract", "Tesseract executable for image sources")
	f.String("ocr-lang", "", "Tesseract language, e.g. eng or eng+rus")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm-key", "QUIZFORGE_LLM_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY")

	v.SetConfigName("quizforge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizforge")
	v.AddConfigPath("/etc/quizforge")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newRegistry(v *viper.Viper) *extract.Registry {
	return extract.NewDefaultRegistry(extract.Config{
		UploadDir: v.GetString("upload-dir"),
		Tiers: extract.TierConfig{
			FetchTimeout:   v.GetDuration("fetch-timeout"),
			Browser:        v.GetBool("browser"),
			BrowserPath:    v.GetString("browser-path"),
			BrowserTimeout: v.GetDuration("browser-timeout"),
			BrowserSettle:  v.GetDuration("browser-settle"),
		},
		OCRBinary: v.GetString("ocr-binary"),
		OCRLang:   v.GetString("ocr-lang"),
	})
}

func newGenerator(ctx context.Context, v *viper.Viper) (*llm.Generator, error) {
	provider, err := llm.New(ctx, llm.Config{
		Provider: v.GetString("llm-provider"),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
		Timeout:  v.GetDuration("llm-timeout"),
		Retry: llm.RetryConfig{
			MaxAttempts: v.GetInt("llm-max-attempts"),
			Delay:       llm.ExponentialDelay(v.GetDuration("llm-base-delay"), time.Minute),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return llm.NewGenerator(provider, llm.GeneratorConfig{
		Model:         v.GetString("llm-model"),
		ContentBudget: v.GetInt("content-budget"),
		TopicBudget:   v.GetInt("topic-budget"),
	})
}

func newArchive(ctx context.Context, v *viper.Viper) (storage.BlobStore, error) {
	switch strings.ToLower(v.GetString("archive")) {
	case "", "none":
		return nil, nil
	case "fs":
		return storage.NewFSStore(v.GetString("archive-path"))
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    v.GetString("s3-bucket"),
			Endpoint:  v.GetString("s3-endpoint"),
			Region:    v.GetString("s3-region"),
			AccessKey: v.GetString("s3-access-key"),
			SecretKey: v.GetString("s3-secret-key"),
		})
	default:
		return nil, fmt.Errorf("unknown archive %q (want none, fs or s3)", v.GetString("archive"))
	}
}

// sourceKind returns the --kind flag, or guesses it from the location.
func sourceKind(v *viper.Viper, location string) (model.SourceKind, error) {
	if k := strings.ToLower(strings.TrimSpace(v.GetString("kind"))); k != "" {
		kind := model.SourceKind(k)
		if !kind.Valid() {
			return "", fmt.Errorf("unknown kind %q (want url, pdf, word or image)", k)
		}
		return kind, nil
	}
	if kind, ok := extract.KindForFilename(location); ok {
		if _, err := os.Stat(location); err == nil {
			return kind, nil
		}
	}
	return model.SourceURL, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, v)
	if err != nil {
		return err
	}

	db, err := store.New(store.Driver(v.GetString("db-driver")), v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.SetLLMInfo(v.GetString("llm-provider"), gen.ModelID()); err != nil {
		return fmt.Errorf("record LLM info: %w", err)
	}
	questionCount, err := db.QuestionCount()
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	archive, err := newArchive(ctx, v)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	h := handler.New(db, newRegistry(v), gen, archive, handler.Config{
		NumQuestions:  v.GetInt("num-questions"),
		PacingDelay:   v.GetDuration("pacing-delay"),
		MaxUploadSize: v.GetInt64("max-upload-size"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"db_driver", v.GetString("db-driver"),
			"llm_provider", v.GetString("llm-provider"),
			"model", gen.ModelID(),
			"lang", lang,
			"num_questions", v.GetInt("num-questions"),
			"archive", v.GetString("archive"),
			"questions", questionCount,
		)
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

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runExtract(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	kind, err := sourceKind(v, args[0])
	if err != nil {
		return err
	}
	doc, err := newRegistry(v).Extract(cmd.Context(), kind, args[0])
	if err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}
	return writeJSON(os.Stdout, doc)
}

type generateOutput struct {
	Source    *extract.Document     `json:"source"`
	Topic     model.TopicDraft      `json:"topic"`
	Questions []model.QuestionDraft `json:"questions"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	gen, err := newGenerator(ctx, v)
	if err != nil {
		return err
	}
	kind, err := sourceKind(v, args[0])
	if err != nil {
		return err
	}
	doc, err := newRegistry(v).Extract(ctx, kind, args[0])
	if err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}

	topic, questions, err := generateDrafts(ctx, gen, doc.Content,
		v.GetInt("num-questions"), v.GetDuration("pacing-delay"), llm.Sleep)
	if err != nil {
		return err
	}
	slog.Info("generated questions", "topic", topic.Title, "count", len(questions), "model", gen.ModelID())

	return writeJSON(os.Stdout, generateOutput{Source: doc, Topic: topic, Questions: questions})
}

// generateDrafts names a topic and then writes its questions, pausing for
// pacing between the two LLM calls.
func generateDrafts(ctx context.Context, gen handler.Generator, content string, n int,
	pacing time.Duration, sleep func(context.Context, time.Duration) error,
) (model.TopicDraft, []model.QuestionDraft, error) {
	topic := gen.GenerateTopic(ctx, content)
	if err := sleep(ctx, pacing); err != nil {
		return model.TopicDraft{}, nil, fmt.Errorf("pacing delay: %w", err)
	}
	questions, err := gen.GenerateQuestions(ctx, content, n)
	if err != nil {
		return model.TopicDraft{}, nil, fmt.Errorf("generate questions: %w", err)
	}
	return topic, questions, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(store.Driver(v.GetString("db-driver")), v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAttempts()
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeJSON(w, export); err != nil {
		return err
	}
	slog.Info("exported attempts", "count", export.NumAttempts, "output", outPath)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
