package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/logger"
	"github.com/meetscribe/meetscribe/internal/media"
	"github.com/meetscribe/meetscribe/internal/providers/embed"
	"github.com/meetscribe/meetscribe/internal/providers/llm"
	"github.com/meetscribe/meetscribe/internal/providers/stt"
	mongorepo "github.com/meetscribe/meetscribe/internal/repositories/mongo"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/queue"
	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/storage"
	"github.com/meetscribe/meetscribe/internal/vad"
	"github.com/meetscribe/meetscribe/internal/workers"
)

func main() {
	_ = godotenv.Load()

	settings := config.Load()
	lg := logger.New()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	fmt.Println("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewGCSStore(ctx, settings.GCSBucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

	var sttProvider stt.Provider
	switch settings.STTProvider {
	case "google":
		sttProvider, err = stt.NewGoogleSpeech(ctx, settings.SampleRate)
		if err != nil {
			log.Fatalf("Google Speech init error: %v", err)
		}
	default:
		sttProvider = stt.NewOpenAIWhisper(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.STTModel)
	}
	defer sttProvider.Close()

	var llmProvider llm.Provider
	switch settings.LLMProvider {
	case "vertex":
		llmProvider, err = llm.NewVertexGemini(ctx, settings.VertexProject, settings.VertexLocation, settings.VertexModel)
		if err != nil {
			log.Fatalf("Vertex init error: %v", err)
		}
	default:
		llmProvider = llm.NewOpenAIChat(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.ChatModel)
	}
	defer llmProvider.Close()

	embedder := embed.NewOpenAIEmbedder(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.EmbedModel)

	meetingRepo := pgrepo.NewMeetingRepo(config.PostgresDB)
	mediaRepo := pgrepo.NewMediaAssetRepo(config.PostgresDB)
	vadRepo := pgrepo.NewVadSegmentRepo(config.PostgresDB)
	segmentRepo := pgrepo.NewTranscriptSegmentRepo(config.PostgresDB)
	revisionRepo := pgrepo.NewRevisionRepo(config.PostgresDB)
	embeddingRepo := pgrepo.NewEmbeddingRepo(config.PostgresDB)
	summaryRepo := pgrepo.NewSummaryRepo(config.PostgresDB)
	speakerRepo := pgrepo.NewSpeakerLabelRepo(config.PostgresDB)
	jobRepo := mongorepo.NewJobRepo(config.MongoDatabase())

	scheduler := queue.NewRedisScheduler(config.RedisClient, jobRepo, settings.JobStream)
	progress := services.NewRedisProgressPublisher(config.RedisClient)

	meetingSvc := services.NewMeetingService(meetingRepo, summaryRepo, progress)
	transcriptSvc := services.NewTranscriptService(segmentRepo, revisionRepo, speakerRepo)
	indexSvc := services.NewIndexService(segmentRepo, embeddingRepo, embedder, llmProvider)

	segmenter := vad.NewSegmenter(
		vad.NewEnergyClassifier(settings.Aggressiveness),
		vad.Config{
			FrameMS:        settings.FrameMS,
			Aggressiveness: settings.Aggressiveness,
			MinSegmentMS:   settings.MinSegmentMS,
			MergeGapMS:     settings.MergeGapMS,
			PadMS:          settings.PadMS,
		},
	)

	pool := &workers.PipelineWorkerPool{
		Redis:     config.RedisClient,
		Jobs:      jobRepo,
		Scheduler: scheduler,
		Tasks: &workers.Tasks{
			Settings:    settings,
			Meetings:    meetingSvc,
			Transcripts: transcriptSvc,
			Index:       indexSvc,
			Media:       mediaRepo,
			VadSegments: vadRepo,
			Segments:    segmentRepo,
			Summaries:   summaryRepo,
			Store:       store,
			Transcoder:  media.NewFFmpeg(),
			STT:         sttProvider,
			LLM:         llmProvider,
			Scheduler:   scheduler,
			Segmenter:   segmenter,
			Logger:      lg,
		},
		NumWorkers:  settings.WorkerConcurrency,
		TaskTimeout: settings.TaskTimeout,
		Logger:      lg,
		Stream:      settings.JobStream,
	}

	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker start error: %v", err)
	}
	lg.WithField("workers", settings.WorkerConcurrency).Info("pipeline workers started")

	<-ctx.Done()
	lg.Info("shutting down")
}
