package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/api/handlers"
	"github.com/meetscribe/meetscribe/internal/api/middleware"
	"github.com/meetscribe/meetscribe/internal/api/routes"
	"github.com/meetscribe/meetscribe/internal/cache"
	"github.com/meetscribe/meetscribe/internal/logger"
	"github.com/meetscribe/meetscribe/internal/providers/embed"
	"github.com/meetscribe/meetscribe/internal/providers/llm"
	mongorepo "github.com/meetscribe/meetscribe/internal/repositories/mongo"
	pgrepo "github.com/meetscribe/meetscribe/internal/repositories/postgres"
	"github.com/meetscribe/meetscribe/internal/queue"
	"github.com/meetscribe/meetscribe/internal/services"
	"github.com/meetscribe/meetscribe/internal/storage"
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
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	ctx := context.Background()

	store, err := storage.NewGCSStore(ctx, settings.GCSBucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

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
	embedder := embed.NewOpenAIEmbedder(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.EmbedModel)

	meetingRepo := pgrepo.NewMeetingRepo(config.PostgresDB)
	mediaRepo := pgrepo.NewMediaAssetRepo(config.PostgresDB)
	segmentRepo := pgrepo.NewTranscriptSegmentRepo(config.PostgresDB)
	revisionRepo := pgrepo.NewRevisionRepo(config.PostgresDB)
	embeddingRepo := pgrepo.NewEmbeddingRepo(config.PostgresDB)
	summaryRepo := pgrepo.NewSummaryRepo(config.PostgresDB)
	shareRepo := pgrepo.NewShareLinkRepo(config.PostgresDB)
	speakerRepo := pgrepo.NewSpeakerLabelRepo(config.PostgresDB)
	jobRepo := mongorepo.NewJobRepo(config.MongoDatabase())

	scheduler := queue.NewRedisScheduler(config.RedisClient, jobRepo, settings.JobStream)
	progress := services.NewRedisProgressPublisher(config.RedisClient)

	meetingSvc := services.NewMeetingService(meetingRepo, summaryRepo, progress)
	transcriptSvc := services.NewTranscriptService(segmentRepo, revisionRepo, speakerRepo)
	indexSvc := services.NewIndexService(segmentRepo, embeddingRepo, embedder, llmProvider)
	shareSvc := services.NewShareService(meetingRepo, shareRepo)
	pipelineSvc := services.NewPipelineService(meetingRepo, mediaRepo, scheduler)

	rc := cache.NewRedisCache(config.RedisClient)

	r := gin.Default()
	r.Use(middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		Meeting:  handlers.NewMeetingHandler(meetingSvc, pipelineSvc, mediaRepo, store, rc),
		Segment:  handlers.NewSegmentHandler(transcriptSvc),
		QA:       handlers.NewQAHandler(indexSvc, settings.QATopN),
		Share:    handlers.NewShareHandler(shareSvc, meetingSvc),
		Job:      handlers.NewJobHandler(jobRepo),
		Progress: handlers.NewProgressHandler(meetingSvc, config.RedisClient),
	})

	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
