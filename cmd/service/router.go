package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pageassist/localstore/app/core"
	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/cmd/service/handler"
	"github.com/pageassist/localstore/cmd/service/middleware"
	"github.com/pageassist/localstore/pkg/safe"
	"github.com/pageassist/localstore/pkg/types"
)

func serve(core *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	scheduler := setupReconcile(core)
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:    core.Cfg().Addr,
		Handler: core.HttpEngine(),
	}
	errCh := make(chan error, 1)
	go safe.Run(func() {
		slog.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigs:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// setupReconcile 定时清理孤儿数据, 配置为 "-" 时返回 nil
func setupReconcile(core *core.Core) *cron.Cron {
	cfg := core.Cfg().Reconcile
	if cfg.Disabled() {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(cfg.Spec, func() {
		safe.RunWithLog(func() {
			if _, err := v1.NewReconcileLogic(context.Background(), core).Run(); err != nil {
				slog.Error("reconcile failed", slog.Any("error", err))
			}
		}, "reconcile")
	})
	if err != nil {
		slog.Error("invalid reconcile spec, reconcile disabled", slog.String("spec", cfg.Spec), slog.Any("error", err))
		return nil
	}
	return c
}

func setupHttpRouter(s *handler.HttpSrv) {
	s.Engine.Use(response.NewResponse(), middleware.I18n(), middleware.Recovery())
	s.Engine.Use(middleware.Cors, middleware.Metrics(s.Core))

	s.Engine.GET("/metrics", s.Core.Metrics().Manager().ExportHandler())

	apiV1 := s.Engine.Group("/api/v1")
	{
		user := apiV1.Group("/user")
		{
			user.GET("/id", s.GetUserID)
			user.PUT("/id", s.SetUserID)
		}

		chat := apiV1.Group("/chat")
		{
			chat.GET("/histories", s.ListChatHistories)
			chat.POST("/histories", s.CreateChatHistory)
			chat.DELETE("/histories", s.DeleteChatHistories)
			chat.GET("/search", s.SearchChat)
			chat.GET("/recent", s.GetRecentChat)

			history := chat.Group("/histories/:history")
			{
				history.GET("", s.GetChatHistory)
				history.PUT("", s.UpdateChatHistory)
				history.DELETE("", s.DeleteChatHistory)
				history.PUT("/touch", s.TouchChatHistory)
				history.POST("/branch", s.BranchChat)

				history.GET("/messages", s.GetChatMessages)
				history.GET("/messages/last", s.GetLastChatMessage)
				history.POST("/messages", s.SaveChatMessage)
				history.PUT("/messages/:message", s.UpdateChatMessage)
				history.DELETE("/messages", s.TruncateChatMessages)
				history.DELETE("/messages/latest", s.RemoveLatestChatMessage)
			}
		}

		for path, dbType := range map[string]types.KnowledgeDBType{
			"/knowledge": types.DB_TYPE_KNOWLEDGE,
			"/documents": types.DB_TYPE_DOCUMENT,
		} {
			knowledge := apiV1.Group(path, handler.WithDBType(dbType))
			{
				knowledge.GET("", s.ListKnowledge)
				knowledge.POST("", s.CreateKnowledge)
				knowledge.GET("/:knowledge", s.GetKnowledge)
				knowledge.PUT("/:knowledge", s.UpdateKnowledgebase)
				knowledge.DELETE("/:knowledge", s.DeleteKnowledge)
				knowledge.PUT("/:knowledge/status", s.UpdateKnowledgeStatus)
				knowledge.POST("/:knowledge/sources", s.AddKnowledgeSources)
				knowledge.DELETE("/:knowledge/sources/:source", s.DeleteKnowledgeSource)
			}
		}

		vectors := apiV1.Group("/vectors")
		{
			vectors.GET("", s.ListVectors)
			vectors.GET("/:knowledge", s.GetVectors)
			vectors.POST("/:knowledge", s.InsertVectors)
			vectors.DELETE("/:knowledge", s.DeleteVectors)
		}

		configs := apiV1.Group("/openai/configs")
		{
			configs.GET("", s.ListOpenAIConfigs)
			configs.POST("", s.CreateOpenAIConfig)
			configs.GET("/:config", s.GetOpenAIConfig)
			configs.PUT("/:config", s.UpdateOpenAIConfig)
			configs.DELETE("/:config", s.DeleteOpenAIConfig)
		}

		models := apiV1.Group("/models")
		{
			models.GET("", s.ListModels)
			models.POST("", s.CreateModel)
			models.POST("/batch", s.CreateModels)
			models.GET("/nicknames", s.ListModelNicknames)
			models.GET("/states", s.ModelStates)
			models.GET("/:model", s.GetModel)
			models.DELETE("/:model", s.DeleteModel)
			models.PUT("/:model/nickname", s.SaveModelNickname)
			models.DELETE("/:model/nickname", s.DeleteModelNickname)
			models.PUT("/:model/state", s.SetModelEnabled)
		}

		providers := apiV1.Group("/providers")
		{
			providers.GET("/states", s.ProviderStates)
			providers.PUT("/:provider/state", s.SetProviderEnabled)
		}

		prompts := apiV1.Group("/prompts")
		{
			prompts.GET("", s.ListPrompts)
			prompts.POST("", s.CreatePrompt)
			prompts.GET("/:prompt", s.GetPrompt)
			prompts.PUT("/:prompt", s.UpdatePrompt)
			prompts.DELETE("/:prompt", s.DeletePrompt)
		}

		webshares := apiV1.Group("/webshares")
		{
			webshares.GET("", s.ListWebshares)
			webshares.POST("", s.CreateWebshare)
			webshares.DELETE("/:webshare", s.DeleteWebshare)
		}

		memories := apiV1.Group("/memories")
		{
			memories.GET("", s.ListMemories)
			memories.GET("/context", s.GetMemoryContext)
			memories.POST("", s.CreateMemory)
			memories.DELETE("", s.DeleteAllMemories)
			memories.PUT("/:memory", s.UpdateMemory)
			memories.DELETE("/:memory", s.DeleteMemory)
		}

		media := apiV1.Group("/media")
		{
			media.GET("", s.ListProcessedMedia)
			media.POST("", s.SaveProcessedMedia)
			media.DELETE("", s.ClearProcessedMedia)
			media.GET("/:media", s.GetProcessedMedia)
			media.DELETE("/:media", s.DeleteProcessedMedia)
		}

		sessions := apiV1.Group("/sessions/:session/files")
		{
			sessions.GET("", s.GetSessionFiles)
			sessions.POST("", s.AddSessionFile)
			sessions.DELETE("", s.ClearSessionFiles)
			sessions.PUT("/retrieval", s.SetSessionRetrieval)
			sessions.PUT("/:file", s.UpdateSessionFile)
			sessions.DELETE("/:file", s.RemoveSessionFile)
		}

		data := apiV1.Group("/data")
		{
			data.GET("/export", s.Export)
			data.POST("/import", s.Import)
			data.POST("/import/bundle", s.ImportBundle)
			data.POST("/migrate", s.Migrate)
			data.GET("/verify", s.VerifyMigration)
			data.POST("/reconcile", s.Reconcile)
		}
	}
}
