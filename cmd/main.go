package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Maddy398/linkback/config"
	"github.com/Maddy398/linkback/internal/api/connection"
	"github.com/Maddy398/linkback/internal/api/feed"
	"github.com/Maddy398/linkback/internal/api/message"
	"github.com/Maddy398/linkback/internal/api/user"
	"github.com/Maddy398/linkback/internal/identity"
	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/repository/mysql"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/storage"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("notblank", util.ValidateNotBlank)
	}

	// 按配置选择存储后端
	blobStorage := initStorage()

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	connectionRepo := mysql.NewConnectionRepository(db)
	postRepo := mysql.NewPostRepository(db)
	messageRepo := mysql.NewMessageRepository(db)

	userService := service.NewUserService(userRepo)
	connectionService := service.NewConnectionService(userRepo, connectionRepo)
	feedService := service.NewFeedService(userRepo, postRepo)
	messageService := service.NewMessageService(userRepo, connectionRepo, messageRepo)

	userHandler := user.NewUserHandler(userService, blobStorage)
	connectionHandler := connection.NewConnectionHandler(connectionService)
	feedHandler := feed.NewFeedHandler(feedService, blobStorage)
	messageHandler := message.NewMessageHandler(messageService)

	// 身份校验器通过接口注入，便于测试时替换
	verifier := identity.NewJWTVerifier(config.AppConfig.JWTSecret)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		"Access-Control-Allow-Origin",
	}

	r.Use(cors.New(corsConfig))

	// 静态文件的 CORS 单独处理
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			c.Header("Access-Control-Allow-Origin", config.AppConfig.FrontendURL)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(200)
				return
			}
		}
		c.Next()
	})

	// 本地存储后端时提供静态文件服务
	if config.AppConfig.StorageBackend == "local" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	// 定义 API 路由，全部需要认证
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(verifier))
	{
		// 用户相关路由
		api.POST("/users", userHandler.Sync)
		api.GET("/users/profile", userHandler.GetProfile)
		api.PUT("/users/profile", userHandler.UpdateProfile)
		api.POST("/users/photo", userHandler.UploadPhoto)

		// 连接图相关路由
		api.GET("/users/all", connectionHandler.Directory)
		api.GET("/users/connections", connectionHandler.Connections)
		api.POST("/users/connect/:id", connectionHandler.ToggleConnection)
		api.POST("/users/send-request/:id", connectionHandler.SendRequest)
		api.POST("/users/accept-request/:id", connectionHandler.AcceptRequest)
		api.POST("/users/reject-request/:id", connectionHandler.RejectRequest)

		// 信息流相关路由
		api.POST("/posts", feedHandler.CreatePost)
		api.GET("/posts", feedHandler.ListFeed)
		api.POST("/posts/:id/like", feedHandler.ToggleLike)
		api.POST("/posts/:id/comment", feedHandler.AddComment)
		api.DELETE("/posts/:id", feedHandler.DeletePost)

		// 私信相关路由
		api.POST("/messages/send/:recipientId", messageHandler.Send)
		api.GET("/messages/:userId", messageHandler.Thread)
	}

	// 启动服务器
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		util.Logger.Info("服务器开始监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("收到退出信号，服务器关闭中")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已退出")
}

// initStorage 按配置初始化存储后端，失败时直接退出
func initStorage() storage.Storage {
	switch config.AppConfig.StorageBackend {
	case "s3":
		s3Client, err := storage.NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
		if err != nil {
			util.Logger.Fatal("初始化S3存储失败", zap.Error(err))
		}
		util.Logger.Info("使用S3存储后端", zap.String("bucket", config.AppConfig.S3Bucket))
		return s3Client
	case "gcs":
		gcsClient, err := storage.NewGCSClient(
			config.AppConfig.GCSProjectID,
			config.AppConfig.GCSBucketName,
			config.AppConfig.GCSCredentialsFile)
		if err != nil {
			util.Logger.Fatal("初始化GCS存储失败", zap.Error(err))
		}
		util.Logger.Info("使用GCS存储后端", zap.String("bucket", config.AppConfig.GCSBucketName))
		return gcsClient
	default:
		localStorage, err := storage.NewLocalStorage(config.AppConfig.LocalStoragePath)
		if err != nil {
			util.Logger.Fatal("初始化本地存储失败", zap.Error(err))
		}
		util.Logger.Info("使用本地存储后端", zap.String("path", config.AppConfig.LocalStoragePath))
		return localStorage
	}
}
