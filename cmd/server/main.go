package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Luismorlan/localsocial/app_setting"
	"github.com/Luismorlan/localsocial/engine"
	"github.com/Luismorlan/localsocial/feedback"
	"github.com/Luismorlan/localsocial/media"
	"github.com/Luismorlan/localsocial/metrics"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/store"
	. "github.com/Luismorlan/localsocial/utils"
	"github.com/Luismorlan/localsocial/utils/dotenv"
	. "github.com/Luismorlan/localsocial/utils/flag"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func fileStore(setting app_setting.ServerAppSetting) (media.FileStore, error) {
	if setting.MEDIA_STORE == app_setting.MediaStoreS3 {
		return media.NewS3FileStore(setting.S3_REGION, setting.S3_BUCKET_PREFIX, setting.MEDIA_PUBLIC_PREFIX)
	}
	return media.NewLocalFileStore(setting.LOCAL_MEDIA_ROOT, setting.MEDIA_PUBLIC_PREFIX)
}

func authMiddleware(ctx context.Context, setting app_setting.ServerAppSetting) (gin.HandlerFunc, error) {
	if ByPassAuth {
		Log.Warn("authentication is bypassed, the sub header is trusted")
		return middlewares.ByPassAuth(), nil
	}
	if setting.AUTH_MODE == app_setting.AuthModeJWT {
		a, err := middlewares.NewJWTAuthenticator(os.Getenv("JWT_SECRET"))
		if err != nil {
			return nil, err
		}
		return middlewares.Auth(a), nil
	}
	a, err := middlewares.NewCognitoAuthenticator(ctx)
	if err != nil {
		return nil, err
	}
	return middlewares.Auth(a), nil
}

func main() {
	Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()
	defer cleanup()

	setting := app_setting.ParseServerAppSetting(AppSettingPath)
	if dotenv.IsProdEnv() {
		StartTracer(ServiceName)
		StartProfiler(ServiceName)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		Log.Fatal("fail to migrate database: ", err)
	}

	hub := realtime.NewHub(setting.REALTIME_BUFFER_SIZE)
	if err := realtime.RegisterCallbacks(db, hub); err != nil {
		Log.Fatal("fail to register realtime callbacks: ", err)
	}

	files, err := fileStore(setting)
	if err != nil {
		Log.Fatal("fail to set up media store: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	auth, err := authMiddleware(ctx, setting)
	if err != nil {
		Log.Fatal("fail to set up authentication: ", err)
	}

	var opts []server.Option
	var modules []engine.Module
	if setting.SLACK_FEEDBACK_WEBHOOK != "" {
		opts = append(opts, server.WithForwarder(feedback.NewSlackForwarder(setting.SLACK_FEEDBACK_WEBHOOK)))
	}
	if setting.ENABLE_UNREAD_CACHE || setting.ENABLE_REDIS_BRIDGE {
		redisClient := GetRedisClient()
		defer redisClient.Close()
		if err := PingRedis(ctx, redisClient); err != nil {
			Log.Fatal(err)
		}
		if setting.ENABLE_UNREAD_CACHE {
			counter := realtime.NewUnreadCounter(redisClient)
			counter.Track(hub)
			opts = append(opts, server.WithUnreadCounter(counter))
		}
		if setting.ENABLE_REDIS_BRIDGE {
			modules = append(modules, realtime.NewRedisBridge(hub, redisClient, setting.REDIS_BRIDGE_TOPIC))
		}
	}

	api := server.New(store.New(db), hub, files, setting, opts...)
	router := api.Router(server.RouterConfig{
		ServiceName: ServiceName,
		Auth:        auth,
		Trace:       dotenv.IsProdEnv(),
		HTTPMetrics: metrics.NewHTTPMetrics(),
	})
	modules = append(modules, engine.NewHTTPServerModule("http_server", fmt.Sprintf(":%d", Port), router))

	e := engine.NewEngine(modules, ctx, cancel, hub)
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		e.Shutdown()
	}()

	Log.Info("api server starts up")
	e.Run()
}
