// Package server assembles chronos service: it reads configuration, sets up dependencies and serves reads and
// writes off one listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/gorilla/securecookie"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"wuyrush.io/chronos/common/logging"
	rt "wuyrush.io/chronos/common/retry"
	cst "wuyrush.io/chronos/constants"
	pe "wuyrush.io/chronos/errors"
	md "wuyrush.io/chronos/models"
	"wuyrush.io/chronos/reader"
	st "wuyrush.io/chronos/stores"
	"wuyrush.io/chronos/stores/session"
	"wuyrush.io/chronos/summary"
	"wuyrush.io/chronos/writer"
)

const serviceName = "chronos"

// chronosServer routes safe requests to the reader and everything else to the writer
type chronosServer struct {
	Reader *reader.Reader
	Writer *writer.Writer
	redis  *redis.Client
}

func (s *chronosServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.Reader.ServeHTTP(w, r)
	default:
		s.Writer.ServeHTTP(w, r)
	}
}

func (s *chronosServer) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.WithError(err).Warn("error closing Redis client")
		}
	}
}

func setDefaults() {
	viper.SetDefault(cst.EnvVerbose, false)
	viper.SetDefault(cst.EnvSeed, true)
	viper.SetDefault(cst.EnvAppHost, "")
	viper.SetDefault(cst.EnvAppPort, "8080")
	viper.SetDefault(cst.EnvReqBodySizeMaxByte, 1<<16)
	viper.SetDefault(cst.EnvTitleSizeMaxByte, 1<<9)
	viper.SetDefault(cst.EnvMessageSizeMaxByte, 1<<13)
	viper.SetDefault(cst.EnvTrapName, "hp-trap")
	viper.SetDefault(cst.EnvWriteRatePerSec, 20.0)
	viper.SetDefault(cst.EnvWriteBurst, 40)
	viper.SetDefault(cst.EnvShutdownGracePeriod, 10*time.Second)
	viper.SetDefault(cst.EnvDraftCacheSize, 1<<12)
	viper.SetDefault(cst.EnvDraftExpiry, 30*time.Minute)
	viper.SetDefault(cst.EnvSessionMaxAgeSecs, 30*24*3600)
	viper.SetDefault(cst.EnvSessionCacheSize, 1<<14)
	viper.SetDefault(cst.EnvRedisPort, "6379")
	viper.SetDefault(cst.EnvRedisDB, 0)
	viper.SetDefault(cst.EnvOracleBaseURL, summary.DefaultOracleBaseURL)
	viper.SetDefault(cst.EnvOracleModel, summary.DefaultOracleModel)
	viper.SetDefault(cst.EnvOracleTimeout, summary.DefaultOracleTimeout)
	viper.SetDefault(cst.EnvOracleRatePerSec, summary.DefaultOracleRate)
	viper.SetDefault(cst.EnvOracleCacheSize, 1<<10)
	viper.SetDefault(cst.EnvOracleCacheExpiry, time.Hour)
}

// Serve starts up chronos server and serves incoming requests till the process is told to stop
func Serve() error {
	// read configuration from env vars
	viper.AutomaticEnv()
	setDefaults()
	logging.SetupLog(serviceName, viper.GetBool(cst.EnvVerbose))
	gin.SetMode(gin.ReleaseMode)

	svr, err := setup()
	if err != nil {
		return err
	}
	defer svr.Close()

	host, port := viper.GetString(cst.EnvAppHost), viper.GetString(cst.EnvAppPort)
	httpSvr := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", host, port),
		Handler: svr,
		// writes may wait on the oracle
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   viper.GetDuration(cst.EnvOracleTimeout) + 10*time.Second,
		MaxHeaderBytes: 1 << 13,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"host": host, "port": port}).Info("chronos server is starting up")
		errc <- httpSvr.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("chronos server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(cst.EnvShutdownGracePeriod))
	defer cancel()
	return httpSvr.Shutdown(shutdownCtx)
}

func setup() (*chronosServer, error) {
	svr := &chronosServer{}
	var seed []*md.Capsule
	if viper.GetBool(cst.EnvSeed) {
		seed = st.Seed(time.Now())
	}
	capsules := st.NewMemStore(seed...)
	drafts := st.NewDraftStore(viper.GetInt(cst.EnvDraftCacheSize), viper.GetDuration(cst.EnvDraftExpiry))
	sessions := session.NewStore(sessionSecret(), viper.GetInt(cst.EnvSessionMaxAgeSecs), viper.GetInt(cst.EnvSessionCacheSize))

	oracle, err := setupOracle(svr)
	if err != nil {
		return nil, err
	}
	summaries, gate := summary.NewOrchestrator(oracle), summary.NewGate()

	svr.Reader = &reader.Reader{
		Capsules:  capsules,
		Drafts:    drafts,
		Sessions:  sessions,
		Summaries: summaries,
		Gate:      gate,
	}
	svr.Reader.SetupRoutes()
	svr.Writer = &writer.Writer{
		Capsules:  capsules,
		Drafts:    drafts,
		Sessions:  sessions,
		Summaries: summaries,
		Gate:      gate,
		Oracle:    oracle,
		Config: writer.Config{
			TrapName:           viper.GetString(cst.EnvTrapName),
			ReqBodySizeMaxByte: viper.GetInt64(cst.EnvReqBodySizeMaxByte),
			TitleSizeMaxByte:   viper.GetInt64(cst.EnvTitleSizeMaxByte),
			MessageSizeMaxByte: viper.GetInt64(cst.EnvMessageSizeMaxByte),
			WriteRatePerSec:    viper.GetFloat64(cst.EnvWriteRatePerSec),
			WriteBurst:         viper.GetInt(cst.EnvWriteBurst),
		},
	}
	svr.Writer.SetupRoutes()
	log.WithField("capsules", len(seed)).Info("capsule archive ready")
	return svr, nil
}

// setupOracle builds the summarizer. Without an API key the oracle stays silent; without Redis summaries are
// only cached locally.
func setupOracle(svr *chronosServer) (*summary.Oracle, error) {
	apiKey := viper.GetString(cst.EnvOracleAPIKey)
	if apiKey == "" {
		log.Warnf("%s is not set; the oracle stays silent", cst.EnvOracleAPIKey)
		return summary.NewOracle(nil), nil
	}
	completer, err := summary.NewLangchainCompleter(apiKey, viper.GetString(cst.EnvOracleBaseURL), viper.GetString(cst.EnvOracleModel))
	if err != nil {
		return nil, pe.NewServiceFailure("failed initializing oracle").WithCause(err)
	}
	expiry := viper.GetDuration(cst.EnvOracleCacheExpiry)
	cache := summary.TieredCache{summary.NewLocalCache(viper.GetInt(cst.EnvOracleCacheSize), expiry)}
	if viper.GetString(cst.EnvRedisHost) != "" {
		db, err := setupRedis()
		if err != nil {
			return nil, err
		}
		svr.redis = db
		cache = append(cache, summary.NewRedisCache(db, expiry))
	}
	return summary.NewOracle(completer,
		summary.WithTimeout(viper.GetDuration(cst.EnvOracleTimeout)),
		summary.WithRate(viper.GetFloat64(cst.EnvOracleRatePerSec), 1),
		summary.WithCache(cache),
	), nil
}

func setupRedis() (*redis.Client, error) {
	retryOpts := []rt.RetryOption{
		rt.WithTimeout(3 * time.Second),
		rt.WithBaseDelay(100 * time.Millisecond),
		rt.WithExp(2.0),
		rt.WithRetryOn(rt.IsDepOffline),
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%s", viper.GetString(cst.EnvRedisHost), viper.GetString(cst.EnvRedisPort)),
		Password:   viper.GetString(cst.EnvRedisPasswd),
		DB:         viper.GetInt(cst.EnvRedisDB),
		MaxRetries: 3,
	})
	// verify the client is up correctly
	// NOTE docker compose's depends_on feature only guarantee the startup order of *service containers*,
	// instead of the services themselves - It is us who define when the services are ready
	pingFn := func() error {
		_, err := redisClient.Ping().Result()
		return err
	}
	if err := rt.Retry(pingFn, retryOpts...); err != nil {
		redisClient.Close()
		return nil, pe.NewDependencyFailure("failed initializing Redis").WithCause(err)
	}
	return redisClient, nil
}

func sessionSecret() []byte {
	if s := viper.GetString(cst.EnvSessionSecret); s != "" {
		return []byte(s)
	}
	log.Warnf("%s is not set; visitor sessions won't survive a restart", cst.EnvSessionSecret)
	return securecookie.GenerateRandomKey(32)
}
