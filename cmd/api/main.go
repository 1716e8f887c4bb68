// Command api exposes the wallet authentication HTTP API.
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

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	// Postgres driver
	_ "github.com/lib/pq"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/challenge"
	"github.com/fmitra/walletauth/internal/deviceapi"
	"github.com/fmitra/walletauth/internal/entropy"
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/kafka"
	"github.com/fmitra/walletauth/internal/loginapi"
	"github.com/fmitra/walletauth/internal/mail"
	"github.com/fmitra/walletauth/internal/memstore"
	"github.com/fmitra/walletauth/internal/messaging"
	"github.com/fmitra/walletauth/internal/msgconsumer"
	"github.com/fmitra/walletauth/internal/msgpublisher"
	"github.com/fmitra/walletauth/internal/msgrepo"
	"github.com/fmitra/walletauth/internal/password"
	"github.com/fmitra/walletauth/internal/postgres"
	"github.com/fmitra/walletauth/internal/profileapi"
	"github.com/fmitra/walletauth/internal/sendgrid"
	"github.com/fmitra/walletauth/internal/signupapi"
	"github.com/fmitra/walletauth/internal/token"
	"github.com/fmitra/walletauth/internal/tokenapi"
	"github.com/fmitra/walletauth/internal/trust"
	"github.com/fmitra/walletauth/internal/twilio"
)

func main() {
	var err error

	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var configPath string
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	{
		fs.Bool("api.debug", false, "Enable debug logging")
		fs.String("api.http-addr", ":8080", "Address to listen on")
		fs.String("api.allowed-origins", "*", "Comma separated list of allowed origins")
		fs.String("store", "postgres", "Account storage: postgres or memory")
		fs.String("pg.conn-string", "", "Postgres connection string")
		fs.String("redis.conn-string", "", "Redis connection string, enables token revocation and shared rate limits")
		fs.Int("password.min-length", 8, "Minimum password length")
		fs.Int("password.max-length", 1000, "Maximum password length")
		fs.Int("challenge.code-length", 6, "Challenge code length")
		fs.Duration("challenge.expires-in", time.Minute*10, "Challenge code expiry time")
		fs.Duration("token.pre-auth-expires-in", time.Minute*10, "Pre-authorized token expiry time")
		fs.Duration("token.expires-in", time.Hour*24*7, "Session token expiry time")
		fs.String("token.issuer", "walletauth", "JWT token issuer")
		fs.String("token.secret", "", "JWT token secret")
		fs.Duration("trust.device-ttl", time.Hour*24*30, "How long a remembered device skips challenges")
		fs.String("messaging.mode", "direct", "Challenge delivery: direct or queue")
		fs.String("messaging.queue", "kafka", "Queue for challenge delivery: kafka or memory")
		fs.StringSlice("kafka.brokers", []string{}, "Kafka broker host:port")
		fs.Int("msgconsumer.workers", 4, "Total number of workers to process outgoing messages")
		fs.Int("msgconsumer.max-attempts", 3, "Delivery attempts before a message is dropped")
		fs.String("msgconsumer.sms-limit", "1/s", "Outgoing SMS rate")
		fs.String("msgconsumer.email-limit", "5/s", "Outgoing email rate")
		fs.String("twilio.account-sid", "", "Account SID from Twilio")
		fs.String("twilio.token", "", "Authentication token for Twilio API")
		fs.String("twilio.sms-sender", "", "Origin phone number for outgoing SMS")
		fs.String("mail.provider", "smtp", "Email provider: smtp or sendgrid")
		fs.String("mail.server-addr", "", "Outgoing mail server")
		fs.String("mail.from-addr", "", "Origin email address for outgoing email")
		fs.String("mail.from-name", "Wallet", "Display name for outgoing email")
		fs.String("mail.auth.username", "", "Username for mailing service")
		fs.String("mail.auth.password", "", "Password for mailing service")
		fs.String("mail.auth.hostname", "", "Hostname for mailing service")
		fs.String("sendgrid.api-key", "", "API key for SendGrid")

		fs.StringVar(&configPath, "config", "", "Path to the config file")
		err = fs.Parse(os.Args[1:])
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if err != nil {
			logger.Log("message", "failed to parse cli flags", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}

	if _, err = os.Stat(configPath); configPath != "" && !os.IsNotExist(err) {
		viper.SetConfigFile(configPath)
		err = viper.ReadInConfig()
		if err != nil {
			logger.Log("message", "failed to load config file", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}
	if err = viper.BindPFlags(fs); err != nil {
		logger.Log("message", "failed to load cli flags", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	if viper.GetBool("api.debug") {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if viper.GetString("token.secret") == "" {
		logger.Log("message", "token.secret is required", "source", "cmd/api")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var repoMngr auth.RepositoryManager
	switch viper.GetString("store") {
	case "memory":
		level.Warn(logger).Log(
			"message", "accounts are stored in memory and lost on exit",
			"source", "cmd/api",
		)
		repoMngr = memstore.NewClient(
			memstore.WithLogger(logger),
			memstore.WithEntropy(entropy.New()),
		)
	case "postgres":
		pgDB, err := sql.Open("postgres", viper.GetString("pg.conn-string"))
		if err != nil {
			logger.Log("message", "postgres connection failed", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		if err = pgDB.PingContext(ctx); err != nil {
			logger.Log("message", "postgres did not respond", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		defer func() {
			if err := pgDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close postgres connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}()

		repoMngr = postgres.NewClient(
			postgres.WithLogger(logger),
			postgres.WithEntropy(entropy.New()),
			postgres.WithDB(pgDB),
		)
	default:
		logger.Log("message", "unknown store", "store", viper.GetString("store"), "source", "cmd/api")
		os.Exit(1)
	}

	var redisDB *redis.Client
	if connString := viper.GetString("redis.conn-string"); connString != "" {
		redisConf, err := redis.ParseURL(connString)
		if err != nil {
			logger.Log("message", "invalid redis configuration", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		redisDB = redis.NewClient(redisConf)
		defer func() {
			if err := redisDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close redis connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}()

		if _, err = redisDB.Ping(ctx).Result(); err != nil {
			logger.Log("message", "redis connection failed", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}

	passwordSvc := password.NewPassword(
		password.WithMinLength(viper.GetInt("password.min-length")),
		password.WithMaxLength(viper.GetInt("password.max-length")),
	)

	challengeSvc := challenge.NewService(
		challenge.WithLogger(logger),
		challenge.WithRepoManager(repoMngr),
		challenge.WithCodeLength(viper.GetInt("challenge.code-length")),
		challenge.WithExpiry(viper.GetDuration("challenge.expires-in")),
	)

	trustSvc := trust.NewService(
		trust.WithLogger(logger),
		trust.WithRepoManager(repoMngr),
		trust.WithDeviceTTL(viper.GetDuration("trust.device-ttl")),
	)

	tokenOptions := []token.ConfigOption{
		token.WithLogger(logger),
		token.WithRepoManager(repoMngr),
		token.WithEntropy(entropy.New()),
		token.WithPreAuthExpiry(viper.GetDuration("token.pre-auth-expires-in")),
		token.WithSessionExpiry(viper.GetDuration("token.expires-in")),
		token.WithIssuer(viper.GetString("token.issuer")),
		token.WithSecret(viper.GetString("token.secret")),
	}
	var limiterFactory httpapi.LimiterFactory
	if redisDB != nil {
		tokenOptions = append(tokenOptions, token.WithDB(redisDB))
		limiterFactory = httpapi.NewRateLimiter(redisDB)
	} else {
		limiterFactory = httpapi.NewMemoryRateLimiter()
	}
	tokenSvc := token.NewService(tokenOptions...)

	smsLib := twilio.NewClient(twilio.WithDefaults(
		viper.GetString("twilio.account-sid"),
		viper.GetString("twilio.token"),
		viper.GetString("twilio.sms-sender"),
	))

	var emailLib auth.Emailer
	switch viper.GetString("mail.provider") {
	case "sendgrid":
		emailLib = sendgrid.NewClient(
			viper.GetString("sendgrid.api-key"),
			viper.GetString("mail.from-addr"),
			viper.GetString("mail.from-name"),
		)
	default:
		emailLib = mail.NewService(mail.WithDefaults(
			viper.GetString("mail.server-addr"),
			viper.GetString("mail.from-addr"),
			viper.GetString("mail.from-name"),
			viper.GetString("mail.auth.username"),
			viper.GetString("mail.auth.password"),
			viper.GetString("mail.auth.hostname"),
		))
	}

	var (
		messagingSvc auth.MessagingService
		msgd         msgconsumer.Consumer
	)
	switch viper.GetString("messaging.mode") {
	case "queue":
		var messageRepo auth.MessageRepository
		if viper.GetString("messaging.queue") == "memory" {
			messageRepo = msgrepo.NewService(msgrepo.WithLogger(logger))
		} else {
			k := kafka.NewClient(viper.GetStringSlice("kafka.brokers"))
			messageRepo, err = kafka.NewMessageRepository(k)
			if err != nil {
				logger.Log("message", "message repo init failed", "error", err, "source", "cmd/api")
				os.Exit(1)
			}
		}

		messagingSvc = msgpublisher.NewService(
			messageRepo,
			msgpublisher.WithLogger(logger),
			msgpublisher.WithExpiry(viper.GetDuration("challenge.expires-in")),
		)

		msgd, err = msgconsumer.NewService(
			messageRepo,
			smsLib,
			emailLib,
			msgconsumer.WithLogger(logger),
			msgconsumer.WithWorkers(viper.GetInt("msgconsumer.workers")),
			msgconsumer.WithMaxAttempts(viper.GetInt("msgconsumer.max-attempts")),
			msgconsumer.WithSMSLimit(viper.GetString("msgconsumer.sms-limit")),
			msgconsumer.WithEmailLimit(viper.GetString("msgconsumer.email-limit")),
		)
		if err != nil {
			logger.Log(
				"message", "failed to build messaging daemon",
				"error", err,
				"source", "cmd/api",
			)
			os.Exit(1)
		}
	default:
		messagingSvc = messaging.NewService(smsLib, emailLib, messaging.WithLogger(logger))
	}

	loginAPI := loginapi.NewService(
		loginapi.WithLogger(logger),
		loginapi.WithTokenService(tokenSvc),
		loginapi.WithRepoManager(repoMngr),
		loginapi.WithPassword(passwordSvc),
		loginapi.WithChallenge(challengeSvc),
		loginapi.WithTrust(trustSvc),
		loginapi.WithMessaging(messagingSvc),
	)

	signupAPI := signupapi.NewService(
		signupapi.WithLogger(logger),
		signupapi.WithTokenService(tokenSvc),
		signupapi.WithRepoManager(repoMngr),
		signupapi.WithPassword(passwordSvc),
		signupapi.WithChallenge(challengeSvc),
		signupapi.WithMessaging(messagingSvc),
	)

	profileAPI := profileapi.NewService(
		profileapi.WithLogger(logger),
		profileapi.WithRepoManager(repoMngr),
	)

	deviceAPI := deviceapi.NewService(
		deviceapi.WithLogger(logger),
		deviceapi.WithTrust(trustSvc),
	)

	tokenAPI := tokenapi.NewService(
		tokenapi.WithLogger(logger),
		tokenapi.WithTokenService(tokenSvc),
	)

	router := mux.NewRouter()
	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	loginapi.SetupHTTPHandler(loginAPI, router, tokenSvc, logger, limiterFactory)
	signupapi.SetupHTTPHandler(signupAPI, router, tokenSvc, logger, limiterFactory)
	profileapi.SetupHTTPHandler(profileAPI, router, tokenSvc, logger, limiterFactory)
	deviceapi.SetupHTTPHandler(deviceAPI, router, tokenSvc, logger, limiterFactory)
	tokenapi.SetupHTTPHandler(tokenAPI, router, tokenSvc, logger, limiterFactory)

	server := http.Server{
		Addr: viper.GetString("api.http-addr"),
		Handler: handlers.CORS(
			handlers.AllowedOrigins(strings.Split(
				viper.GetString("api.allowed-origins"), ","),
			),
			handlers.AllowedHeaders([]string{
				"X-Requested-With",
				"Content-Type",
				"Authorization",
			}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"}),
		)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	var g run.Group
	{
		g.Add(func() error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case s := <-sig:
				return fmt.Errorf("signal received: %v", s)
			case <-ctx.Done():
				return ctx.Err()
			}
		}, func(err error) {
			logger.Log("message", "program was interrupted", "error", err, "source", "cmd/api")
			cancel()
		})
	}
	if msgd != nil {
		g.Add(func() error {
			logger.Log(
				"message", "message daemon is starting to check messages",
				"source", "cmd/api",
			)
			return msgd.Run(ctx)
		}, func(err error) {
			cancel()
			logger.Log(
				"message", "message daemon was shut down",
				"error", err,
				"source", "cmd/api",
			)
		})
	}
	{
		g.Add(func() error {
			logger.Log(
				"message", "API server is starting",
				"address", server.Addr,
				"messaging", viper.GetString("messaging.mode"),
				"store", viper.GetString("store"),
				"source", "cmd/api",
			)
			return server.ListenAndServe()
		}, func(err error) {
			logger.Log(
				"message", "API server was interrupted",
				"error", err,
				"source", "cmd/api",
			)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			logger.Log(
				"message", "API server shut down",
				"error", server.Shutdown(shutdownCtx),
				"source", "cmd/api",
			)
		})
	}

	err = g.Run()
	logger.Log("message", "actors stopped", "error", err, "source", "cmd/api")
}
