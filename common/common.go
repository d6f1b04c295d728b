package common

import (
	"fmt"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"github.com/electriccapital/cryptobot/common/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const VERSION = "1.2.0"

var (
	// PQ is the main postgres handle, every component persists through it
	PQ *sqlx.DB

	// BotSession is the active discord session, set by the bot package
	BotSession *discordgo.Session

	// Testing is true when running under go test
	Testing bool

	logger = logrus.WithField("p", "common")
)

var (
	confPQHost     = config.RegisterOption("cryptobot.pq_host", "Postgres host", "localhost")
	confPQPort     = config.RegisterOption("cryptobot.pq_port", "Postgres port", 5432)
	confPQDB       = config.RegisterOption("cryptobot.pq_db", "Postgres database name", "cryptobot")
	confPQUsername = config.RegisterOption("cryptobot.pq_username", "Postgres user", "postgres")
	confPQPassword = config.RegisterOption("cryptobot.pq_password", "Postgres password", "")
	confPQSSLMode  = config.RegisterOption("cryptobot.pq_sslmode", "Postgres sslmode", "disable")

	confMaxSQLConns = config.RegisterOption("cryptobot.sql_max_conns", "Max postgres connections", 10)
)

// CoreInit loads the config and connects to postgres, it has to be called
// before Init and before any plugin is used.
func CoreInit(loadConfig bool) error {
	if loadConfig {
		config.AddSource(&config.EnvSource{})
		config.Load()
	}

	err := connectDB()
	if err != nil {
		return errors.WrapIf(err, "connectdb")
	}

	return nil
}

func connectDB() error {
	passwordPart := ""
	if confPQPassword.GetString() != "" {
		passwordPart = " password='" + confPQPassword.GetString() + "'"
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s%s",
		confPQHost.GetString(), confPQPort.GetInt(), confPQUsername.GetString(),
		confPQDB.GetString(), confPQSSLMode.GetString(), passwordPart)

	// the database is frequently not up yet when we get started, so retry
	// with backoff for a little while before giving up
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	var db *sqlx.DB
	err := backoff.Retry(func() error {
		var err error
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			logger.WithError(err).Warn("failed connecting to postgres, retrying...")
		}
		return err
	}, policy)

	if err != nil {
		return err
	}

	db.SetMaxOpenConns(confMaxSQLConns.GetInt())
	PQ = db
	return nil
}

// InitSchemas applies a set of plugin owned schema statements, matching the
// convention that every statement is written to be re-runnable
// (CREATE TABLE IF NOT EXISTS and friends).
func InitSchemas(name string, schemas ...string) {
	for i, v := range schemas {
		_, err := PQ.Exec(v)
		if err != nil {
			logger.WithError(err).Fatalf("failed applying schema %d for %s", i, name)
		}
	}
}

var (
	shutdownFunc   func()
	shutdownOnce   sync.Once
	shutdownFuncmu sync.Mutex
)

// SetShutdownFunc sets the function called on graceful shutdown
func SetShutdownFunc(f func()) {
	shutdownFuncmu.Lock()
	shutdownFunc = f
	shutdownFuncmu.Unlock()
}

// Shutdown runs the shutdown function once
func Shutdown() {
	shutdownOnce.Do(func() {
		shutdownFuncmu.Lock()
		f := shutdownFunc
		shutdownFuncmu.Unlock()

		if f != nil {
			f()
		}
	})
}
