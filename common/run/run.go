// Package run ties the process together: flags, logging, core init and
// the main run loop with graceful shutdown.
package run

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/electriccapital/cryptobot/bot"
	"github.com/electriccapital/cryptobot/common"
	"github.com/electriccapital/cryptobot/common/config"
	"github.com/electriccapital/cryptobot/common/sentryhook"
	"github.com/getsentry/sentry-go"
	"github.com/natefinch/lumberjack"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	flagDryRun       bool
	flagLogTimestamp bool
	flagVersion      bool
)

var (
	confSentryDSN      = config.RegisterOption("cryptobot.sentry_dsn", "Sentry dsn for the error reporting hook", "")
	confLogFile        = config.RegisterOption("cryptobot.log_file", "Also log to this file, rotated with lumberjack", "")
	confMetricsAddress = config.RegisterOption("cryptobot.metrics_address", "Address to serve prometheus metrics on, empty to disable", "")
)

func init() {
	flag.BoolVar(&flagDryRun, "dry", false, "Do a dry run, initialize everything but don't connect to discord")
	flag.BoolVar(&flagLogTimestamp, "ts", false, "Set to include timestamps in log")
	flag.BoolVar(&flagVersion, "version", false, "Print the version and exit")
}

func Init() {
	if !flag.Parsed() {
		flag.Parse()
	}

	if flagVersion {
		fmt.Println(common.VERSION)
		os.Exit(0)
	}

	common.AddLogHook(common.ContextHook{})
	common.SetLogFormatter(&logrus.TextFormatter{
		DisableTimestamp: !flagLogTimestamp,
		ForceColors:      common.Testing,
	})

	log.SetOutput(&common.STDLogProxy{})
	log.SetFlags(0)

	logrus.Info("Starting CryptoBot version " + common.VERSION)

	err := common.CoreInit(true)
	if err != nil {
		logrus.WithError(err).Fatal("Failed running core init")
	}

	if confLogFile.GetString() != "" {
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   confLogFile.GetString(),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
		}))
	}

	if confSentryDSN.GetString() != "" {
		addSentryHook()
	}
}

func Run() {
	if flagDryRun {
		logrus.Info("This is a dry run, exiting")
		return
	}

	if confMetricsAddress.GetString() != "" {
		go serveMetrics(confMetricsAddress.GetString())
	}

	go bot.Run()

	common.SetShutdownFunc(shutdown)
	listenSignal()
}

func addSentryHook() {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:     confSentryDSN.GetString(),
		Release: common.VERSION,
	})

	if err != nil {
		logrus.WithError(err).Error("failed initializing sentry")
		return
	}

	common.AddLogHook(sentryhook.Hook{})
	logrus.Info("Added sentry hook")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logrus.Info("Serving metrics on ", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		logrus.WithError(err).Error("failed serving metrics")
	}
}

func listenSignal() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	common.Shutdown()
}

func shutdown() {
	logrus.Info("SHUTTING DOWN...")

	bot.Stop()

	// give sentry a chance to drain before the process goes away
	sentry.Flush(time.Second * 5)

	logrus.Info("Bye..")
	os.Exit(0)
}
