package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
	"github.com/veksh/crpt-docs-client/internal/client"
	"github.com/veksh/crpt-docs-client/internal/config"
	"github.com/veksh/crpt-docs-client/internal/model"
	"github.com/veksh/crpt-docs-client/internal/stats"
)

// set at build time: go build -ldflags "-X main.version=v1.2.3"
var version string = "dev"

func main() {
	var (
		configPath string
		apiURL     string
		signature  string
		debug      bool
	)

	flag.StringVar(&configPath, "config", "", "path to yaml config file")
	flag.StringVar(&apiURL, "url", "", "document create endpoint (overrides config)")
	flag.StringVar(&signature, "signature", "", "document signature (overrides config)")
	flag.BoolVar(&debug, "debug", false, "set to true to log at debug level")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(2)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if signature != "" {
		cfg.Signature = signature
	}
	level := hclog.LevelFromString(cfg.LogLevel)
	if debug {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "crpt-docs",
		Level: level,
	})
	logger.Debug("starting", "version", version)

	os.Exit(run(logger, cfg))
}

func run(logger hclog.Logger, cfg config.Config) int {
	var recorder stats.Recorder = stats.NewMemoryRecorder()
	if cfg.StatsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.StatsRedisAddr})
		defer rdb.Close()
		recorder = stats.NewRedisRecorder(rdb)
	}

	c, err := client.NewClient(cfg.Window, cfg.RequestLimit,
		client.WithLogger(logger),
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithRecorder(recorder))
	if err != nil {
		logger.Error("cannot create client", "error", err)
		return 2
	}
	defer c.Close()

	doc := sampleDocument()
	res, err := c.Submit(context.Background(), cfg.APIURL, &doc, cfg.Signature)
	if err != nil {
		logger.Error("cannot submit document", "error", err)
		return 2
	}
	fmt.Println(res)
	if res.Outcome != model.OUT_ACCEPTED {
		return 1
	}
	return 0
}

func sampleDocument() model.Document {
	return model.Document{
		Description:    model.Description{ParticipantINN: "1234567890"},
		DocID:          uuid.NewString(),
		DocStatus:      "docStatus",
		DocType:        "LP_INTRODUCE_GOODS",
		ImportRequest:  true,
		OwnerINN:       "ownerInn",
		ParticipantINN: "participantInn",
		ProducerINN:    "producerInn",
		ProductionDate: "2024-01-01",
		ProductionType: "productionType",
		Products: []model.Product{{
			CertificateDocument:       "certDoc",
			CertificateDocumentDate:   "2024-01-01",
			CertificateDocumentNumber: "12345",
			OwnerINN:                  "ownerInn",
			ProducerINN:               "producerInn",
			ProductionDate:            "2024-01-01",
			TnvedCode:                 "tnvedCode",
			UITCode:                   "uitCode",
			UITUCode:                  "uituCode",
		}},
		RegDate:   "2024-01-01",
		RegNumber: "regNumber",
	}
}
