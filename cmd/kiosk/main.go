package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	brokerclient "github.com/tabletalk/tabletalk/adapters/broker"
	"github.com/tabletalk/tabletalk/adapters/orders"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/eventstore"
	"github.com/tabletalk/tabletalk/internal/realtime"
	"github.com/tabletalk/tabletalk/usecase"
)

const audioChunkSize = 3200 // 100ms of 16kHz 16-bit mono PCM

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()

	var (
		brokerURL    = flag.String("broker", "http://localhost:8080", "credential broker base URL")
		ordersURL    = flag.String("orders", "http://localhost:8081", "order API base URL")
		restaurantID = flag.String("restaurant", "demo", "restaurant id")
		tableID      = flag.String("table", "table-1", "table id")
		seat         = flag.Int("seat", 1, "seat number")
		audioFile    = flag.String("audio", "", "optional PCM audio file to stream")
	)
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	audit, err := eventstore.Open(context.Background(), cfg.Audit.Path, logger)
	if err != nil {
		logger.Warn("Audit store unavailable, continuing without it", zap.Error(err))
		audit = nil
	} else {
		defer audit.Close()
	}

	// One broker client serves both credential minting and catalog reads
	brokerAPI := brokerclient.NewClient(*brokerURL, logger)
	orderAPI := orders.NewClient(*ordersURL, logger)

	controller := usecase.NewOrderSessionController(
		*restaurantID,
		brokerAPI,
		brokerAPI,
		orderAPI,
		func() usecase.Transport {
			return realtime.NewTransport(cfg.Speech.URL, cfg.Speech.Instructions, logger)
		},
		audit,
		logger,
	)

	ctx := context.Background()
	if err := controller.StartSeat(ctx, *tableID, *seat); err != nil {
		logger.Fatal("Failed to start seat", zap.Error(err))
	}
	logger.Info("Seat started, listening",
		zap.String("table", *tableID),
		zap.Int("seat", *seat))

	if *audioFile != "" {
		go streamAudioFile(controller, *audioFile, logger)
	}

	// Print the live state until interrupted, then submit and finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			printState(controller)
		case <-quit:
			submitAndExit(ctx, controller, logger)
			return
		}
	}
}

func printState(controller *usecase.OrderSessionController) {
	if caption := controller.Caption(); caption != "" {
		fmt.Printf("  %s\n", caption)
	}
	if notice := controller.Notice(); notice != "" {
		fmt.Printf("! %s\n", notice)
	}
	for i, item := range controller.Items() {
		fmt.Printf("%d. %dx %s ($%d.%02d)\n", i+1, item.Quantity, item.Name,
			item.UnitPriceCents/100, item.UnitPriceCents%100)
	}
	for _, unmatched := range controller.UnmatchedItems() {
		fmt.Printf("?? %s (not on the menu)\n", unmatched.Name)
	}
}

func submitAndExit(ctx context.Context, controller *usecase.OrderSessionController, logger *zap.Logger) {
	defer controller.FinishTable()

	if len(controller.Items()) == 0 {
		logger.Info("Nothing to submit")
		return
	}

	submitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	created, err := controller.SubmitSeatOrder(submitCtx)
	if err != nil {
		logger.Error("Submission failed, order preserved for retry", zap.Error(err))
		return
	}
	logger.Info("Order submitted", zap.String("orderID", created.ID))
}

// streamAudioFile feeds a recorded PCM file through the controller in
// realtime-sized chunks, standing in for a live microphone.
func streamAudioFile(controller *usecase.OrderSessionController, path string, logger *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read audio file", zap.String("path", path), zap.Error(err))
		return
	}

	for start := 0; start < len(data); start += audioChunkSize {
		end := start + audioChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := controller.SendAudio(data[start:end]); err != nil {
			logger.Warn("Audio frame rejected", zap.Error(err))
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("Finished streaming audio file", zap.Int("bytes", len(data)))
}
