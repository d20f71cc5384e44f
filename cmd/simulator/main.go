// Command simulator fires synthetic farmer questions at a running FarmAssist
// server. Useful for smoke testing a deployment and for watching the
// fallback ladder under load.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

var (
	serverURL = flag.String("server", "http://localhost:8000", "FarmAssist server base URL")
	userID    = flag.String("user", "simulator", "external user id to send")
	count     = flag.Int("count", 10, "number of questions to send")
	interval  = flag.Duration("interval", time.Second, "pause between questions")
	withGPS   = flag.Bool("gps", true, "attach Dhaka coordinates")
	verbose   = flag.Bool("verbose", false, "enable verbose logging")
)

var questions = []string{
	"আমার ধানের পাতা হলুদ হয়ে যাচ্ছে, কী করব?",
	"When should I plant tomatoes this season?",
	"টমেটো গাছে পোকা ধরেছে",
	"How much urea should I apply per acre of rice?",
	"আলু সংরক্ষণ করার সেরা উপায় কী?",
	"My potato leaves have dark spots, is it a disease?",
}

type chatPayload struct {
	Message string   `json:"message"`
	UserID  string   `json:"user_id"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

type chatResponse struct {
	Transcript string `json:"transcript"`
	Reply      string `json:"reply_text"`
	Language   string `json:"language"`
	TTSPath    string `json:"tts_path"`
}

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := &http.Client{Timeout: 2 * time.Minute}
	endpoint := *serverURL + "/api/v1/advisory/chat"

	logger.Info("Starting advisory simulator",
		zap.String("endpoint", endpoint),
		zap.Int("count", *count),
	)

	failures := 0
	for i := 0; i < *count; i++ {
		question := questions[i%len(questions)]
		if err := sendQuestion(client, endpoint, question, logger); err != nil {
			failures++
			logger.Error("Question failed", zap.Error(err))
		}
		time.Sleep(*interval)
	}

	logger.Info("Simulation complete",
		zap.Int("sent", *count),
		zap.Int("failures", failures),
	)
	if failures > 0 {
		os.Exit(1)
	}
}

func sendQuestion(client *http.Client, endpoint, question string, logger *zap.Logger) error {
	payload := chatPayload{
		Message: question,
		UserID:  *userID,
	}
	if *withGPS {
		lat, lon := 23.8103, 90.4125
		payload.Lat = &lat
		payload.Lon = &lon
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	logger.Info("Advisory received",
		zap.String("question", question),
		zap.String("language", result.Language),
		zap.Int("reply_chars", len(result.Reply)),
		zap.Bool("speech", result.TTSPath != ""),
	)
	return nil
}
