package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/CodeArche/proofgate/internal/config"
	"github.com/CodeArche/proofgate/internal/mail"
)

func main() {
	configPath := flag.String("config", "", "path to config yaml (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file to load")
	subject := flag.String("subject", "proofgate mail test", "subject of the test message")
	note := flag.String("note", "", "optional text included in the body")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client := mail.NewClient(cfg.Mail)
	if !client.Configured() {
		log.Fatalf("mail is not configured (RESEND_API_KEY, MAIL_FROM and MAIL_TO are required)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body := fmt.Sprintf("<p>Test message sent at %s.</p><p>%s</p>", time.Now().UTC().Format(time.RFC3339), html.EscapeString(*note))
	if err := client.Send(ctx, mail.Message{Subject: *subject, HTML: body}); err != nil {
		log.Fatalf("send: %v", err)
	}

	fmt.Println("test message accepted for", cfg.Mail.To)
}
