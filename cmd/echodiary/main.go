// Command echodiary runs a voice journaling session from the terminal using
// the local microphone and speaker. Ctrl-C ends the session, summarizes the
// conversation, and prints the journal entry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/adapters/gemini"
	"github.com/echodiary/echodiary/adapters/mic"
	"github.com/echodiary/echodiary/adapters/speaker"
	"github.com/echodiary/echodiary/domain/entities"
	"github.com/echodiary/echodiary/internal/audio"
	"github.com/echodiary/echodiary/internal/playback"
	"github.com/echodiary/echodiary/usecase"
)

func main() {
	godotenv.Load()

	personaFlag := flag.String("persona", string(entities.PersonaWarmHealer),
		"assistant persona: "+personaList())
	noGreeting := flag.Bool("no-greeting", false, "skip the spoken greeting")
	flag.Parse()

	persona := entities.Persona(*personaFlag)
	if !persona.Valid() {
		fmt.Fprintf(os.Stderr, "unknown persona %q, valid values: %s\n", *personaFlag, personaList())
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	ctx := context.Background()

	client, err := gemini.NewClient(ctx, gemini.NewConfigFromEnv(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "model client: %v\n", err)
		os.Exit(1)
	}

	spk, clock, err := speaker.NewSpeaker(speaker.DefaultSampleRate, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "speaker: %v\n", err)
		os.Exit(1)
	}
	scheduler := playback.NewScheduler(clock, spk, logger)
	defer scheduler.Close()

	capture := mic.NewCapture(mic.Config{}, logger)
	journal := usecase.NewJournalService(client, logger)

	if !*noGreeting {
		playGreeting(ctx, client, scheduler, persona, journal)
	}

	session := usecase.NewJournalSession(client, capture, scheduler, journal.Entries,
		usecase.SessionConfig{Persona: persona}, logger)
	session.OnTranscript(printTranscript)

	failed := make(chan error, 1)
	session.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})

	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start session: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("錄音中，按 Ctrl-C 結束並產生日記。")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
		fmt.Println("\n結束對話，整理日記中…")
	case err := <-failed:
		fmt.Fprintf(os.Stderr, "\n連線中斷: %v，整理目前的日記中…\n", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	log, err := session.Stop(stopCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stop session: %v\n", err)
		os.Exit(1)
	}

	entry, err := journal.Record(stopCtx, log, persona)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarize: %v\n", err)
		os.Exit(1)
	}
	if entry == nil {
		fmt.Println("沒有對話內容，未建立日記。")
		return
	}
	printEntry(entry)
}

func personaList() string {
	personas := entities.Personas()
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// playGreeting synthesizes the opening line and queues it on the scheduler.
// Failures are not fatal; the session simply starts without a greeting.
func playGreeting(ctx context.Context, client *gemini.Client, scheduler *playback.Scheduler, persona entities.Persona, journal *usecase.JournalService) {
	greetCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	payload, sampleRate, err := client.GreetingAudio(greetCtx, persona, journal.Entries())
	if err != nil {
		fmt.Fprintf(os.Stderr, "greeting skipped: %v\n", err)
		return
	}
	raw, err := audio.DecodeBase64(payload)
	if err != nil {
		return
	}
	buf, err := audio.DecodePCM(raw, sampleRate, speaker.DefaultSampleRate, 1)
	if err != nil {
		return
	}
	scheduler.Schedule(buf)
}

func printTranscript(lines []entities.TranscriptLine) {
	if len(lines) == 0 {
		return
	}
	last := lines[len(lines)-1]
	fmt.Printf("\r\033[K%s: %s", last.Speaker.Label(), last.Text)
	os.Stdout.Sync()
}

func printEntry(entry *entities.JournalEntry) {
	fmt.Println()
	fmt.Println("────────────────────────────")
	fmt.Printf("標題：%s\n", entry.Title)
	fmt.Printf("日期：%s\n", entry.Date.Format("2006-01-02"))
	fmt.Printf("心情：%s\n", entry.Mood)
	fmt.Printf("摘要：%s\n", entry.Summary)
	if len(entry.Events) > 0 {
		fmt.Printf("事件:\n")
		for _, ev := range entry.Events {
			fmt.Printf("  - %s\n", ev)
		}
	}
	if len(entry.Tags) > 0 {
		fmt.Printf("標籤：%s\n", strings.Join(entry.Tags, "、"))
	}
	fmt.Println("────────────────────────────")
}
