package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/campora/taskgate-backend/internal/client"
	"github.com/campora/taskgate-backend/internal/logger"
	"github.com/campora/taskgate-backend/internal/session"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// examcli drives an exam attempt against a running TaskGate server:
// it reconstructs the session, starts the timer, runs the local
// countdown with periodic resync, and submits answers.
func main() {
	var (
		baseURL   = flag.String("base-url", "http://localhost:8080/api/v1", "API base URL")
		token     = flag.String("token", os.Getenv("TASKGATE_TOKEN"), "student JWT (defaults to TASKGATE_TOKEN)")
		taskIDStr = flag.String("task", "", "task UUID")
		answers   = flag.String("answers", "", "path to JSON file mapping question UUID to answer text")
		fileURL   = flag.String("file-url", "", "uploaded file URL for file-answer tasks")
		logLevel  = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	log := logger.Setup(*logLevel, "pretty")

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	taskID, err := uuid.Parse(*taskIDStr)
	if err != nil {
		log.Fatal().Str("task", *taskIDStr).Msg("A valid -task UUID is required")
	}
	if *token == "" {
		log.Fatal().Msg("A student token is required (-token or TASKGATE_TOKEN)")
	}

	cfg := client.Config{BaseURL: *baseURL, Token: *token}
	ctx := context.Background()

	ctrl, err := buildController(ctx, cfg, taskID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Session setup failed")
	}
	defer ctrl.Close()

	switch command {
	case "status":
		runStatus(ctx, ctrl)
	case "take":
		runTake(ctx, ctrl, log)
	case "submit":
		runSubmit(ctx, ctrl, *answers, *fileURL, log)
	default:
		printUsage()
		os.Exit(2)
	}
}

func buildController(ctx context.Context, cfg client.Config, taskID uuid.UUID, log zerolog.Logger) (*session.Controller, error) {
	task, err := client.NewTaskClient(cfg).GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}

	// The student id inside the controller is informational here; the
	// server scopes every call by the bearer token.
	ctrl, err := session.NewController(
		task,
		uuid.Nil,
		client.NewTimerClient(cfg),
		client.NewSubmissionClient(cfg),
		nil,
		log,
	)
	if err != nil {
		return nil, err
	}

	if _, err := ctrl.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	return ctrl, nil
}

func runStatus(_ context.Context, ctrl *session.Controller) {
	snap := ctrl.Snapshot()
	fmt.Printf("status:    %s\n", snap.Status)
	if snap.Status == session.StatusInProgress {
		fmt.Printf("remaining: %s\n", session.FormatRemaining(time.Duration(snap.RemainingSeconds)*time.Second))
	}
}

func runTake(ctx context.Context, ctrl *session.Controller, log zerolog.Logger) {
	ctrl.OnWarning(func(remainingSeconds int) {
		fmt.Printf("\n*** 5 minutes remaining ***\n")
	})

	snap := ctrl.Snapshot()
	switch snap.Status {
	case session.StatusNotStarted:
		remaining, err := ctrl.Start(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Start failed")
		}
		fmt.Printf("started, %s on the clock\n", session.FormatRemaining(time.Duration(remaining)*time.Second))
	case session.StatusInProgress:
		fmt.Printf("resuming, %s left\n", session.FormatRemaining(time.Duration(snap.RemainingSeconds)*time.Second))
	default:
		fmt.Printf("session is %s, nothing to do\n", snap.Status)
		return
	}

	resync := time.NewTicker(30 * time.Second)
	defer resync.Stop()
	display := time.NewTicker(time.Second)
	defer display.Stop()

	for {
		select {
		case <-resync.C:
			if _, err := ctrl.Resync(ctx); err != nil {
				log.Warn().Err(err).Msg("Resync failed, keeping local countdown")
			}
		case <-display.C:
			snap := ctrl.Snapshot()
			if snap.Status != session.StatusInProgress {
				fmt.Printf("\nsession %s\n", snap.Status)
				return
			}
			fmt.Printf("\r%s remaining ", session.FormatRemaining(time.Duration(snap.RemainingSeconds)*time.Second))
		}
	}
}

func runSubmit(ctx context.Context, ctrl *session.Controller, answersPath, fileURL string, log zerolog.Logger) {
	draft := submission.Draft{Answers: map[uuid.UUID]string{}}
	if fileURL != "" {
		draft.FileURL = &fileURL
	}
	if answersPath != "" {
		raw, err := os.ReadFile(answersPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Read answers file failed")
		}
		if err := json.Unmarshal(raw, &draft.Answers); err != nil {
			log.Fatal().Err(err).Msg("Answers file must map question UUIDs to answer text")
		}
	}

	sub, err := ctrl.Submit(ctx, draft)
	if err != nil {
		var valErr *submission.ValidationError
		if errors.As(err, &valErr) {
			fmt.Println("submission rejected:")
			for _, issue := range valErr.Issues {
				if issue.QuestionID != uuid.Nil {
					fmt.Printf("  %s (question %s)\n", issue.Code, issue.QuestionID)
				} else {
					fmt.Printf("  %s\n", issue.Code)
				}
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Submit failed")
	}

	fmt.Printf("submitted at %s (%s)\n", sub.SubmittedAt.Format(time.RFC3339), sub.Status)
}

func printUsage() {
	fmt.Println("Usage: examcli [flags] <command>")
	fmt.Println("Commands:")
	fmt.Println("  status   show the session state for -task")
	fmt.Println("  take     start (or resume) the exam and run the countdown")
	fmt.Println("  submit   submit -answers file.json and/or -file-url")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
