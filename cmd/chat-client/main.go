package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mamafit-chat/internal/chat"
	"mamafit-chat/internal/config"
	"mamafit-chat/internal/domain"
	"mamafit-chat/internal/history"
	"mamafit-chat/internal/observability"
	"mamafit-chat/internal/transport"

	"github.com/spf13/pflag"
)

func main() {
	cfg := config.Load()

	fs := pflag.NewFlagSet("chat-client", pflag.ContinueOnError)
	var (
		serverURL  = fs.StringP("server-url", "s", cfg.ServerURL, "websocket endpoint of the chat hub")
		historyURL = fs.StringP("history-url", "r", cfg.HistoryURL, "base URL of the history REST API")
		userID     = fs.StringP("user-id", "u", cfg.UserID, "current user id")
		userName   = fs.StringP("user-name", "n", cfg.UserName, "current user display name")
		logLevel   = fs.StringP("log-level", "l", "info", "log level")
		logFormat  = fs.String("log-format", "text", "log format (text or json)")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	observability.InitLogger(*logLevel, *logFormat)

	if *userID == "" {
		observability.Error("user id is required (set CHAT_USER_ID or --user-id)")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := transport.NewWSClient(*serverURL)
	if cfg.AuthToken != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.AuthToken)
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dialCancel()
	if err := client.Connect(dialCtx); err != nil {
		observability.Error("failed to connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Close()
	observability.Info("connected", slog.String("server", *serverURL))

	hist := history.NewClient(*historyURL)
	if cfg.AuthToken != "" {
		hist.SetToken(cfg.AuthToken)
	}
	session := chat.NewSession(client, hist, *userID, *userName)
	session.SetHistoryLimit(cfg.HistoryLimit)
	session.Start()
	defer session.Close()

	monitor := chat.NewMonitor(client, cfg.PollInterval, func(connected bool) {
		if connected {
			observability.Info("connection restored")
		} else {
			observability.Warn("connection lost")
		}
	})
	go monitor.Run(ctx)

	rooms, err := session.LoadRooms(ctx)
	if err != nil {
		observability.Error("failed to load rooms", slog.String("error", err.Error()))
	} else {
		printRooms(rooms, *userID)
	}

	fmt.Println(`commands: /rooms, /join <id>, /history <id>, /create <userId>, /send <id> <text>, /quit`)
	go readCommands(ctx, cancel, session, *userID)

	<-ctx.Done()
	observability.Info("shutting down")
}

func readCommands(ctx context.Context, cancel context.CancelFunc, session *chat.Session, userID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit":
			cancel()
			return
		case "/rooms":
			printRooms(session.Rooms(), userID)
		case "/join":
			if len(fields) < 2 {
				fmt.Println("usage: /join <roomId>")
				continue
			}
			if err := session.JoinRoom(ctx, fields[1]); err != nil {
				fmt.Printf("join failed: %v\n", err)
			}
		case "/history":
			if len(fields) < 2 {
				fmt.Println("usage: /history <roomId>")
				continue
			}
			if err := session.SyncHistory(ctx, fields[1]); err != nil {
				fmt.Printf("history failed: %v\n", err)
				continue
			}
			for _, msg := range session.Messages(fields[1]) {
				fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format(time.Kitchen), msg.Sender, msg.Text)
			}
		case "/create":
			if len(fields) < 2 {
				fmt.Println("usage: /create <userId>")
				continue
			}
			room, err := session.CreateRoom(ctx, userID, fields[1])
			if err != nil {
				fmt.Printf("create failed: %v\n", err)
				continue
			}
			fmt.Printf("created room %s\n", room.ID)
		case "/send":
			if len(fields) < 3 {
				fmt.Println("usage: /send <roomId> <text>")
				continue
			}
			session.SendMessage(ctx, fields[1], strings.Join(fields[2:], " "))
			if msg := session.Err(); msg != "" {
				fmt.Printf("send error: %s\n", msg)
				session.ClearErr()
			}
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func printRooms(rooms []domain.Room, userID string) {
	if len(rooms) == 0 {
		fmt.Println("no rooms")
		return
	}
	for _, room := range rooms {
		fmt.Printf("%s  %-30s  %s\n", room.ID, room.DisplayName(userID), room.LastMessage)
	}
}
