package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olprint/storefront/app"
	"github.com/olprint/storefront/chat"
	"github.com/olprint/storefront/core"
	"github.com/olprint/storefront/genai"
	"github.com/olprint/storefront/prefs"
	"github.com/olprint/storefront/telemetry"
)

func main() {
	// 1. Load configuration (env overrides defaults, fail fast)
	cfg, err := core.NewConfig(core.WithName("olprint-storefront"))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := core.NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name)

	// 2. Telemetry before the AI client so its spans have somewhere to go.
	// Spans go to stderr in development mode only; the REPL owns stdout.
	var tel core.Telemetry = &core.NoOpTelemetry{}
	var telShutdown func(context.Context) error
	if cfg.Development.Enabled {
		provider, err := telemetry.NewOTelProvider(cfg.Name, os.Stderr)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
		tel = provider
		telShutdown = provider.Shutdown
	}
	defer func() {
		if telShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = telShutdown(ctx)
		}
	}()

	// 3. Hosted API client
	client := genai.NewClient(cfg, logger)
	client.SetTelemetry(tel)

	// 4. Preference store: Redis when configured, in-process otherwise
	var memory core.Memory
	if cfg.Redis.URL != "" {
		redisMemory, err := prefs.NewRedisMemory(cfg.Redis.URL, logger)
		if err != nil {
			log.Fatalf("Failed to connect preference store: %v", err)
		}
		defer redisMemory.Close()
		memory = redisMemory
	} else {
		memory = core.NewMemoryStore()
	}

	// 5. Assemble the storefront
	storefront := app.New(cfg, client, memory, logger,
		app.WithTelemetry(tel),
		app.WithMediaGenerator(client),
	)
	defer storefront.Close()

	if err := storefront.Start(); err != nil {
		log.Fatalf("Failed to start storefront: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runREPL(ctx, storefront)

	logger.Info("Storefront shutting down", map[string]interface{}{
		"operation": "shutdown",
	})
}

// runREPL drives an interactive chat with the assistant plus a few
// storefront commands. Exits on EOF, /sair, or signal.
func runREPL(ctx context.Context, storefront *app.App) {
	fmt.Println(chat.Greeting)
	fmt.Println(`(Comandos: /carrinho /encomendas /notificacoes /tema /produtos /sair)`)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "/sair" {
				return
			}
			handleLine(ctx, storefront, line)
		}
	}
}

func handleLine(ctx context.Context, storefront *app.App, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	switch {
	case line == "/carrinho":
		items := storefront.Cart.Items()
		if len(items) == 0 {
			fmt.Println("O carrinho está vazio.")
			return
		}
		for _, item := range items {
			fmt.Printf("%dx %s — €%.2f\n", item.Quantity, item.Product.Name, item.Product.Price*float64(item.Quantity))
		}
		fmt.Printf("Subtotal: €%.2f\n", storefront.Cart.Subtotal())

	case line == "/encomendas":
		for _, o := range storefront.Orders.List() {
			fmt.Printf("%s (%s) — %s — €%.2f\n", o.ID, o.Date, o.Status, o.Total)
		}

	case line == "/notificacoes":
		notifications := storefront.Notifications.List()
		if len(notifications) == 0 {
			fmt.Println("Sem notificações.")
			return
		}
		for _, n := range notifications {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("%s %s — %s\n", marker, n.Title, n.Message)
		}
		storefront.Notifications.MarkAllRead()

	case line == "/tema":
		dark, err := storefront.Theme.Toggle(ctx)
		if err != nil {
			fmt.Printf("Não foi possível guardar a preferência: %v\n", err)
			return
		}
		if dark {
			fmt.Println("Tema escuro ativado.")
		} else {
			fmt.Println("Tema claro ativado.")
		}

	case line == "/produtos":
		for _, p := range storefront.Catalog.List() {
			fmt.Printf("[%s] %s (%s) — €%.2f\n", p.ID, p.Name, p.Category, p.Price)
		}

	case strings.HasPrefix(line, "#"):
		view := storefront.Navigate(line)
		fmt.Printf("Vista atual: %s\n", view)

	default:
		sendChatMessage(ctx, storefront, line)
	}
}

func sendChatMessage(ctx context.Context, storefront *app.App, text string) {
	msg, err := storefront.ChatSession().SendMessage(ctx, text)
	switch {
	case errors.Is(err, core.ErrTurnInFlight):
		fmt.Println("Aguarde a resposta anterior.")
		return
	case errors.Is(err, core.ErrEmptyMessage):
		return
	}

	fmt.Println(msg.Text)
	for _, link := range msg.Grounding {
		fmt.Printf("  fonte: %s (%s)\n", link.Title, link.URI)
	}
}
