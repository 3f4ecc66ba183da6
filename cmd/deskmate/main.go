package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Choi-Sungyun0716/deskmate/internal/bus"
	"github.com/Choi-Sungyun0716/deskmate/internal/catalog"
	"github.com/Choi-Sungyun0716/deskmate/internal/dispatch"
	"github.com/Choi-Sungyun0716/deskmate/internal/extract"
	"github.com/Choi-Sungyun0716/deskmate/internal/llm"
	"github.com/Choi-Sungyun0716/deskmate/internal/oracle"
	"github.com/Choi-Sungyun0716/deskmate/internal/planner"
	"github.com/Choi-Sungyun0716/deskmate/internal/router"
	"github.com/Choi-Sungyun0716/deskmate/internal/session"
	"github.com/Choi-Sungyun0716/deskmate/internal/state"
	"github.com/Choi-Sungyun0716/deskmate/internal/tracelog"
	"github.com/Choi-Sungyun0716/deskmate/internal/types"
	"github.com/Choi-Sungyun0716/deskmate/internal/ui"
)

// pipeline bundles everything one request run needs.
type pipeline struct {
	router   *router.Router
	loop     *dispatch.Loop
	trace    *tracelog.Trace
	sessions *session.Store
}

func main() {
	_ = godotenv.Load(".env")

	homeDir, _ := os.UserHomeDir()
	cacheDir := filepath.Join(homeDir, ".cache", "deskmate")
	_ = os.MkdirAll(cacheDir, 0o755)

	// Full prompts/responses go to the debug log; the terminal stays clean.
	if f, err := os.OpenFile(filepath.Join(cacheDir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	cat, err := resolveCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "deskmate: %v\n", err)
		os.Exit(1)
	}

	b := bus.New()

	trace, err := tracelog.Open(filepath.Join(cacheDir, "traces"))
	if err != nil {
		log.Printf("[MAIN] WARNING: tracing disabled: %v", err)
		trace = nil
	} else {
		defer trace.Close()
	}
	go trace.Drain(b.Tap())

	sessions, err := session.Open(filepath.Join(cacheDir, "sessions"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "deskmate: %v\n", err)
		fmt.Fprintln(os.Stderr, "Another deskmate process may be running (LevelDB is single-writer). Kill it and retry.")
		os.Exit(1)
	}
	defer sessions.Close()

	// One oracle tier per pipeline stage so a cheap model can serve
	// extraction while a stronger one plans.
	routerOracle := oracle.New(llm.NewTier("ROUTER"), "ROUTER", b)
	plannerOracle := oracle.New(llm.NewTier("PLANNER"), "PLANNER", b)
	extractOracle := oracle.New(llm.NewTier("EXTRACT"), "EXTRACT", b)

	extractor := extract.New(cat, extractOracle, b)
	rt := router.New(cat, routerOracle, b)

	loop := dispatch.New(b)
	for _, d := range cat.Domains() {
		p, err := planner.New(cat, plannerOracle, extractor, b, d.Name)
		if err != nil {
			// Impossible for a validated catalog; guard anyway.
			fmt.Fprintf(os.Stderr, "deskmate: %v\n", err)
			os.Exit(1)
		}
		loop.Register(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ndeskmate: shutting down")
		cancel()
	}()

	go ui.NewDisplay(b).Run(ctx)

	p := pipeline{router: rt, loop: loop, trace: trace, sessions: sessions}

	if len(os.Args) > 1 && os.Args[1] != "" {
		// One-shot mode
		query := strings.Join(os.Args[1:], " ")
		if err := p.runRequest(ctx, query); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			cancel()
			os.Exit(1)
		}
		cancel()
		// Give the tap drain a moment to flush trailing events.
		time.Sleep(200 * time.Millisecond)
		return
	}

	p.runREPL(ctx, cancel)
}

// resolveCatalog loads the YAML catalog named by DESKMATE_CATALOG, or the
// built-in default when unset.
func resolveCatalog() (*catalog.Catalog, error) {
	if path := os.Getenv("DESKMATE_CATALOG"); path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default(), nil
}

func (p pipeline) runREPL(ctx context.Context, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("deskmate — request planner (type 'exit' to quit, 'history' for recent turns)")

	for {
		fmt.Print("\ndeskmate> ")
		if !scanner.Scan() {
			cancel()
			return
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			cancel()
			return
		case input == "history":
			p.printHistory()
			continue
		}

		if err := p.runRequest(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// runRequest runs the full pipeline for one query: route, dispatch, render,
// record.
func (p pipeline) runRequest(ctx context.Context, query string) error {
	requestID := uuid.New().String()
	started := time.Now()
	p.trace.RequestBegin(requestID, query)

	snap := p.buildSnapshot()

	routingPlan, err := p.router.Plan(ctx, query, snap, "")
	if err != nil {
		p.trace.RequestEnd(requestID, nil, time.Since(started))
		return err
	}

	results := p.loop.Execute(ctx, routingPlan, snap)
	p.trace.RequestEnd(requestID, results, time.Since(started))

	if routingPlan.HITLRequired {
		reason := ""
		if routingPlan.HITLReason != nil {
			reason = *routingPlan.HITLReason
		}
		fmt.Printf("\n⚠ 담당자 확인이 필요합니다: %s\n", reason)
	}
	fmt.Print(ui.RenderResults(results))

	p.recordInteraction(requestID, query, routingPlan, results)
	return nil
}

// buildSnapshot exposes recent session turns to the planners as state.
func (p pipeline) buildSnapshot() state.Snapshot {
	recent, err := p.sessions.Recent(5)
	if err != nil || len(recent) == 0 {
		return state.Empty()
	}
	turns := make([]map[string]any, 0, len(recent))
	for _, in := range recent {
		turns = append(turns, map[string]any{
			"query":  in.Query,
			"domain": in.Domain,
			"intent": in.Intent,
		})
	}
	return state.New(map[string]any{"session.recent_interactions": turns})
}

func (p pipeline) recordInteraction(requestID, query string, routingPlan types.RoutingPlan, results []types.TaskResult) {
	var capabilities []string
	for _, r := range results {
		if r.Plan == nil {
			continue
		}
		for _, step := range r.Plan.Steps {
			capabilities = append(capabilities, step.Capability)
		}
	}
	if err := p.sessions.Record(session.Interaction{
		ID:           requestID,
		SessionID:    "local",
		Query:        query,
		Domain:       routingPlan.Domain,
		Intent:       routingPlan.Intent,
		HITLRequired: routingPlan.HITLRequired,
		HITLReason:   routingPlan.HITLReason,
		Capabilities: capabilities,
	}); err != nil {
		log.Printf("[MAIN] WARNING: session record failed: %v", err)
	}
}

func (p pipeline) printHistory() {
	recent, err := p.sessions.Recent(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(recent) == 0 {
		fmt.Println("(no recorded turns)")
		return
	}
	for i, in := range recent {
		fmt.Printf("[%d] %s — domain=%s intent=%s\n", i+1, in.Query, in.Domain, in.Intent)
	}
}
