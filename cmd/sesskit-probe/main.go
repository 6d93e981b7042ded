// Command sesskit-probe exercises the session lifecycle against a live
// auth backend: hydrate, bootstrap, optional login/logout, and a metrics
// dump at the end.
//
// Usage:
//
//	sesskit-probe -base-url https://api.example.com
//	sesskit-probe -base-url https://api.example.com \
//	  -email alice@example.com -password secret -logout
//
// State persists between runs via -state-dir, so a second probe run
// observes the bootstrap path of a returning session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gogadget/sesskit"
	"github.com/gogadget/sesskit/metrics/export/internaldefs"
	"github.com/gogadget/sesskit/session"
)

func main() {
	var (
		baseURL   = flag.String("base-url", "", "auth backend base URL (required)")
		email     = flag.String("email", "", "login email; skip login when empty")
		password  = flag.String("password", "", "login password")
		logout    = flag.Bool("logout", false, "log out at the end of the probe")
		stateDir  = flag.String("state-dir", "", "persist session state under this directory")
		redisAddr = flag.String("redis-addr", "", "persist session state in redis at this address")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall probe deadline")
		auditJSON = flag.Bool("audit", false, "stream audit events to stderr as JSON")
	)
	flag.Parse()

	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "-base-url is required")
		os.Exit(2)
	}
	if *stateDir != "" && *redisAddr != "" {
		fmt.Fprintln(os.Stderr, "-state-dir and -redis-addr are mutually exclusive")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	builder := sesskit.New().WithBaseURL(*baseURL)

	switch {
	case *stateDir != "":
		builder = builder.WithStorage(session.NewFileStorage(*stateDir))
	case *redisAddr != "":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{*redisAddr},
		})
		defer client.Close()
		builder = builder.WithRedis(client)
	}

	if *auditJSON {
		builder = builder.WithAuditSink(sesskit.NewJSONWriterSink(os.Stderr))
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	outcome, err := engine.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("bootstrap: %s\n", outcome)
	printSnapshot(engine.Snapshot())

	if *email != "" {
		snap, err := engine.Login(ctx, *email, *password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("login: ok")
		printSnapshot(snap)
	}

	if *logout {
		if err := engine.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "logout notify: %v\n", err)
		} else {
			fmt.Println("logout: ok")
		}
		printSnapshot(engine.Snapshot())
	}

	dumpMetrics(engine)
}

func printSnapshot(snap sesskit.Snapshot) {
	status := "anonymous"
	switch {
	case snap.IsSessionExpired:
		status = "expired"
	case snap.User != nil:
		status = "authenticated as " + snap.User.Email + " (" + string(snap.User.Role) + ")"
	}
	fmt.Printf("session: %s (hydrated=%t validating=%t)\n",
		status, snap.HasHydrated, snap.IsValidating)
}

func dumpMetrics(engine *sesskit.Engine) {
	snap := engine.MetricsSnapshot()
	out := make(map[string]uint64, len(snap.Counters))
	for _, def := range internaldefs.CounterDefs {
		if v := snap.Counters[def.ID]; v != 0 {
			out[def.Name] = v
		}
	}
	encoded, err := json.MarshalIndent(map[string]any{
		"counters":      out,
		"audit_dropped": engine.AuditDropped(),
	}, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(encoded))
}
