// Package facegate provides a credit-gated content access and
// discovery engine for Go applications.
//
// Facegate is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Prepaid credit wallets with an append-only ledger
//   - Pay-per-first-view access gating with an atomic charge path
//   - Optimistic like tracking reconciled against server results
//   - A paged discovery feed with stale-response protection
//   - Batched engagement event ingestion
//   - Pluggable hooks for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    facegate "github.com/jesssevilleja/facegate"
//	    "github.com/jesssevilleja/facegate/store/postgres"
//	)
//
//	store, err := postgres.Open(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine, err := facegate.New(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start migrates the schema and begins background workers.
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop(ctx)
//
// # Core Concepts
//
// Wallets hold a user's prepaid credits:
//
//	err := engine.CreateWallet(ctx, userID, facegate.CreditsOf(10))
//	balance, err := engine.Credit(ctx, userID, facegate.CreditsOf(25), "purchase")
//
// Access requests gate item views. The first view charges the access
// price, records the access and bumps the view count in one
// transaction; every later view of the same item is free:
//
//	decision, err := engine.RequestAccess(ctx, userID, itemID)
//	if errors.Is(err, facegate.ErrInsufficientFunds) {
//	    // Route the user to a top-up.
//	}
//	if decision.Charged {
//	    // First view; decision.Balance reflects the debit.
//	}
//
// Likes flip atomically and report the authoritative state:
//
//	result, err := engine.ToggleLike(ctx, userID, itemID)
//
// The session package wraps an engine (or a remote client) into a
// per-user facade with feed paging, a balance mirror and optimistic
// like reconciliation:
//
//	sess := session.New(engine, session.StaticProvider(userID))
//	sess.LoadMore(ctx)
//	items := sess.Items()
//
// # Stores
//
// Four store implementations ship with the module: memory (tests and
// embedding), sqlite (single process), postgres (production) and
// mongo. The store/redis package adds an optional decision cache in
// front of repeat-view checks, enabled with WithDecisionCache.
//
// # Hooks
//
// Hooks observe engine activity without touching the hot path
// contract; a failing or slow hook is logged and skipped. The
// audithook and observability packages ship ready-made hooks:
//
//	engine, err := facegate.New(store,
//	    facegate.WithHook(audithook.New(recorder)),
//	    facegate.WithHook(observability.New(metricFactory)),
//	)
package facegate
