// Package gameloop implements the turn-based control loop that lets a
// language model play a Game Boy Advance title through an emulator.
//
// Once per interval the loop captures the emulator screen, assembles a
// multimodal prompt from the conversation history, the model's own notes,
// and ground-truth verification results, and sends it to the Anthropic
// Messages API. The free-text reply is parsed into button commands and
// note directives; buttons are delivered through a pacer that times
// press/hold/release, and the notes are cross-checked against telemetry
// on the next turn so the model can see when its claims were wrong.
//
// The package is organized around these core concepts:
//
//   - Session: the single-owner orchestrator. All mutable state lives on
//     one goroutine driven by an event loop (scheduler timer, request
//     completions, pacer timer, control requests).
//   - Parser: pure translation of response text into commands, memory
//     directives, and an optional search query. It is total: a turn with
//     no recognizable command still produces the default safe action.
//   - Pacer: press/hold/release state machine; at most one key is held
//     at any instant.
//   - NoteStore and Verifier: the model's self-reported memory and the
//     telemetry-backed record of what actually happened.
//   - Environment: the boundary to the emulator (actuation, frame
//     capture, telemetry, save states).
//
// # Quick Start
//
//	cfg := gameloop.DefaultConfig()
//	cfg.APIKey = os.Getenv("CLAUDEMON_API_KEY")
//	session := gameloop.NewSession(cfg, env, nil)
//	if err := session.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	for event := range session.Events() {
//	    fmt.Printf("[%s] %v\n", event.Kind, event.Data)
//	}
package gameloop
