// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the taxassist command line.
//
// Running taxassist without a subcommand starts the terminal UI. The
// subcommands expose the same features for scripts and pipes:
//
//	taxassist                       Start the terminal UI
//	taxassist ask "question"        One question, streamed to stdout
//	taxassist chat                  Line-based chat with history
//	taxassist render [file]         Render markup for the terminal or as HTML
//	taxassist serve                 HTTP and websocket server
//	taxassist checklist             Compliance checklist
//	taxassist deadlines             Filing deadlines
//	taxassist analyze [file]        Simulated document analysis
//	taxassist features              List the assistant's tools
//	taxassist config show|path|get|set|keys
//	taxassist version
//
// Output that is not a TTY is never styled, and NO_COLOR is honoured.
package cli
