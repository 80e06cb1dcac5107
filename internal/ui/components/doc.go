// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the TaxAssist TUI.

Every component takes a *styles.Theme explicitly; there is no global theme,
so a theme toggle swaps the pointer and re-renders.

# Display

Header (header.go) - product name, section and model.
StatusBar (statusbar.go) - key hints and a status note.
FeatureMenu (menu.go) - grouped dashboard menu.
MessageBubble (message.go) - chat turns; AI text goes through package markup.
ScrollView (viewport.go) - scrollable area that follows new content.

# Input and feedback

InputArea (input.go) - multi-line input that can be disabled with a reason.
Spinner (spinner.go) - loading indicator with elapsed time.
ToastManager (error_toast.go) - auto-dismissing notifications.
*/
package components
