// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model: the dashboard menu and the
// section that is currently open.
//
// Sections are built by newSection, a switch over features.Feature with one
// case per value. Only one section is alive at a time; leaving it calls
// Close so any in-flight request is cancelled and its late results dropped.
//
// The theme is owned here and handed to every component. ctrl+t toggles it
// and persists the choice through the injected config.ThemeStore.
package app
