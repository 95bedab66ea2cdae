// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the daemon's tests.
//
// Must* helpers fail the test on error, except MustStop which only logs.
// FakeRuntimeTree lays out wine runtime directories backed by shell scripts,
// and RecordingLauncher stands in for the process launcher so recipe and
// service tests never start real processes.
package testutil
