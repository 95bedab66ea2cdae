// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
)

// Record is the persisted state of one bottle, stored as bottle.json next
// to the bottle's prefix directory.
type Record struct {
	// ID is assigned at creation and never reused.
	ID uuid.UUID `json:"id"`
	// Name is the slugged display name; it need not be unique.
	Name string `json:"name"`
	// CreatedAt is seconds since the Unix epoch.
	CreatedAt uint64 `json:"created_at"`
	// WineRuntime is frozen at creation; later runtime installs do not affect it.
	WineRuntime runtime.WineRuntime `json:"wine_runtime"`
	// Environment holds overrides in application order. Recipes keep at most
	// one entry per key.
	Environment types.Env `json:"environment"`
}
