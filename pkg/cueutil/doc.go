// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates documents against embedded CUE schemas.
//
// Two entry points cover the two document formats alloy reads:
//
//   - ParseAndDecode compiles a CUE source file (config.cue), unifies it
//     with a schema definition and decodes it into a Go type.
//   - ValidateValue encodes an already-decoded value (a recipe parsed from
//     YAML) and checks it against a schema definition.
//
// Both report violations as ValidationErrors with JSON-style paths:
//
//	//go:embed recipe_schema.cue
//	var recipeSchema []byte
//
//	if err := cueutil.ValidateValue(recipeSchema, "#Recipe", doc,
//		cueutil.WithFilename(path)); err != nil {
//		return err
//	}
package cueutil
