// SPDX-License-Identifier: MPL-2.0

// Package bottle persists bottle records.
//
// Each bottle owns one directory named after its identifier:
//
//	<root>/<id>/bottle.json   the Record
//	<root>/<id>/prefix/       the isolated wine prefix
//
// The two are created together and removed together.
package bottle
