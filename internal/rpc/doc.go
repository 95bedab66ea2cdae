// SPDX-License-Identifier: MPL-2.0

// Package rpc carries daemon requests over a unix socket.
//
// Each request and response is one JSON document terminated by a newline.
// A connection may carry any number of request/response pairs in sequence.
// The envelope follows JSON-RPC loosely: {"id","method","params"} in and
// {"id","result"} or {"id","error":{"code","message","data":{"kind"}}} out.
package rpc
