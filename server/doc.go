// Package server exposes the transight HTTP API. Feed and collaborator
// failures never turn into 5xx responses on read endpoints; handlers serve
// the last good or default data instead. Only unknown stop/route ids map to
// 404.
package server
