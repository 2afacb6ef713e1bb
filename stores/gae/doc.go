//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the keyhole
// credential store. Sessions are not kept here; pair it with the memory or
// redis session store.
//
// # Datastore Kinds
//
//   - User: credential records keyed by an allocated numeric id
//   - UserEmail: one entity per registered email, pointing at its user
//   - UserExternal: one entity per (provider, external id), pointing at its user
//
// The two index kinds are written in the same transaction as the user, which
// is how uniqueness is enforced.
//
// # Namespacing
//
// Pass a namespace to isolate the data of several deployments in one project:
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "staging")
package gae
