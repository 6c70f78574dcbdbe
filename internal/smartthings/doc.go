// Package smartthings is the REST client for the SmartThings hub API.
//
// It covers device lifecycle (create, delete, list) and state event
// delivery. Authentication is a per-installation bearer token supplied
// on every call; tokens arrive with each webhook request and are never
// stored in the client.
package smartthings
