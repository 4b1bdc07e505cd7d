// Package relay implements the real-time event relay behind the chat
// application's REST API.
//
// The implementation is organized into specialized files for configuration,
// the room registry, event dispatch, broadcasting, clients, and HTTP
// handlers to keep the codebase maintainable and testable as the project
// grows.
package relay
