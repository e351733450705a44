// Package server provides the HTTP server for the astronauts API.
//
// This file contains general API documentation annotations for Swag/OpenAPI
// generation. Individual endpoint annotations live in the handler files.
package server

// @title Astronauts API
// @version 1.0
// @description REST API for managing astronaut crew records, with real-time
// @description change notifications over WebSocket and Server-Sent Events.
// @description
// @description Every response body is an envelope of the form
// @description {"success": bool, "payload": ...}. On failure the payload is
// @description the error message.
//
// @contact.name Astronauts Project
// @contact.url https://github.com/agentstation/astronauts
//
// @license.name MIT
//
// @host localhost:8080
// @BasePath /
