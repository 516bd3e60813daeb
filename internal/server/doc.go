// Package server exposes the page state machine over HTTP for debugging.
//
// Routes:
//
//	GET  /api/state      current page, return page and printer state
//	GET  /api/pages      every registered page
//	POST /api/touch      {"page": 3, "component": 4}; page defaults to the current one
//	POST /api/numeric    {"component": 0, "value": 210}
//	POST /api/page/:id   switch to a page by id or name
//	GET  /api/events     websocket stream of page changes
//
// Requests are queued on the same hmi.Loop as display events, so the API
// never races the touchscreen.
package server
