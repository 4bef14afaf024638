// Package content loads game data catalogs from disk.
//
// A catalog file is a JSON document holding the card pool and the mission
// graphs a session can be instantiated from. The manager caches parsed
// catalogs by name and validates each one on load; a catalog that fails
// validation is never served. When no content directory is configured, the
// built-in default catalog backs everything.
package content
