// Package swagger holds the OpenAPI document served under /swagger.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/feeds": {
            "get": {
                "description": "Returns the pagination state of every registered feed.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "List Feeds",
                "responses": {
                    "200": {"description": "Feed states", "schema": {"type": "array", "items": {"$ref": "#/definitions/timeline.Snapshot"}}}
                }
            }
        },
        "/feeds/{id}": {
            "get": {
                "description": "Returns the feed state and its projected items. Supports long polling.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Get Feed",
                "parameters": [
                    {"type": "string", "description": "Feed ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Block until the state version exceeds this value", "name": "wait_state", "in": "query"},
                    {"type": "integer", "description": "Block until the items version exceeds this value", "name": "wait_items", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Feed view", "schema": {"$ref": "#/definitions/timeline.FeedView"}},
                    "404": {"description": "Feed not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "description": "Tears the feed down and removes it from the registry.",
                "tags": ["feeds"],
                "summary": "Delete Feed",
                "parameters": [
                    {"type": "string", "description": "Feed ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Feed not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/feeds/{id}/load": {
            "post": {
                "description": "Requests the next page of the feed.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Load Next Page",
                "parameters": [
                    {"type": "string", "description": "Feed ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Feed state", "schema": {"$ref": "#/definitions/timeline.Snapshot"}},
                    "409": {"description": "Illegal transition", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/feeds/{id}/reset": {
            "post": {
                "description": "Discards the cursor and accumulated items and loads from scratch.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Reset Feed",
                "parameters": [
                    {"type": "string", "description": "Feed ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Feed state", "schema": {"$ref": "#/definitions/timeline.Snapshot"}},
                    "409": {"description": "Illegal transition", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/feeds/{id}/gaps/{anchor}": {
            "post": {
                "description": "Backfills the items older than the anchor item.",
                "produces": ["application/json"],
                "tags": ["feeds"],
                "summary": "Fill Gap",
                "parameters": [
                    {"type": "string", "description": "Feed ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Anchor item ID", "name": "anchor", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Feed state", "schema": {"$ref": "#/definitions/timeline.Snapshot"}},
                    "404": {"description": "Unknown anchor", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Gap fill in progress", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/integrity": {
            "get": {
                "description": "Checks the local store schema and the skipped page archive.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Run All Integrity Checks",
                "responses": {
                    "200": {"description": "Integrity report", "schema": {"$ref": "#/definitions/integrity.Report"}}
                }
            }
        },
        "/integrity/schema": {
            "get": {
                "description": "Checks that every table and column of the local store exists.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Store Schema",
                "responses": {
                    "200": {"description": "Schema report", "schema": {"type": "object"}},
                    "500": {"description": "Check failed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/integrity/archive": {
            "get": {
                "description": "Checks the archive bucket and counts skipped pages per feed.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Page Archive",
                "parameters": [
                    {"type": "boolean", "description": "Create the bucket when missing", "name": "fix", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Archive report", "schema": {"type": "object"}},
                    "503": {"description": "Archive disabled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "timeline.Snapshot": {
            "type": "object",
            "properties": {
                "feed": {"type": "string"},
                "state": {"type": "string"},
                "generation": {"type": "integer"},
                "has_more": {"type": "boolean"},
                "items": {"type": "integer"},
                "retries": {"type": "integer"},
                "last_error": {"type": "string"},
                "error_kind": {"type": "string"},
                "gaps": {"type": "array", "items": {"$ref": "#/definitions/timeline.GapSnapshot"}},
                "updated_at": {"type": "string"}
            }
        },
        "timeline.GapSnapshot": {
            "type": "object",
            "properties": {
                "anchor": {"type": "string"},
                "state": {"type": "string"},
                "needs_fallback": {"type": "boolean"},
                "primary_calls": {"type": "integer"},
                "fallback_calls": {"type": "integer"},
                "inserted": {"type": "integer"},
                "last_error": {"type": "string"},
                "started_at": {"type": "string"}
            }
        },
        "timeline.FeedView": {
            "type": "object",
            "properties": {
                "state": {"$ref": "#/definitions/timeline.Snapshot"},
                "state_version": {"type": "integer"},
                "items": {"type": "object"},
                "items_version": {"type": "integer"}
            }
        },
        "integrity.Report": {
            "type": "object",
            "properties": {
                "schema": {"type": "object"},
                "archive": {"type": "object"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "feedsync API",
	Description:      "API for driving feed pagination and gap fills.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
