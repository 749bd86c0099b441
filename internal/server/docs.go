package server

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/admin/build/trigger": {
            "post": {
                "summary": "Start a site build",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Build started", "schema": {"$ref": "#/definitions/triggerResponse"}},
                    "409": {"description": "A build is already in progress", "schema": {"$ref": "#/definitions/triggerResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/triggerResponse"}}
                }
            }
        },
        "/admin/build/status": {
            "get": {
                "summary": "Current build record",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/build"}}}
            }
        },
        "/admin/build/history": {
            "get": {
                "summary": "Build history, newest first",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/build/{id}": {
            "get": {
                "summary": "One build record",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/build"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/notices": {"post": {"summary": "Create a notice", "responses": {"201": {"description": "Created"}}}},
        "/api/notices/{id}": {
            "put": {"summary": "Update a notice", "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "Delete a notice", "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/activity-posts": {"post": {"summary": "Create an activity post", "responses": {"201": {"description": "Created"}}}},
        "/api/activity-posts/{id}": {
            "put": {"summary": "Update an activity post", "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "Delete an activity post", "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/activity-categories": {"post": {"summary": "Create an activity category", "responses": {"201": {"description": "Created"}}}},
        "/api/activity-categories/{id}": {
            "put": {"summary": "Update an activity category", "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "Delete an activity category", "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/newsletters": {"post": {"summary": "Create a newsletter", "responses": {"201": {"description": "Created"}}}},
        "/api/newsletters/{id}": {
            "put": {"summary": "Update a newsletter", "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "Delete a newsletter", "responses": {"204": {"description": "Deleted"}}}
        },
        "/api/site-info": {
            "get": {"summary": "Site-wide settings", "responses": {"200": {"description": "OK"}}},
            "put": {"summary": "Replace site-wide settings", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "build": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "status": {"type": "string", "enum": ["idle", "building", "success", "failed"]},
                "started_at": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "error_message": {"type": "string"},
                "triggered_by": {"type": "string"},
                "duration_seconds": {"type": "number"}
            }
        },
        "triggerResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "build_id": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "sitebuild API",
	Description:      "Content administration and static site builds.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
