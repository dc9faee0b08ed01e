// Package docs holds the OpenAPI document of the cache gateway. It registers
// itself with swag on import.
package docs

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
        "/travels": {
            "get": {
                "description": "Returns the cached global travel list. Never reads the data backend.",
                "produces": ["application/json"],
                "tags": ["travels"],
                "summary": "Read cached travels",
                "responses": {
                    "200": {"description": "Cached list", "schema": {"$ref": "#/definitions/handlers.TravelsResponse"}},
                    "202": {"description": "Cache miss", "schema": {"$ref": "#/definitions/handlers.CacheMissResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/travels/cache": {
            "post": {
                "description": "Stores the global travel list under the travels TTL.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["travels"],
                "summary": "Cache travels",
                "parameters": [
                    {"description": "Travel list", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CacheTravelsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/handlers.CacheTravelsResponse"}},
                    "400": {"description": "Missing or malformed travels", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "description": "Counts the keys held by the server tier.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Server cache statistics",
                "responses": {
                    "200": {"description": "Statistics", "schema": {"$ref": "#/definitions/handlers.StatsResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/cache/{type}": {
            "delete": {
                "description": "Drops the all-travels key or every search or user key.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Invalidate a server cache family",
                "parameters": [
                    {"enum": ["all", "search", "users"], "type": "string", "description": "Cache family", "name": "type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Invalidated", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Unknown cache type", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"type": "string"},
                "type": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "handlers.CacheMissResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "message": {"type": "string"},
                "cached": {"type": "boolean", "example": false}
            }
        },
        "handlers.CacheTravelsRequest": {
            "type": "object",
            "required": ["travels"],
            "properties": {
                "travels": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.CacheTravelsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "count": {"type": "integer"},
                "ttl": {"type": "integer", "example": 300}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "handlers.StatsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "stats": {"$ref": "#/definitions/services.GatewayStats"}
            }
        },
        "handlers.TravelsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"type": "object"}},
                "cached": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "services.GatewayStats": {
            "type": "object",
            "properties": {
                "allTravels": {"type": "boolean"},
                "searchQueries": {"type": "integer"},
                "userCaches": {"type": "integer"},
                "totalKeys": {"type": "integer"},
                "redisInfo": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "iTravel Cache Gateway API",
	Description:      "Server-tier cache for the iTravel travel list, search results and user lists",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
