// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.userResponse"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a JWT",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.loginResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/habits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "List habits",
                "parameters": [
                    {"type": "boolean", "description": "only active habits", "name": "active", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Habit"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Create a habit",
                "parameters": [
                    {"description": "habit", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.createHabitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Habit"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/habits/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["habits"],
                "summary": "Rename or reschedule a habit",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true},
                    {"description": "changes", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.updateHabitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Habit"}},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List the marks of a habit",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "habit_id", "in": "query", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.HabitLog"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Mark a habit on a day",
                "parameters": [
                    {"description": "mark", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.markRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.HabitLog"}},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Habit is paused"}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Streaks and completion counts for every habit",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserStats"}}
                }
            }
        },
        "/stats/habits/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Streaks and completion counts for one habit",
                "parameters": [
                    {"type": "string", "description": "habit id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.HabitStatsView"}},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/settings": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Change timezone and reminder settings",
                "parameters": [
                    {"description": "settings", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.settingsPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.settingsPayload"}},
                    "400": {"description": "Bad Request"}
                }
            }
        }
    },
    "definitions": {
        "domain.Habit": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "schedule": {"type": "string", "enum": ["daily", "weekly"]},
                "weekly_target": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "current_streak": {"type": "integer"},
                "best_streak": {"type": "integer"},
                "version": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "deleted_at": {"type": "string"}
            }
        },
        "domain.HabitLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "habit_id": {"type": "string"},
                "user_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-03-11"},
                "status": {"type": "string", "enum": ["done", "not_done", "skipped"]},
                "version": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "deleted_at": {"type": "string"}
            }
        },
        "domain.HabitStatsView": {
            "type": "object",
            "properties": {
                "habit_id": {"type": "string"},
                "title": {"type": "string"},
                "schedule": {"type": "string"},
                "weekly_target": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "as_of": {"type": "string"},
                "current_streak": {"type": "integer"},
                "best_streak": {"type": "integer"},
                "done_7_days": {"type": "integer"},
                "done_30_days": {"type": "integer"},
                "total_done": {"type": "integer"}
            }
        },
        "domain.UserStats": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "as_of": {"type": "string"},
                "total_habits": {"type": "integer"},
                "active_habits": {"type": "integer"},
                "total_done": {"type": "integer"},
                "habits": {"type": "array", "items": {"$ref": "#/definitions/domain.HabitStatsView"}}
            }
        },
        "http.registerRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "timezone": {"type": "string", "example": "Europe/Moscow"}
            }
        },
        "http.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "timezone": {"type": "string"}
            }
        },
        "http.loginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/http.userResponse"}
            }
        },
        "http.createHabitRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "schedule": {"type": "string", "enum": ["daily", "weekly"]},
                "weekly_target": {"type": "integer", "minimum": 1, "maximum": 7}
            }
        },
        "http.updateHabitRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "schedule": {"type": "string", "enum": ["daily", "weekly"]},
                "weekly_target": {"type": "integer"},
                "version": {"type": "integer"}
            }
        },
        "http.markRequest": {
            "type": "object",
            "required": ["habit_id", "status"],
            "properties": {
                "habit_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-03-11"},
                "status": {"type": "string", "enum": ["done", "not_done", "skipped"]}
            }
        },
        "http.settingsPayload": {
            "type": "object",
            "properties": {
                "timezone": {"type": "string"},
                "reminder_time": {"type": "string", "example": "21:00"},
                "reminders_enabled": {"type": "boolean"},
                "telegram_chat_id": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kanso Habit Stats API",
	Description:      "Habit tracking with streaks, completion counts and daily reminders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
