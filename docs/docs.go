// Package docs holds the OpenAPI description served at /api/swagger. It
// mirrors the swag annotations on the handlers in internal/server.
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
        "/answers": {
            "get": {
                "description": "Answers with their authors, optionally for one prompt",
                "produces": ["application/json"],
                "tags": ["answers"],
                "summary": "List answers",
                "parameters": [
                    {"type": "string", "description": "Prompt ID", "name": "promptId", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.AnswerView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Without a user the answer is attributed to the caller, or to a new anonymous user. Without a promptId it goes to the active prompt.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["answers"],
                "summary": "Submit an answer",
                "parameters": [
                    {"description": "Answer", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CreateAnswerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.AnswerView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Exchange credentials for a signed token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/prompts": {
            "get": {
                "description": "All prompts, or only active/inactive ones with ?active=true|false",
                "produces": ["application/json"],
                "tags": ["prompts"],
                "summary": "List prompts",
                "parameters": [
                    {"type": "string", "description": "true or false", "name": "active", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Prompt"}}}
                }
            }
        },
        "/prompts/active": {
            "get": {
                "description": "The active prompt with the caller's answers to it",
                "produces": ["application/json"],
                "tags": ["prompts"],
                "summary": "Active prompt",
                "parameters": [
                    {"type": "string", "description": "Bearer token", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ActivePromptView"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/prompts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prompts"],
                "summary": "Get prompt",
                "parameters": [
                    {"type": "string", "description": "Prompt ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Prompt"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "description": "Create a user account. The password is stored as a bcrypt hash.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CredentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.PublicUser"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ActivePromptView": {
            "type": "object",
            "properties": {
                "activePrompt": {"type": "boolean"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/models.AnswerView"}},
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "tag": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.AnswerView": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "promptId": {"type": "string"},
                "user": {"$ref": "#/definitions/models.UserRef"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "models.Prompt": {
            "type": "object",
            "properties": {
                "activePrompt": {"type": "boolean"},
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "tag": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.PublicUser": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "models.UserRef": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "server.CreateAnswerRequest": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "promptId": {"type": "string"},
                "user": {"type": "string"}
            }
        },
        "server.CredentialsRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "server.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "username": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3003",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Daily Prompt API",
	Description:      "Journaling backend: daily prompts, answers, users and token login.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
