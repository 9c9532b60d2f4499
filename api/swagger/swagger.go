package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vanity Bot Admin API",
        "description": "Configuration, ledger and signal ingest for the vanity tag bot",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Communities", "description": "Per-community role, channel and announcement settings"},
        {"name": "Ledger", "description": "Members already announced"},
        {"name": "Events", "description": "Status and profile signal ingest"},
        {"name": "Operations", "description": "Health, readiness, metrics and sweeps"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "All dependencies ready"},
                    "503": {"description": "A dependency failed its check", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/stats": {
            "get": {
                "tags": ["Operations"],
                "summary": "Evaluation and ledger counters",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/v1/sweeps": {
            "post": {
                "tags": ["Operations"],
                "summary": "Run one sweep over every configured community",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Sweep report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/v1/events/status": {
            "post": {
                "tags": ["Events"],
                "summary": "Ingest a member status change",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/StatusEventRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "503": {"description": "Intake queue full"}
                }
            }
        },
        "/v1/events/profile": {
            "post": {
                "tags": ["Events"],
                "summary": "Ingest a user profile change",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ProfileEventRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/v1/communities/{id}/config": {
            "get": {
                "tags": ["Communities"],
                "summary": "Get a community's configuration",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/v1/communities/{id}/config/role": {
            "put": {
                "tags": ["Communities"],
                "summary": "Set the reward role",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SetRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/v1/communities/{id}/config/channel": {
            "put": {
                "tags": ["Communities"],
                "summary": "Set the announcement channel",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SetChannelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/v1/communities/{id}/config/message": {
            "put": {
                "tags": ["Communities"],
                "summary": "Set the announcement body",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SetMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/v1/communities/{id}/ledger": {
            "get": {
                "tags": ["Ledger"],
                "summary": "List announced members",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Ledger"],
                "summary": "Forget every announcement of the community",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/v1/communities/{id}/members/{userId}/evaluate": {
            "post": {
                "tags": ["Communities"],
                "summary": "Re-evaluate one member now",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "path", "name": "userId", "type": "string", "required": true},
                    {"in": "query", "name": "async", "type": "boolean", "required": false}
                ],
                "responses": {
                    "200": {"description": "Evaluation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Directory service unavailable"}
                }
            }
        }
    },
    "definitions": {
        "StatusEventRequest": {
            "type": "object",
            "required": ["community_id", "user_id"],
            "properties": {
                "community_id": {"type": "string"},
                "user_id": {"type": "string"},
                "status": {"type": "string"},
                "offline": {"type": "boolean"},
                "at": {"type": "string", "format": "date-time"}
            }
        },
        "ProfileEventRequest": {
            "type": "object",
            "required": ["user_id"],
            "properties": {
                "user_id": {"type": "string"},
                "bio": {"type": "string"},
                "pronouns": {"type": "string"},
                "at": {"type": "string", "format": "date-time"}
            }
        },
        "SetRoleRequest": {
            "type": "object",
            "required": ["role_id"],
            "properties": {"role_id": {"type": "string"}}
        },
        "SetChannelRequest": {
            "type": "object",
            "required": ["channel_id"],
            "properties": {"channel_id": {"type": "string"}}
        },
        "SetMessageRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
