// Package docs holds the OpenAPI description served under /swagger. Keep it in
// step with the handler annotations.
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
        "/auth/login": {
            "post": {
                "description": "Checks credentials and issues an access/refresh token pair; the role tells the UI which console to open",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.TokenResponse"}},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "TOKEN_GENERATION_ERROR", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "description": "Exchanges a refresh token for a new token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "refresh_token", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.TokenResponse"}},
                    "401": {"description": "INVALID_REFRESH_TOKEN, USER_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a clerk or doctor account; only a signed-in clerk may do this",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register staff account",
                "parameters": [
                    {"description": "Account data", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/response.SuccessResponse"}},
                    "400": {"description": "VALIDATION_ERROR, EMAIL_EXISTS", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "NO_AUTH_HEADER, INVALID_TOKEN", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "403": {"description": "FORBIDDEN_ROLE", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/queues/active": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the id of the active queue, creating \"Default Queue\" when none exists",
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Active queue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.QueueIDResponse"}},
                    "500": {"description": "Server error (DB_ERROR)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/queues/{id}/entries": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Entries ordered by position with a patient summary, for the draggable list",
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Queue entries",
                "parameters": [
                    {"type": "integer", "description": "Queue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/response.EntryResponse"}}},
                    "404": {"description": "QUEUE_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Appends the patient at the tail of the queue in WAITING state",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Add patient to queue",
                "parameters": [
                    {"type": "integer", "description": "Queue ID", "name": "id", "in": "path", "required": true},
                    {"description": "Patient to enqueue", "name": "entry", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "404": {"description": "QUEUE_NOT_FOUND, PATIENT_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "ALREADY_IN_QUEUE", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/queues/{id}/order": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Applies a drag-and-drop ordering atomically; the result must be positions 1..N",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Reorder queue",
                "parameters": [
                    {"type": "integer", "description": "Queue ID", "name": "id", "in": "path", "required": true},
                    {"description": "New positions", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ReorderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.SuccessResponse"}},
                    "400": {"description": "INVALID_QUEUE_ID, VALIDATION_ERROR, INVALID_ORDERING", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "QUEUE_NOT_FOUND, ENTRY_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/queues/{id}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Completes the patient in progress and calls the next waiting one",
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Next patient",
                "parameters": [
                    {"type": "integer", "description": "Queue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/queue.AdvanceResult"}},
                    "404": {"description": "QUEUE_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/queues/{id}/state": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Patient in progress, or the head of the line reported as WAITING, without changing anything",
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Current queue state",
                "parameters": [
                    {"type": "integer", "description": "Queue ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/queue.State"}},
                    "404": {"description": "QUEUE_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/patients": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Front-desk intake; names must be unique and the birthday cannot be in the future",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Register patient",
                "parameters": [
                    {"description": "Patient data", "name": "patient", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreatePatientRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.PatientResponse"}},
                    "409": {"description": "PATIENT_EXISTS", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/patients/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Case-insensitive match on name, email or phone; at most 10 results",
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Search patients",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/response.PatientResponse"}}}
                }
            }
        },
        "/api/patients/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Patient details",
                "parameters": [
                    {"type": "integer", "description": "Patient ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.PatientResponse"}},
                    "404": {"description": "PATIENT_NOT_FOUND", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.SuccessResponse"}},
                    "503": {"description": "DB_UNAVAILABLE", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AddEntryRequest": {
            "type": "object",
            "required": ["patient_id"],
            "properties": {"patient_id": {"type": "integer"}}
        },
        "handlers.PlacementRequest": {
            "type": "object",
            "required": ["id", "position"],
            "properties": {"id": {"type": "integer"}, "position": {"type": "integer", "minimum": 1}}
        },
        "handlers.ReorderRequest": {
            "type": "object",
            "required": ["entries"],
            "properties": {"entries": {"type": "array", "items": {"$ref": "#/definitions/handlers.PlacementRequest"}}}
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "role": {"type": "string", "enum": ["CLERK", "DOCTOR"]}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "handlers.CreatePatientRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "age": {"type": "integer", "maximum": 150, "minimum": 0},
                "birthday": {"type": "string", "example": "1990-04-12"},
                "city": {"type": "string"},
                "civil_status": {"type": "string"},
                "complete_address": {"type": "string"},
                "email": {"type": "string"},
                "handedness": {"type": "string"},
                "image_url": {"type": "string"},
                "last_visit": {"type": "string"},
                "name": {"type": "string"},
                "occupation": {"type": "string"},
                "phone": {"type": "string"},
                "religion": {"type": "string"},
                "sex": {"type": "string", "enum": ["Male", "Female"]}
            }
        },
        "models.EntryStatus": {
            "type": "string",
            "enum": ["WAITING", "IN_PROGRESS"],
            "x-enum-varnames": ["StatusWaiting", "StatusInProgress"]
        },
        "queue.AdvanceResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "patient_id": {"type": "integer"},
                "status": {"$ref": "#/definitions/models.EntryStatus"}
            }
        },
        "queue.State": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "patient_id": {"type": "integer"},
                "remaining_waiting_count": {"type": "integer"},
                "status": {"$ref": "#/definitions/models.EntryStatus"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "QUEUE_NOT_FOUND"},
                "details": {"type": "string"},
                "message": {"type": "string", "example": "Failed to process next patient"}
            }
        },
        "response.SuccessResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Successfully added."}}
        },
        "response.TokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}, "refresh_token": {"type": "string"}, "role": {"type": "string"}}
        },
        "response.QueueIDResponse": {
            "type": "object",
            "properties": {"queue_id": {"type": "integer", "example": 1}}
        },
        "response.PatientSummary": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "image_url": {"type": "string"}, "name": {"type": "string"}}
        },
        "response.EntryResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "patient": {"$ref": "#/definitions/response.PatientSummary"},
                "position": {"type": "integer"},
                "status": {"$ref": "#/definitions/models.EntryStatus"}
            }
        },
        "response.PatientResponse": {
            "type": "object",
            "properties": {
                "age": {"type": "integer"},
                "birthday": {"type": "string"},
                "city": {"type": "string"},
                "civil_status": {"type": "string"},
                "complete_address": {"type": "string"},
                "email": {"type": "string"},
                "handedness": {"type": "string"},
                "id": {"type": "integer"},
                "image_url": {"type": "string"},
                "is_new_patient": {"type": "boolean"},
                "last_visit": {"type": "string"},
                "name": {"type": "string"},
                "occupation": {"type": "string"},
                "phone": {"type": "string"},
                "religion": {"type": "string"},
                "sex": {"type": "string"}
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
	BasePath:         "",
	Schemes:          []string{},
	Title:            "Clinic front-desk queue API",
	Description:      "Patient queue shared by the clerk and doctor consoles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
