package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lesson Plan API",
        "description": "Weekly lesson plans per section with Word, PDF, Excel and AI-assisted exports.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Plans", "description": "Weekly plans, rows and class notes"},
        {"name": "Calendar", "description": "Academic weeks"},
        {"name": "Exports", "description": "Word, PDF, Excel and CSV documents"},
        {"name": "AI", "description": "Lesson plan drafting"},
        {"name": "Admin", "description": "Runtime metrics and cache control"}
    ],
    "paths": {
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Section not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/weeks": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List academic weeks",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/plans/{week}": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get weekly plan",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "week", "type": "integer", "required": true},
                    {"in": "query", "name": "section", "type": "string", "enum": ["boys", "girls"]},
                    {"in": "query", "name": "teacher", "type": "string"},
                    {"in": "query", "name": "class", "type": "string"},
                    {"in": "query", "name": "subject", "type": "string"},
                    {"in": "query", "name": "day", "type": "string"},
                    {"in": "query", "name": "period", "type": "integer"},
                    {"in": "query", "name": "sort", "type": "boolean", "description": "class, day and period order instead of stored order"}
                ],
                "responses": {
                    "200": {"description": "Plan, empty when never saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid week or section", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/all-classes": {
            "get": {
                "tags": ["Plans"],
                "summary": "List classes of a section",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "section", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/save-plan": {
            "post": {
                "tags": ["Plans"],
                "summary": "Replace weekly plan (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SavePlanRequest"}}],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not an administrator", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/save-row": {
            "post": {
                "tags": ["Plans"],
                "summary": "Update one row",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SaveRowRequest"}}],
                "responses": {
                    "200": {"description": "Merged row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No matching row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/save-rows": {
            "post": {
                "tags": ["Plans"],
                "summary": "Update several rows atomically",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Merged rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/save-notes": {
            "post": {
                "tags": ["Plans"],
                "summary": "Save class notes",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/generate-word": {
            "post": {
                "tags": ["Exports"],
                "summary": "Word plan of a class",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.wordprocessingml.document"],
                "responses": {"200": {"description": "Document"}, "404": {"description": "No sessions for the class"}}
            }
        },
        "/generate-pdf": {
            "post": {
                "tags": ["Exports"],
                "summary": "PDF plan of a class",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "Document"}, "404": {"description": "No sessions for the class"}}
            }
        },
        "/generate-excel-workbook": {
            "post": {
                "tags": ["Exports"],
                "summary": "Excel workbook of a week",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "Workbook"}, "404": {"description": "No rows match"}}
            }
        },
        "/generate-csv": {
            "post": {
                "tags": ["Exports"],
                "summary": "CSV export of a week",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV"}}
            }
        },
        "/full-report-by-class": {
            "post": {
                "tags": ["Exports"],
                "summary": "Every week of one class",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "Workbook"}, "404": {"description": "Class never planned"}}
            }
        },
        "/generate-ai-lesson-plan": {
            "post": {
                "tags": ["AI"],
                "summary": "Draft a lesson plan",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Structured plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "AI service failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "AI generation disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate-ai-lesson-docx": {
            "post": {
                "tags": ["AI"],
                "summary": "Draft a lesson plan as Word",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.wordprocessingml.document"],
                "responses": {"200": {"description": "Document"}, "502": {"description": "AI service failed"}}
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Runtime metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/cache/flush": {
            "post": {
                "tags": ["Admin"],
                "summary": "Flush cached plans",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Flushed"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "section": {"type": "string", "enum": ["boys", "girls"]}
            }
        },
        "SessionRow": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "teacher": {"type": "string"},
                "day": {"type": "string", "enum": ["Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"]},
                "period": {"type": "integer", "minimum": 1},
                "class": {"type": "string"},
                "subject": {"type": "string"},
                "lesson": {"type": "string"},
                "classwork": {"type": "string"},
                "support": {"type": "string"},
                "homework": {"type": "string"}
            }
        },
        "SavePlanRequest": {
            "type": "object",
            "required": ["week"],
            "properties": {
                "week": {"type": "integer"},
                "section": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/SessionRow"}}
            }
        },
        "SaveRowRequest": {
            "type": "object",
            "required": ["week", "data"],
            "properties": {
                "week": {"type": "integer"},
                "section": {"type": "string"},
                "data": {"$ref": "#/definitions/SessionRow"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
