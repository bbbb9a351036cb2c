package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EPC Dashboard API",
        "description": "Milestone and document lifecycle engine for renewable energy EPC projects",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Projects", "description": "Project creation, derived views and activity"},
        {"name": "Documents", "description": "Required document version ledger"},
        {"name": "Milestones", "description": "Optional supporting documents"},
        {"name": "Dashboard", "description": "Cached rollups"},
        {"name": "Catalog", "description": "Milestone templates per project type"}
    ],
    "paths": {
        "/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List portfolio projects",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["name", "status", "progress", "startDate", "capacity"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create a project from its milestone template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or unknown project type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Derived project view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/progress": {
            "put": {
                "tags": ["Projects"],
                "summary": "Store externally tracked project progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Project rollup and health indicators",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/activity": {
            "get": {
                "tags": ["Projects"],
                "summary": "Project activity feed, newest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Required document with its version ledger",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/versions": {
            "post": {
                "tags": ["Documents"],
                "summary": "Submit a new document version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "File rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Ledger inconsistent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/versions/{version}/review": {
            "post": {
                "tags": ["Documents"],
                "summary": "Record the review outcome of the current version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "version", "in": "path", "required": true, "type": "integer"},
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version not reviewable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/milestones/{id}/optional-documents": {
            "get": {
                "tags": ["Milestones"],
                "summary": "List optional documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Milestones"],
                "summary": "Attach an optional document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "X-Actor", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddOptionalDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/portfolio": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Portfolio statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/templates": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List milestone templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/templates/{type}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Milestone template of a project type",
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown project type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "client": {"type": "string"},
                "location": {"type": "string"},
                "capacity": {"type": "string", "example": "50MW"},
                "type": {"type": "string", "enum": ["Solar", "Wind", "Hybrid", "Battery Storage"]},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "phase": {"type": "string"},
                "startDate": {"type": "string", "format": "date-time"},
                "endDate": {"type": "string", "format": "date-time"},
                "teamSize": {"type": "integer"},
                "budget": {"type": "string", "example": "$2.5M"},
                "spent": {"type": "string"},
                "description": {"type": "string"},
                "projectManager": {"type": "string"},
                "milestoneLimit": {"type": "integer"}
            },
            "required": ["name", "client", "location", "capacity", "type"]
        },
        "UpdateProgressRequest": {
            "type": "object",
            "properties": {
                "progress": {"type": "integer", "minimum": 0, "maximum": 100}
            },
            "required": ["progress"]
        },
        "SubmitVersionRequest": {
            "type": "object",
            "properties": {
                "fileName": {"type": "string"},
                "fileSizeBytes": {"type": "integer"},
                "fileUrl": {"type": "string"}
            },
            "required": ["fileName", "fileSizeBytes", "fileUrl"]
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["approved", "rejected"]},
                "reason": {"type": "string"}
            },
            "required": ["outcome"]
        },
        "AddOptionalDocumentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "fileName": {"type": "string"},
                "fileSizeBytes": {"type": "integer"},
                "fileUrl": {"type": "string"}
            },
            "required": ["name", "fileName", "fileSizeBytes", "fileUrl"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
