package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "InternHub API",
        "description": "Internship application lifecycle and reporting service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and identity"},
        {"name": "Applications", "description": "Application approval and hiring lifecycle"},
        {"name": "Offers", "description": "Issued offer letters"},
        {"name": "Misconduct", "description": "Misconduct reports"},
        {"name": "Progress", "description": "Periodic progress reports"},
        {"name": "Appraisals", "description": "End-of-term appraisals"},
        {"name": "SupervisorReports", "description": "Company to supervisor reports"},
        {"name": "Documents", "description": "Async PDF/CSV generation"},
        {"name": "Notifications", "description": "In-app notification feed"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications visible to the caller",
                "parameters": [
                    {"name": "overall_status", "in": "query", "type": "string"},
                    {"name": "application_status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Get application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/applications/{id}/supervisor-review": {
            "post": {
                "tags": ["Applications"],
                "summary": "Record supervisor verdict",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SupervisorReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/applications/{id}/resubmit": {
            "post": {
                "tags": ["Applications"],
                "summary": "Resubmit after changes requested",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/applications/{id}/company-review": {
            "post": {
                "tags": ["Applications"],
                "summary": "Record company verdict",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/applications/{id}/interview": {
            "post": {
                "tags": ["Applications"],
                "summary": "Schedule or reschedule interview",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/applications/{id}/interview-done": {
            "post": {
                "tags": ["Applications"],
                "summary": "Mark interview completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/applications/{id}/hire": {
            "post": {
                "tags": ["Applications"],
                "summary": "Hire applicant and issue offer letter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/HireRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Concurrent modification"},
                    "422": {"description": "Invalid transition"}
                }
            }
        },
        "/applications/{id}/reject": {
            "post": {
                "tags": ["Applications"],
                "summary": "Reject applicant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/applications/{id}/offer": {
            "get": {
                "tags": ["Offers"],
                "summary": "Get the offer issued for an application",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/offers": {
            "get": {
                "tags": ["Offers"],
                "summary": "List offers visible to the caller",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/offers/{id}/respond": {
            "post": {
                "tags": ["Offers"],
                "summary": "Accept or decline an offer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Already responded"}
                }
            }
        },
        "/reports/misconduct": {
            "post": {
                "tags": ["Misconduct"],
                "summary": "File a misconduct report",
                "parameters": [
                    {"name": "Idempotency-Key", "in": "header", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate idempotency key"},
                    "422": {"description": "Student not hired"}
                }
            },
            "get": {
                "tags": ["Misconduct"],
                "summary": "List misconduct reports",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/misconduct/{id}/resolve": {
            "post": {
                "tags": ["Misconduct"],
                "summary": "Resolve a misconduct report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/progress": {
            "post": {
                "tags": ["Progress"],
                "summary": "File a progress report",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Student not hired"}
                }
            },
            "get": {
                "tags": ["Progress"],
                "summary": "List progress reports",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/progress/{id}/review": {
            "post": {
                "tags": ["Progress"],
                "summary": "Review a progress report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Already reviewed"}
                }
            }
        },
        "/reports/appraisals": {
            "post": {
                "tags": ["Appraisals"],
                "summary": "File an internship appraisal",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Student not hired"}
                }
            },
            "get": {
                "tags": ["Appraisals"],
                "summary": "List appraisals",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/appraisals/{id}/attachments": {
            "post": {
                "tags": ["Appraisals"],
                "summary": "Attach supporting files",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "attachments", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "422": {"description": "Invalid attachment"}
                }
            }
        },
        "/reports/supervisor": {
            "post": {
                "tags": ["SupervisorReports"],
                "summary": "File a supervisor report",
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "get": {
                "tags": ["SupervisorReports"],
                "summary": "List supervisor reports",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/documents": {
            "post": {
                "tags": ["Documents"],
                "summary": "Queue a document render job",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get render job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download rendered document",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SupervisorReviewRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["approved", "rejected", "changes_requested"]},
                "comments": {"type": "string"},
                "reason": {"type": "string"},
                "requested_fixes": {"type": "string"},
                "fields_to_edit": {"type": "array", "items": {"type": "string"}}
            }
        },
        "HireRequest": {
            "type": "object",
            "required": ["content", "start_date", "end_date"],
            "properties": {
                "content": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "organization": {"type": "string"},
                "representative": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
