package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Event Check-in API",
        "description": "Admission control and roster import service for event check-in",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Staff authentication"},
        {"name": "Scans", "description": "Checkpoint credential scanning"},
        {"name": "Imports", "description": "Staged attendee roster import"},
        {"name": "Participants", "description": "Attendee records"},
        {"name": "AccessPoints", "description": "Event checkpoints"},
        {"name": "TicketAccess", "description": "Ticket type access grants"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/events/{eventID}/scans": {
            "post": {
                "tags": ["Scans"],
                "summary": "Evaluate a credential scan",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable, scan unrecorded"}
                }
            }
        },
        "/events/{eventID}/access-points/{accessPointID}/scans": {
            "get": {
                "tags": ["Scans"],
                "summary": "Latest scans for one access point",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "accessPointID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{eventID}/access-points/{accessPointID}/scan-statistics": {
            "get": {
                "tags": ["Scans"],
                "summary": "Scan outcome counts for one access point",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "accessPointID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{eventID}/access-points/{accessPointID}/scan-statistics/export": {
            "get": {
                "tags": ["Scans"],
                "summary": "Download scan outcome counts as CSV or PDF",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "accessPointID", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/scans/badges": {
            "get": {
                "tags": ["Scans"],
                "summary": "Download a generated badge PDF",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "403": {"description": "Invalid or expired link"}
                }
            }
        },
        "/events/{eventID}/participants": {
            "get": {
                "tags": ["Participants"],
                "summary": "List participants",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Participants"],
                "summary": "Register a participant manually",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateParticipantRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/participants/{id}": {
            "get": {
                "tags": ["Participants"],
                "summary": "Get participant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Participants"],
                "summary": "Update participant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateParticipantRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Participants"],
                "summary": "Soft delete participant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/participants/{id}/credential": {
            "get": {
                "tags": ["Participants"],
                "summary": "Get the scannable credential token",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/participants/{id}/credential/send": {
            "post": {
                "tags": ["Participants"],
                "summary": "Queue a credential email",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "202": {"description": "Queued"}
                }
            }
        },
        "/events/{eventID}/participants/import": {
            "post": {
                "tags": ["Imports"],
                "summary": "Upload and import an attendee roster",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid upload"}
                }
            },
            "delete": {
                "tags": ["Imports"],
                "summary": "Discard the staged batch",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/events/{eventID}/participants/import/staged-errors": {
            "get": {
                "tags": ["Imports"],
                "summary": "List validation errors of the staged batch",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{eventID}/participants/import/commit": {
            "post": {
                "tags": ["Imports"],
                "summary": "Commit the staged batch",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Batch has outstanding validation errors"}
                }
            }
        },
        "/events/{eventID}/participants/import/errors": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download the validation error report",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"},
                    "403": {"description": "Invalid or expired link"}
                }
            }
        },
        "/events/{eventID}/access-points": {
            "get": {
                "tags": ["AccessPoints"],
                "summary": "List access points",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["AccessPoints"],
                "summary": "Create access point",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AccessPointRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/access-points/{id}": {
            "get": {
                "tags": ["AccessPoints"],
                "summary": "Get access point",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["AccessPoints"],
                "summary": "Update access point",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AccessPointRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["AccessPoints"],
                "summary": "Deactivate access point",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/events/{eventID}/ticket-types": {
            "get": {
                "tags": ["TicketAccess"],
                "summary": "List ticket types",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{eventID}/ticket-types/{ticketTypeID}/access-points": {
            "get": {
                "tags": ["TicketAccess"],
                "summary": "List access point assignments",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "ticketTypeID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["TicketAccess"],
                "summary": "Replace access point assignments",
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "ticketTypeID", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveAssignmentsRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ScanRequest": {
            "type": "object",
            "properties": {
                "credential_token": {"type": "string"},
                "access_point_id": {"type": "integer"},
                "is_print_mode": {"type": "boolean"}
            },
            "required": ["credential_token", "access_point_id"]
        },
        "ScanResult": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["VALID", "INVALID", "INVALID_ACCESS", "DUPLICATE", "ERROR"]},
                "message": {"type": "string"},
                "participant_id": {"type": "integer"},
                "participant_code": {"type": "string"},
                "holder_name": {"type": "string"},
                "access_point_id": {"type": "integer"},
                "scanned_at": {"type": "string"},
                "badge_url": {"type": "string"}
            }
        },
        "CreateParticipantRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "company": {"type": "string"},
                "department": {"type": "string"},
                "notes": {"type": "string"},
                "ticket_type_id": {"type": "integer"}
            },
            "required": ["first_name", "last_name"]
        },
        "UpdateParticipantRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "company": {"type": "string"},
                "department": {"type": "string"},
                "notes": {"type": "string"},
                "ticket_type_id": {"type": "integer"},
                "active": {"type": "boolean"}
            },
            "required": ["first_name", "last_name"]
        },
        "AccessPointRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["name"]
        },
        "SaveAssignmentsRequest": {
            "type": "object",
            "properties": {
                "access_point_ids": {
                    "type": "array",
                    "items": {"type": "integer"}
                }
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "total_rows": {"type": "integer"},
                "imported_rows": {"type": "integer"},
                "failed_rows": {"type": "integer"},
                "error_report_url": {"type": "string"}
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
