package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Records API",
        "description": "Conclusion records, equivalencies and verifiable official documents",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Conclusions", "description": "Course and grade conclusion records"},
        {"name": "Equivalencies", "description": "Disciplines credited from prior studies"},
        {"name": "Documents", "description": "Issuance, voiding and register of official documents"},
        {"name": "Verification", "description": "Public document verification and signed downloads"}
    ],
    "paths": {
        "/conclusions": {
            "get": {
                "tags": ["Conclusions"],
                "summary": "List conclusion records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["VALIDATED", "CONCLUDED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Conclusions"],
                "summary": "Register a validated conclusion record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateConclusionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Requirements not met", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conclusions/requirements": {
            "post": {
                "tags": ["Conclusions"],
                "summary": "Check whether a student meets the requirements to conclude",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequirementsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conclusions/{id}": {
            "get": {
                "tags": ["Conclusions"],
                "summary": "Get a conclusion record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Conclusions"],
                "summary": "Always rejected; conclusion records are immutable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Conclusions"],
                "summary": "Always rejected; conclusion records are immutable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conclusions/{id}/conclude": {
            "post": {
                "tags": ["Conclusions"],
                "summary": "Conclude a validated record and close the enrollments in scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ConcludeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Already concluded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conclusions/{id}/graduation": {
            "post": {
                "tags": ["Conclusions"],
                "summary": "Create the graduation record of a concluded higher education record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conclusions/{id}/certificate-record": {
            "post": {
                "tags": ["Conclusions"],
                "summary": "Create the certificate record of a concluded secondary education record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/equivalencies": {
            "get": {
                "tags": ["Equivalencies"],
                "summary": "List equivalencies",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "destinationDisciplineId", "in": "query", "type": "string"},
                    {"name": "deferred", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Equivalencies"],
                "summary": "Register a pending equivalency",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEquivalencyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/equivalencies/{id}": {
            "get": {
                "tags": ["Equivalencies"],
                "summary": "Get an equivalency",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Equivalencies"],
                "summary": "Edit a pending equivalency",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEquivalencyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Deferred", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Equivalencies"],
                "summary": "Delete a pending equivalency",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Deferred", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/equivalencies/{id}/defer": {
            "post": {
                "tags": ["Equivalencies"],
                "summary": "Defer an equivalency; the record becomes immutable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List issued documents",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["ACTIVE", "VOID"]},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Issue an official document",
                "description": "Returns the PDF unless the client accepts application/json.",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf", "application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IssueDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "PDF"},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/IssueDocumentResponse"}},
                    "422": {"description": "Not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/register": {
            "get": {
                "tags": ["Documents"],
                "summary": "Export the issued documents register",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Get an issued document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/pdf": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download the PDF of an issued document",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF"}
                }
            }
        },
        "/documents/{id}/void": {
            "post": {
                "tags": ["Documents"],
                "summary": "Void an issued document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoidDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already void", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/download/{token}": {
            "get": {
                "tags": ["Verification"],
                "summary": "Download a document through a signed link",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/verify/{code}": {
            "get": {
                "tags": ["Verification"],
                "summary": "Verify a printed document by its verification code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateConclusionRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "classId": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "RequirementsRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "classId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "ConcludeRequest": {
            "type": "object",
            "properties": {
                "officialActNumber": {"type": "string"}
            }
        },
        "CreateEquivalencyRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "originDisciplineId": {"type": "string"},
                "originExternalName": {"type": "string"},
                "originInstitution": {"type": "string"},
                "originHours": {"type": "string"},
                "destinationDisciplineId": {"type": "string"},
                "destinationHours": {"type": "string"},
                "criterion": {"type": "string"},
                "observation": {"type": "string"}
            },
            "required": ["studentId", "destinationDisciplineId", "criterion"]
        },
        "UpdateEquivalencyRequest": {
            "type": "object",
            "properties": {
                "originDisciplineId": {"type": "string"},
                "originExternalName": {"type": "string"},
                "originInstitution": {"type": "string"},
                "originHours": {"type": "string"},
                "destinationDisciplineId": {"type": "string"},
                "destinationHours": {"type": "string"},
                "criterion": {"type": "string"},
                "observation": {"type": "string"}
            }
        },
        "IssueDocumentRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["ENROLLMENT_DECLARATION", "ATTENDANCE_DECLARATION", "TRANSCRIPT", "CERTIFICATE"]},
                "studentId": {"type": "string"},
                "academicYearId": {"type": "string"},
                "disciplineId": {"type": "string"},
                "conclusionId": {"type": "string"}
            },
            "required": ["kind", "studentId"]
        },
        "IssueDocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "number": {"type": "string"},
                "verificationCode": {"type": "string"},
                "hash": {"type": "string"},
                "downloadUrl": {"type": "string"},
                "downloadExpiresAt": {"type": "string", "format": "date-time"}
            }
        },
        "VoidDocumentRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
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
