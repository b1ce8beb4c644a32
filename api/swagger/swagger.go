package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIAPPTN Tryout API",
        "description": "Answer ingestion, score aggregation and ranking for SIAPPTN tryouts",
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
        {"name": "Tryout", "description": "Answer ingestion and ranking runs"},
        {"name": "Ranking", "description": "Ranking reads and exports"},
        {"name": "Ops", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/simpan-jawaban-user/{id_tryout}": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Flatten stored answer batches into per-question entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id_tryout", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/IngestResponse"}},
                    "400": {"description": "No valid answers", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No answer batches for tryout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/process-tryout/{idTryout}": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Recompute the ranking and review snapshots",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "idTryout", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Processing failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/process-tryout/{idTryout}/async": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Queue a ranking run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "idTryout", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/process-tryout/jobs/{jobId}": {
            "get": {
                "tags": ["Tryout"],
                "summary": "Inspect a queued ranking run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobStateResponse"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ranking/{idTryout}": {
            "get": {
                "tags": ["Ranking"],
                "summary": "List ranking rows of a tryout",
                "parameters": [
                    {"name": "idTryout", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RankingResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ranking/{idTryout}/export": {
            "get": {
                "tags": ["Ranking"],
                "summary": "Download the ranking as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "idTryout", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "jobId": {"type": "string"}
            }
        },
        "IngestResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "inserted": {"type": "integer"}
            }
        },
        "RankingRow": {
            "type": "object",
            "properties": {
                "id_user": {"type": "string"},
                "username": {"type": "string"},
                "peminatan": {"type": "string"},
                "total": {"type": "number"},
                "instansi": {"type": "string"},
                "provinsi": {"type": "integer"},
                "rank": {"type": "integer"},
                "province_name": {"type": "string"},
                "image": {"type": "string"}
            }
        },
        "RankingResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/RankingRow"}}
            }
        },
        "JobState": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string", "enum": ["queued", "running", "retrying", "succeeded", "failed"]},
                "attempt": {"type": "integer"},
                "error": {"type": "string"},
                "enqueuedAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "JobStateResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"$ref": "#/definitions/JobState"}
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
