// Package docs holds the OpenAPI description of the HTTP API. Keep it in step
// with the annotations on the handlers in internal/handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/ledger": {
            "get": {
                "tags": ["Ledger"],
                "summary": "List ledger",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Search term", "name": "search", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.LedgerEntry"}}}
                }
            }
        },
        "/ledger/entity/{entityId}": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Entity ledger",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Agent or ticket id", "name": "entityId", "in": "path", "required": true},
                    {"type": "integer", "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, inclusive", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, inclusive", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.LedgerEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/ledger/summary": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Balance summary",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.BalanceSummary"}}}
                }
            }
        },
        "/ledger/balance/{entityId}": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Current balance",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Agent or ticket id", "name": "entityId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"entityId": {"type": "string"}, "balance": {"type": "string"}}}}
                }
            }
        },
        "/ledger/verify/{entityId}": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Verify balance chain",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Agent or ticket id", "name": "entityId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.ChainReport"}}
                }
            }
        },
        "/ledger/payment": {
            "post": {
                "tags": ["Ledger"],
                "summary": "Record payment",
                "description": "Store a payment and its credit ledger entry",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Payment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.paymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.PaymentResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/ledger/manual-entry": {
            "post": {
                "tags": ["Ledger"],
                "summary": "Manual ledger entry",
                "description": "Post a debit, credit or no-effect entry; date may be backdated",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Ledger entry", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.manualEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.LedgerEntry"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/tickets": {
            "post": {
                "tags": ["Tickets"],
                "summary": "Create ticket",
                "description": "Store a ticket and post its charges to the ledger",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Ticket", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.TicketInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}": {
            "get": {
                "tags": ["Tickets"],
                "summary": "Get ticket",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Ticket id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["Tickets"],
                "summary": "Update ticket",
                "description": "Apply a partial update and reconcile changed amounts",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Ticket id", "name": "id", "in": "path", "required": true},
                    {"description": "Changed fields", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.TicketPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.paymentRequest": {
            "type": "object",
            "required": ["entityId", "entityType", "amount", "paymentMethod", "referenceNumber"],
            "properties": {
                "entityId": {"type": "string"},
                "entityType": {"type": "string", "enum": ["Agent", "Ticket"]},
                "amount": {"type": "string"},
                "paymentMethod": {"type": "string"},
                "paymentDate": {"type": "string"},
                "referenceNumber": {"type": "string"},
                "description": {"type": "string"},
                "relatedTickets": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.manualEntryRequest": {
            "type": "object",
            "required": ["entityId", "entityType", "amount", "transactionType", "referenceNumber", "description"],
            "properties": {
                "entityId": {"type": "string"},
                "entityType": {"type": "string", "enum": ["Agent", "Ticket"]},
                "ticketId": {"type": "string"},
                "amount": {"type": "string"},
                "transactionType": {"type": "string", "enum": ["debit", "credit", "no-effect"]},
                "referenceNumber": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "models.LedgerEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entityId": {"type": "string"},
                "entityType": {"type": "string"},
                "ticketId": {"type": "string"},
                "transactionType": {"type": "string"},
                "amount": {"type": "string"},
                "balance": {"type": "string"},
                "description": {"type": "string"},
                "referenceNumber": {"type": "string"},
                "date": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "models.BalanceSummary": {
            "type": "object",
            "properties": {
                "entityId": {"type": "string"},
                "entityType": {"type": "string"},
                "name": {"type": "string"},
                "balance": {"type": "string"}
            }
        },
        "models.Ticket": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ticketNumber": {"type": "string"},
                "passengerName": {"type": "string"},
                "agent": {"type": "string"},
                "operationType": {"type": "string"},
                "providerCost": {"type": "string"},
                "consumerCost": {"type": "string"},
                "profit": {"type": "string"},
                "paymentType": {"type": "string"},
                "consumerFee": {"type": "string"}
            }
        },
        "services.TicketInput": {
            "type": "object",
            "required": ["ticketNumber", "passengerName", "provider", "operationType", "paymentType"],
            "properties": {
                "ticketNumber": {"type": "string"},
                "passengerName": {"type": "string"},
                "airlineCode": {"type": "string"},
                "provider": {"type": "string"},
                "agent": {"type": "string"},
                "operationType": {"type": "string", "enum": ["Flight", "Hotel", "Umrah", "Refund", "Re-Issue"]},
                "pnr": {"type": "string"},
                "providerCost": {"type": "string"},
                "consumerCost": {"type": "string"},
                "paymentToProvider": {"type": "string"},
                "paymentType": {"type": "string", "enum": ["Full", "Partial"]},
                "providerFee": {"type": "string"},
                "consumerFee": {"type": "string"},
                "issueDate": {"type": "string"}
            }
        },
        "services.TicketPatch": {
            "type": "object",
            "properties": {
                "ticketNumber": {"type": "string"},
                "passengerName": {"type": "string"},
                "consumerCost": {"type": "string"},
                "providerCost": {"type": "string"},
                "consumerFee": {"type": "string"},
                "providerFee": {"type": "string"},
                "paymentToProvider": {"type": "string"}
            }
        },
        "services.PaymentResult": {
            "type": "object",
            "properties": {
                "payment": {"type": "object"},
                "ledgerEntry": {"$ref": "#/definitions/models.LedgerEntry"}
            }
        },
        "services.ChainReport": {
            "type": "object",
            "properties": {
                "entityId": {"type": "string"},
                "valid": {"type": "boolean"},
                "entries": {"type": "integer"},
                "balance": {"type": "string"},
                "violations": {"type": "array", "items": {"type": "object"}}
            }
        },
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Travel Agency Ledger API",
	Description:      "Running-balance ledger for agents and tickets",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
