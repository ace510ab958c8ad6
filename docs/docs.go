// Package docs provides Swagger documentation for the Policy Admin API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/MrKriegler/go-policy-admin"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/policies/{policy_id}": {
            "get": {
                "tags": ["Policies"],
                "summary": "Get policy details",
                "description": "Returns the policy with its property, holders, payments and refunds",
                "operationId": "getPolicy",
                "parameters": [{"$ref": "#/parameters/PolicyID"}],
                "responses": {
                    "200": {"description": "Policy", "schema": {"$ref": "#/definitions/PolicyResult"}},
                    "400": {"$ref": "#/responses/Failure"},
                    "401": {"$ref": "#/responses/Unauthorized"}
                }
            }
        },
        "/policies/{policy_id}:renew": {
            "post": {
                "tags": ["Policies"],
                "summary": "Renew a policy",
                "description": "Issues the follow-on policy for the year after the current one ends. Allowed within 30 days of the end date.",
                "operationId": "renewPolicy",
                "parameters": [{"$ref": "#/parameters/PolicyID"}],
                "responses": {
                    "200": {"description": "Renewal", "schema": {"$ref": "#/definitions/RenewResultEnvelope"}},
                    "400": {"$ref": "#/responses/Failure"},
                    "401": {"$ref": "#/responses/Unauthorized"}
                }
            }
        },
        "/policies/{policy_id}:cancel": {
            "post": {
                "tags": ["Policies"],
                "summary": "Cancel a policy",
                "description": "Marks the policy cancelled and raises a refund. Full refund within the 14 day cooling-off period, pro rata afterwards.",
                "operationId": "cancelPolicy",
                "parameters": [{"$ref": "#/parameters/PolicyID"}],
                "responses": {
                    "200": {"description": "Cancellation", "schema": {"$ref": "#/definitions/CancelResultEnvelope"}},
                    "400": {"$ref": "#/responses/Failure"},
                    "401": {"$ref": "#/responses/Unauthorized"}
                }
            }
        },
        "/quotes": {
            "post": {
                "tags": ["Quotes"],
                "summary": "Create a quote",
                "operationId": "createQuote",
                "parameters": [{
                    "name": "body", "in": "body", "required": true,
                    "schema": {"$ref": "#/definitions/QuoteRequest"}
                }],
                "responses": {
                    "200": {"description": "Quote", "schema": {"$ref": "#/definitions/QuoteResult"}},
                    "400": {"$ref": "#/responses/Failure"}
                }
            }
        },
        "/quotes/{quote_id}": {
            "get": {
                "tags": ["Quotes"],
                "summary": "Get a quote",
                "operationId": "getQuote",
                "parameters": [{"$ref": "#/parameters/QuoteID"}],
                "responses": {
                    "200": {"description": "Quote", "schema": {"$ref": "#/definitions/QuoteResult"}},
                    "400": {"$ref": "#/responses/Failure"}
                }
            }
        },
        "/quotes/{quote_id}:confirm": {
            "post": {
                "tags": ["Quotes"],
                "summary": "Confirm a quote",
                "description": "Checks eligibility and issues a policy with a direct debit payment for the full amount",
                "operationId": "confirmQuote",
                "parameters": [{"$ref": "#/parameters/QuoteID"}],
                "responses": {
                    "200": {"description": "Created policy", "schema": {"$ref": "#/definitions/PolicyResult"}},
                    "400": {"$ref": "#/responses/Failure"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "security": [],
                "produces": ["text/plain"],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/readyz": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "security": [],
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "ready"},
                    "503": {"description": "not ready"}
                }
            }
        }
    },
    "parameters": {
        "PolicyID": {"name": "policy_id", "in": "path", "required": true, "type": "integer", "format": "int64"},
        "QuoteID": {"name": "quote_id", "in": "path", "required": true, "type": "integer", "format": "int64"}
    },
    "responses": {
        "Failure": {"description": "Lifecycle failure", "schema": {"$ref": "#/definitions/Failure"}},
        "Unauthorized": {"description": "Missing token or policy not associated with user", "schema": {"$ref": "#/definitions/Failure"}}
    },
    "definitions": {
        "Failure": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "message": {"type": "string", "example": "Policy not found"},
                "result": {"type": "object"}
            }
        },
        "Property": {
            "type": "object",
            "required": ["address_line1", "post_code"],
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "policy_id": {"type": "integer", "format": "int64"},
                "address_line1": {"type": "string"},
                "address_line2": {"type": "string"},
                "address_line3": {"type": "string"},
                "post_code": {"type": "string"}
            }
        },
        "Holder": {
            "type": "object",
            "required": ["first_name", "last_name", "date_of_birth"],
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "policy_id": {"type": "integer", "format": "int64"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "date_of_birth": {"type": "string", "format": "date"}
            }
        },
        "Payment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "policy_id": {"type": "integer", "format": "int64"},
                "payment_type": {"$ref": "#/definitions/PaymentType"},
                "amount": {"type": "string", "example": "480.00"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "Refund": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "policy_id": {"type": "integer", "format": "int64"},
                "payment_type": {"$ref": "#/definitions/PaymentType"},
                "amount": {"type": "string", "example": "120.00"},
                "created_at": {"type": "string", "format": "date-time"},
                "reason": {"type": "string", "example": "Policy cancellation"}
            }
        },
        "PaymentType": {
            "type": "string",
            "enum": ["None", "DebitCard", "CreditCard", "DirectDebit", "BankTransfer", "InternalCredit"]
        },
        "Policy": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "amount": {"type": "string", "example": "480.00"},
                "auto_renew": {"type": "boolean"},
                "cancelled": {"type": "boolean"},
                "cancelled_at": {"type": "string", "format": "date-time"},
                "property": {"$ref": "#/definitions/Property"},
                "holders": {"type": "array", "items": {"$ref": "#/definitions/Holder"}},
                "payments": {"type": "array", "items": {"$ref": "#/definitions/Payment"}},
                "refunds": {"type": "array", "items": {"$ref": "#/definitions/Refund"}}
            }
        },
        "RenewResult": {
            "type": "object",
            "properties": {
                "policy_id": {"type": "integer", "format": "int64"},
                "new_start_date": {"type": "string", "format": "date"},
                "new_end_date": {"type": "string", "format": "date"},
                "new_amount": {"type": "string"},
                "payment_raised": {"type": "boolean"}
            }
        },
        "CancelResult": {
            "type": "object",
            "properties": {
                "policy_id": {"type": "integer", "format": "int64"},
                "refund_amount": {"type": "string"},
                "payment_type": {"$ref": "#/definitions/PaymentType"}
            }
        },
        "QuoteRequest": {
            "type": "object",
            "required": ["start_date", "end_date", "property", "holders"],
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "amount": {"type": "string", "example": "480.00"},
                "property": {"$ref": "#/definitions/Property"},
                "holders": {"type": "array", "items": {"$ref": "#/definitions/Holder"}}
            }
        },
        "Quote": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "format": "int64"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "amount": {"type": "string"},
                "property": {"$ref": "#/definitions/Property"},
                "holders": {"type": "array", "items": {"$ref": "#/definitions/Holder"}},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "PolicyResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "result": {"$ref": "#/definitions/Policy"}
            }
        },
        "RenewResultEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "result": {"$ref": "#/definitions/RenewResult"}
            }
        },
        "CancelResultEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string", "example": "Policy Cancelled and Refund has been raised"},
                "result": {"$ref": "#/definitions/CancelResult"}
            }
        },
        "QuoteResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "result": {"$ref": "#/definitions/Quote"}
            }
        }
    },
    "tags": [
        {"name": "Policies", "description": "Policy lifecycle: details, renewal and cancellation"},
        {"name": "Quotes", "description": "Stored quotes and confirmation into policies"},
        {"name": "Health", "description": "Probes"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Policy Admin API",
	Description:      "Home insurance policy lifecycle: create from quote, renew, cancel with refund",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
