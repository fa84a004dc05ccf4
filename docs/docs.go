// Package docs registers the OpenAPI description served by the Swagger UI
// in development mode. Regenerate with `swag init -g cmd/api/main.go`.
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
        "/applicant/register": {
            "post": {
                "tags": ["applicant"],
                "summary": "Register a new applicant",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid request or validation error"},
                    "409": {"description": "Email already exists"}
                }
            }
        },
        "/applicant/signIn": {
            "post": {
                "tags": ["applicant"],
                "summary": "Applicant sign-in",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unknown email or wrong password"},
                    "403": {"description": "Account deactivated"}
                }
            }
        },
        "/applicant/confirm": {
            "post": {
                "tags": ["applicant"],
                "summary": "Confirm email address",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Expired, invalid or already used token"}
                }
            }
        },
        "/applicant/{id}/resendConfirmation": {
            "post": {
                "tags": ["applicant"],
                "summary": "Resend confirmation email",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Email already confirmed"},
                    "429": {"description": "Too many requests"}
                }
            }
        },
        "/user/signIn": {
            "post": {
                "tags": ["user"],
                "summary": "Administration sign-in",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unknown email or wrong password"}
                }
            }
        },
        "/schoolClass": {
            "get": {
                "tags": ["schoolClass"],
                "summary": "List school classes",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
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
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "School Applicant Registration API",
	Description:      "REST backend for school applicant registration with email confirmation and role-scoped sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
