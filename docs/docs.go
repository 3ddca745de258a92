// Package docs registers the OpenAPI description served at /swagger.
// Code generated from the handler annotations; regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/api/admin/dashboard": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/analytics.Overview"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Admin dashboard",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/products": {
            "get": {
                "parameters": [
                    {
                        "description": "Product type",
                        "in": "query",
                        "name": "type",
                        "required": false,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "items": {
                                "$ref": "#/definitions/product.Product"
                            },
                            "type": "array"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List all products",
                "tags": [
                    "Admin"
                ]
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Product",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ProductRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/product.Product"
                        }
                    },
                    "409": {
                        "description": "Slug taken",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Create product",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/products/{id}": {
            "delete": {
                "parameters": [
                    {
                        "description": "Product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    },
                    "409": {
                        "description": "Product has orders",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete product",
                "tags": [
                    "Admin"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Product",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ProductRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/product.Product"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update product",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/subscriptions": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "User ID",
                        "in": "query",
                        "name": "user_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Product ID",
                        "in": "query",
                        "name": "product_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List all subscriptions",
                "tags": [
                    "Admin"
                ]
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Subscription",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateSubscriptionRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/subscription.Subscription"
                        }
                    },
                    "409": {
                        "description": "Already subscribed",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Create subscription",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/subscriptions/{id}/cancel": {
            "post": {
                "parameters": [
                    {
                        "description": "Subscription ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/subscription.Subscription"
                        }
                    },
                    "409": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Cancel subscription",
                "tags": [
                    "Subscriptions"
                ]
            }
        },
        "/api/admin/subscriptions/{id}/pause": {
            "post": {
                "parameters": [
                    {
                        "description": "Subscription ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/subscription.Subscription"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Pause subscription",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/subscriptions/{id}/resume": {
            "post": {
                "parameters": [
                    {
                        "description": "Subscription ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/subscription.Subscription"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Resume subscription",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/users": {
            "get": {
                "parameters": [
                    {
                        "description": "Email or name fragment",
                        "in": "query",
                        "name": "search",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Role filter",
                        "in": "query",
                        "name": "role",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List users",
                "tags": [
                    "Admin"
                ]
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Account",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateUserRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.UserDTO"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Create user",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/admin/users/{id}": {
            "delete": {
                "parameters": [
                    {
                        "description": "User ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    },
                    "403": {
                        "description": "Admins cannot delete themselves",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete user",
                "tags": [
                    "Admin"
                ]
            },
            "get": {
                "parameters": [
                    {
                        "description": "User ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.UserDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Get user",
                "tags": [
                    "Admin"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "User ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Changes",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateUserRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.UserDTO"
                        }
                    },
                    "403": {
                        "description": "Admins cannot demote or deactivate themselves",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update user",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/analytics/stats": {
            "get": {
                "parameters": [
                    {
                        "description": "Start (YYYY-MM-DD or RFC3339), defaults to 30 days ago",
                        "in": "query",
                        "name": "from",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "End (YYYY-MM-DD or RFC3339), defaults to now",
                        "in": "query",
                        "name": "to",
                        "required": false,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/analytics.Stats"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Analytics statistics",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/analytics/track": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Records a page view or interaction; the user is attached when a valid token is sent",
                "parameters": [
                    {
                        "description": "Event",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.TrackEventRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "summary": "Track event",
                "tags": [
                    "Analytics"
                ]
            }
        },
        "/api/auth/admin/login": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Authenticate an administrator; tokens use the admin expiry",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LoginRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.AuthResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Not an administrator",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Admin login",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/change-password": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Passwords",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ChangePasswordRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    },
                    "401": {
                        "description": "Current password is wrong",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Change password",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/forgot-password": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Always succeeds so callers cannot enumerate accounts",
                "parameters": [
                    {
                        "description": "Email",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ForgotPasswordRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "summary": "Request password reset",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Authenticate user with email and password",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LoginRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Successfully authenticated",
                        "schema": {
                            "$ref": "#/definitions/dto.AuthResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "User login",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/logout": {
            "post": {
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "summary": "Logout",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/me": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.UserDTO"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Current user",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/refresh": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Refresh token; the refreshToken cookie is used when absent",
                        "in": "body",
                        "name": "request",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/dto.RefreshTokenRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.AuthResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Refresh tokens",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/register": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Register a new customer account",
                "parameters": [
                    {
                        "description": "Registration details",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RegisterRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "User successfully registered",
                        "schema": {
                            "$ref": "#/definitions/dto.AuthResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid request or validation error",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Email already registered",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "User registration",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/reset-password": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Token and new password",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ResetPasswordRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Reset password",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/update-profile": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Profile fields",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateProfileRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.UserDTO"
                        }
                    },
                    "409": {
                        "description": "Email already in use",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update profile",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/auth/verify-token": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Token; the Authorization header is used when absent",
                        "in": "body",
                        "name": "request",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/dto.VerifyTokenRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.VerifyTokenResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Verify token",
                "tags": [
                    "Auth"
                ]
            }
        },
        "/api/courses/{id}/content": {
            "get": {
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Content"
                        }
                    },
                    "403": {
                        "description": "No access",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Course content",
                "tags": [
                    "Courses"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Modules in display order",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ReplaceContentRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Content"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Replace course content",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/courses/{id}/lessons/{lessonId}/playback": {
            "get": {
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Lesson ID",
                        "in": "path",
                        "name": "lessonId",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Playback"
                        }
                    },
                    "403": {
                        "description": "No access",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Lesson playback",
                "tags": [
                    "Courses"
                ]
            }
        },
        "/api/courses/{id}/module": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ModuleRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/course.Module"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Add module",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/courses/{id}/module/{moduleId}": {
            "delete": {
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module ID",
                        "in": "path",
                        "name": "moduleId",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete module",
                "tags": [
                    "Admin"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module ID",
                        "in": "path",
                        "name": "moduleId",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ModuleRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Module"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update module",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/courses/{id}/module/{moduleId}/lesson": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module ID",
                        "in": "path",
                        "name": "moduleId",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Lesson",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LessonRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/course.Lesson"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Add lesson",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/courses/{id}/module/{moduleId}/lesson/{lessonId}": {
            "delete": {
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module ID",
                        "in": "path",
                        "name": "moduleId",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Lesson ID",
                        "in": "path",
                        "name": "lessonId",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete lesson",
                "tags": [
                    "Admin"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Module ID",
                        "in": "path",
                        "name": "moduleId",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Lesson ID",
                        "in": "path",
                        "name": "lessonId",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Lesson",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.LessonRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Lesson"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update lesson",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/courses/{id}/outline": {
            "get": {
                "description": "Module and lesson titles; video references are only included for free lessons",
                "parameters": [
                    {
                        "description": "Course product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/course.Content"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Course outline",
                "tags": [
                    "Courses"
                ]
            }
        },
        "/api/newsletter/admin/messages": {
            "get": {
                "parameters": [
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List messages",
                "tags": [
                    "Admin"
                ]
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Message",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateMessageRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/newsletter.Message"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Create message",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/newsletter/admin/messages/{id}": {
            "delete": {
                "parameters": [
                    {
                        "description": "Message ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete message",
                "tags": [
                    "Admin"
                ]
            },
            "get": {
                "parameters": [
                    {
                        "description": "Message ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/newsletter.Message"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Get message",
                "tags": [
                    "Admin"
                ]
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Message ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Changes",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateMessageRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/newsletter.Message"
                        }
                    },
                    "409": {
                        "description": "Message already sent",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Update message",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/newsletter/admin/messages/{id}/send": {
            "post": {
                "description": "Marks the message as sending and dispatches delivery in the background",
                "parameters": [
                    {
                        "description": "Message ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/newsletter.Message"
                        }
                    },
                    "409": {
                        "description": "Message is not a draft",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Send message",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/newsletter/admin/subscribers": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Email or name fragment",
                        "in": "query",
                        "name": "search",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List subscribers",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/newsletter/admin/subscribers/{id}": {
            "delete": {
                "parameters": [
                    {
                        "description": "Subscriber ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Delete subscriber",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/newsletter/subscribe": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Subscriber",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.SubscribeRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/newsletter.Subscriber"
                        }
                    },
                    "409": {
                        "description": "Already subscribed",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Subscribe to newsletter",
                "tags": [
                    "Newsletter"
                ]
            }
        },
        "/api/newsletter/unsubscribe": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Token",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UnsubscribeRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.SuccessResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Unsubscribe from newsletter",
                "tags": [
                    "Newsletter"
                ]
            }
        },
        "/api/orders": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List my orders",
                "tags": [
                    "Orders"
                ]
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Creates a pending order; Stripe orders include a checkout URL",
                "parameters": [
                    {
                        "description": "Order",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateOrderRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/order.Checkout"
                        }
                    },
                    "409": {
                        "description": "Already owned",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Create order",
                "tags": [
                    "Orders"
                ]
            }
        },
        "/api/orders/admin/all": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "User ID",
                        "in": "query",
                        "name": "user_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Product ID",
                        "in": "query",
                        "name": "product_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List all orders",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/orders/stats": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/order.Stats"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Order statistics",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/orders/{id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Order ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/order.Order"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Get order",
                "tags": [
                    "Orders"
                ]
            }
        },
        "/api/orders/{id}/cancel": {
            "post": {
                "parameters": [
                    {
                        "description": "Order ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/order.Order"
                        }
                    },
                    "409": {
                        "description": "Order is not pending",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Cancel order",
                "tags": [
                    "Orders"
                ]
            }
        },
        "/api/orders/{id}/confirm": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "description": "Records an off-platform payment (PayPal, crypto) and grants the product",
                "parameters": [
                    {
                        "description": "Order ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Payment reference",
                        "in": "body",
                        "name": "request",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/dto.ConfirmOrderRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/order.Order"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Confirm payment",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/orders/{id}/refund": {
            "post": {
                "parameters": [
                    {
                        "description": "Order ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/order.Order"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Refund order",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/payments/stripe/webhook": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Stripe signature",
                        "in": "header",
                        "name": "Stripe-Signature",
                        "required": true,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "additionalProperties": {
                                "type": "boolean"
                            },
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Invalid signature",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Stripe webhook",
                "tags": [
                    "Payments"
                ]
            }
        },
        "/api/products": {
            "get": {
                "parameters": [
                    {
                        "description": "Product type",
                        "in": "query",
                        "name": "type",
                        "required": false,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "items": {
                                "$ref": "#/definitions/product.Product"
                            },
                            "type": "array"
                        }
                    }
                },
                "summary": "List products",
                "tags": [
                    "Products"
                ]
            }
        },
        "/api/products/slug/{slug}": {
            "get": {
                "parameters": [
                    {
                        "description": "Product slug",
                        "in": "path",
                        "name": "slug",
                        "required": true,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/product.Product"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Get product by slug",
                "tags": [
                    "Products"
                ]
            }
        },
        "/api/products/{id}": {
            "get": {
                "parameters": [
                    {
                        "description": "Product ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/product.Product"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Get product",
                "tags": [
                    "Products"
                ]
            }
        },
        "/api/subscriptions": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List my subscriptions",
                "tags": [
                    "Subscriptions"
                ]
            }
        },
        "/api/subscriptions/{id}/cancel": {
            "post": {
                "parameters": [
                    {
                        "description": "Subscription ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/subscription.Subscription"
                        }
                    },
                    "409": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Cancel subscription",
                "tags": [
                    "Subscriptions"
                ]
            }
        },
        "/api/trials/access/{productId}": {
            "get": {
                "parameters": [
                    {
                        "description": "Product ID",
                        "in": "path",
                        "name": "productId",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/trial.AccessStatus"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Check product access",
                "tags": [
                    "Trials"
                ]
            }
        },
        "/api/trials/admin/all": {
            "get": {
                "parameters": [
                    {
                        "description": "Status",
                        "in": "query",
                        "name": "status",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "User ID",
                        "in": "query",
                        "name": "user_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Product ID",
                        "in": "query",
                        "name": "product_id",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page number",
                        "in": "query",
                        "name": "page",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Page size",
                        "in": "query",
                        "name": "page_size",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List all trials",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/trials/admin/stats": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/trial.Stats"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Trial statistics",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/trials/admin/{id}/cancel": {
            "post": {
                "parameters": [
                    {
                        "description": "Trial ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/trial.Trial"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Cancel trial",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/trials/admin/{id}/extend": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Trial ID",
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Days",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.ExtendTrialRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/trial.Trial"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Extend trial",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/api/trials/my-trials": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "items": {
                                "$ref": "#/definitions/trial.Trial"
                            },
                            "type": "array"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "List my trials",
                "tags": [
                    "Trials"
                ]
            }
        },
        "/api/trials/product/{productId}": {
            "get": {
                "parameters": [
                    {
                        "description": "Product ID",
                        "in": "path",
                        "name": "productId",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/trial.Trial"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Get my trial for a product",
                "tags": [
                    "Trials"
                ]
            }
        },
        "/api/trials/start": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Product",
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.StartTrialRequest"
                        }
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/trial.Trial"
                        }
                    },
                    "409": {
                        "description": "Trial already used or product owned",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Start trial",
                "tags": [
                    "Trials"
                ]
            }
        },
        "/api/upload": {
            "post": {
                "consumes": [
                    "multipart/form-data"
                ],
                "description": "Accepts images, PDF and MP4 in the multipart field \"file\"",
                "parameters": [
                    {
                        "description": "File",
                        "in": "formData",
                        "name": "file",
                        "required": true,
                        "type": "file"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/dto.UploadResponse"
                        }
                    },
                    "400": {
                        "description": "Unsupported file type",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "File too large",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "summary": "Upload file",
                "tags": [
                    "Admin"
                ]
            }
        },
        "/health": {
            "get": {
                "description": "Check if the application is alive",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Application is alive",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    }
                },
                "summary": "Liveness check",
                "tags": [
                    "Health"
                ]
            }
        },
        "/healthz": {
            "get": {
                "description": "Check if the application is alive",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Application is alive",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    }
                },
                "summary": "Liveness check",
                "tags": [
                    "Health"
                ]
            }
        },
        "/readyz": {
            "get": {
                "description": "Check if the database and cache are reachable",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Application is ready",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    },
                    "503": {
                        "description": "Service unavailable",
                        "schema": {
                            "$ref": "#/definitions/utils.ErrorResponse"
                        }
                    }
                },
                "summary": "Readiness check",
                "tags": [
                    "Health"
                ]
            }
        }
    },
    "definitions": {
        "analytics.DayCount": {
            "properties": {
                "day": {
                    "type": "string"
                },
                "events": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "analytics.Overview": {
            "properties": {
                "activeSubscriptions": {
                    "type": "integer"
                },
                "activeTrials": {
                    "type": "integer"
                },
                "newsletterSubscribers": {
                    "type": "integer"
                },
                "paidOrders": {
                    "type": "integer"
                },
                "revenueByCurrency": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "totalUsers": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "analytics.PageCount": {
            "properties": {
                "path": {
                    "type": "string"
                },
                "views": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "analytics.Stats": {
            "properties": {
                "byType": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "daily": {
                    "items": {
                        "$ref": "#/definitions/analytics.DayCount"
                    },
                    "type": "array"
                },
                "from": {
                    "type": "string"
                },
                "pageViews": {
                    "type": "integer"
                },
                "to": {
                    "type": "string"
                },
                "topPages": {
                    "items": {
                        "$ref": "#/definitions/analytics.PageCount"
                    },
                    "type": "array"
                },
                "totalEvents": {
                    "type": "integer"
                },
                "uniqueSessions": {
                    "type": "integer"
                },
                "uniqueUsers": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "course.Content": {
            "properties": {
                "courseId": {
                    "type": "integer"
                },
                "modules": {
                    "items": {
                        "$ref": "#/definitions/course.Module"
                    },
                    "type": "array"
                },
                "totalDurationSeconds": {
                    "type": "integer"
                },
                "totalLessons": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "course.Lesson": {
            "properties": {
                "description": {
                    "type": "string"
                },
                "durationSeconds": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "isFree": {
                    "type": "boolean"
                },
                "moduleId": {
                    "type": "integer"
                },
                "position": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "videoUrl": {
                    "type": "string"
                },
                "vimeoHash": {
                    "type": "string"
                },
                "vimeoId": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "course.Module": {
            "properties": {
                "courseId": {
                    "type": "integer"
                },
                "description": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "lessons": {
                    "items": {
                        "$ref": "#/definitions/course.Lesson"
                    },
                    "type": "array"
                },
                "position": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "course.Playback": {
            "properties": {
                "durationSeconds": {
                    "type": "integer"
                },
                "embedUrl": {
                    "type": "string"
                },
                "lessonId": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.AuthResponse": {
            "properties": {
                "accessToken": {
                    "type": "string"
                },
                "expiresAt": {
                    "type": "integer"
                },
                "refreshToken": {
                    "type": "string"
                },
                "user": {
                    "$ref": "#/definitions/dto.UserDTO"
                }
            },
            "type": "object"
        },
        "dto.ChangePasswordRequest": {
            "properties": {
                "currentPassword": {
                    "type": "string"
                },
                "newPassword": {
                    "type": "string"
                }
            },
            "required": [
                "currentPassword",
                "newPassword"
            ],
            "type": "object"
        },
        "dto.ConfirmOrderRequest": {
            "properties": {
                "paymentReference": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.CreateMessageRequest": {
            "properties": {
                "body": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                }
            },
            "required": [
                "body",
                "subject"
            ],
            "type": "object"
        },
        "dto.CreateOrderRequest": {
            "properties": {
                "paymentMethod": {
                    "type": "string"
                },
                "productId": {
                    "type": "integer"
                }
            },
            "required": [
                "paymentMethod",
                "productId"
            ],
            "type": "object"
        },
        "dto.CreateSubscriptionRequest": {
            "properties": {
                "interval": {
                    "type": "string"
                },
                "productId": {
                    "type": "integer"
                },
                "userId": {
                    "type": "integer"
                }
            },
            "required": [
                "productId",
                "userId"
            ],
            "type": "object"
        },
        "dto.CreateUserRequest": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password"
            ],
            "type": "object"
        },
        "dto.ExtendTrialRequest": {
            "properties": {
                "days": {
                    "type": "integer"
                }
            },
            "required": [
                "days"
            ],
            "type": "object"
        },
        "dto.ForgotPasswordRequest": {
            "properties": {
                "email": {
                    "type": "string"
                }
            },
            "required": [
                "email"
            ],
            "type": "object"
        },
        "dto.LessonRequest": {
            "properties": {
                "description": {
                    "type": "string"
                },
                "durationSeconds": {
                    "type": "integer"
                },
                "isFree": {
                    "type": "boolean"
                },
                "position": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "videoUrl": {
                    "type": "string"
                }
            },
            "required": [
                "title",
                "videoUrl"
            ],
            "type": "object"
        },
        "dto.LoginRequest": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password"
            ],
            "type": "object"
        },
        "dto.ModuleRequest": {
            "properties": {
                "description": {
                    "type": "string"
                },
                "lessons": {
                    "items": {
                        "$ref": "#/definitions/dto.LessonRequest"
                    },
                    "type": "array"
                },
                "position": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                }
            },
            "required": [
                "title"
            ],
            "type": "object"
        },
        "dto.ProductRequest": {
            "properties": {
                "billingInterval": {
                    "type": "string"
                },
                "currency": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "features": {
                    "items": {
                        "type": "string"
                    },
                    "type": "array"
                },
                "imageUrl": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "priceCents": {
                    "type": "integer"
                },
                "slug": {
                    "type": "string"
                },
                "trialEnabled": {
                    "type": "boolean"
                },
                "type": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "type"
            ],
            "type": "object"
        },
        "dto.RefreshTokenRequest": {
            "properties": {
                "refreshToken": {
                    "type": "string"
                }
            },
            "required": [
                "refreshToken"
            ],
            "type": "object"
        },
        "dto.RegisterRequest": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            },
            "required": [
                "email",
                "password"
            ],
            "type": "object"
        },
        "dto.ReplaceContentRequest": {
            "properties": {
                "modules": {
                    "items": {
                        "$ref": "#/definitions/dto.ModuleRequest"
                    },
                    "type": "array"
                }
            },
            "type": "object"
        },
        "dto.ResetPasswordRequest": {
            "properties": {
                "password": {
                    "type": "string"
                },
                "token": {
                    "type": "string"
                }
            },
            "required": [
                "password",
                "token"
            ],
            "type": "object"
        },
        "dto.StartTrialRequest": {
            "properties": {
                "productId": {
                    "type": "integer"
                }
            },
            "required": [
                "productId"
            ],
            "type": "object"
        },
        "dto.SubscribeRequest": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                }
            },
            "required": [
                "email"
            ],
            "type": "object"
        },
        "dto.TrackEventRequest": {
            "properties": {
                "metadata": {
                    "type": "object"
                },
                "path": {
                    "type": "string"
                },
                "referrer": {
                    "type": "string"
                },
                "sessionId": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                }
            },
            "required": [
                "sessionId",
                "type"
            ],
            "type": "object"
        },
        "dto.UnsubscribeRequest": {
            "properties": {
                "token": {
                    "type": "string"
                }
            },
            "required": [
                "token"
            ],
            "type": "object"
        },
        "dto.UpdateMessageRequest": {
            "properties": {
                "body": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.UpdateProfileRequest": {
            "properties": {
                "country": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.UpdateUserRequest": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.UploadResponse": {
            "properties": {
                "contentType": {
                    "type": "string"
                },
                "key": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "url": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.UserDTO": {
            "properties": {
                "country": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "isActive": {
                    "type": "boolean"
                },
                "lastLoginAt": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.VerifyTokenRequest": {
            "properties": {
                "token": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "dto.VerifyTokenResponse": {
            "properties": {
                "user": {
                    "$ref": "#/definitions/dto.UserDTO"
                },
                "valid": {
                    "type": "boolean"
                }
            },
            "type": "object"
        },
        "newsletter.Message": {
            "properties": {
                "body": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "createdBy": {
                    "type": "integer"
                },
                "failedCount": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "recipientCount": {
                    "type": "integer"
                },
                "sentAt": {
                    "type": "string"
                },
                "sentCount": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "newsletter.Subscriber": {
            "properties": {
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "subscribedAt": {
                    "type": "string"
                },
                "unsubscribedAt": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "order.Checkout": {
            "properties": {
                "checkoutUrl": {
                    "type": "string"
                },
                "order": {
                    "$ref": "#/definitions/order.Order"
                }
            },
            "type": "object"
        },
        "order.Order": {
            "properties": {
                "amountCents": {
                    "type": "integer"
                },
                "cancelledAt": {
                    "type": "string"
                },
                "checkoutUrl": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "currency": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "paidAt": {
                    "type": "string"
                },
                "paymentMethod": {
                    "type": "string"
                },
                "paymentReference": {
                    "type": "string"
                },
                "productId": {
                    "type": "integer"
                },
                "productName": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "userEmail": {
                    "type": "string"
                },
                "userId": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "order.Stats": {
            "properties": {
                "byPaymentMethod": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "byStatus": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "revenueByCurrency": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "revenueLast30Days": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "totalOrders": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "product.Product": {
            "properties": {
                "billingInterval": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "currency": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "features": {
                    "items": {
                        "type": "string"
                    },
                    "type": "array"
                },
                "id": {
                    "type": "integer"
                },
                "imageUrl": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "priceCents": {
                    "type": "integer"
                },
                "slug": {
                    "type": "string"
                },
                "trialEnabled": {
                    "type": "boolean"
                },
                "type": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "subscription.Subscription": {
            "properties": {
                "cancelledAt": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "currentPeriodEnd": {
                    "type": "string"
                },
                "currentPeriodStart": {
                    "type": "string"
                },
                "daysRemaining": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "interval": {
                    "type": "string"
                },
                "orderId": {
                    "type": "integer"
                },
                "pausedAt": {
                    "type": "string"
                },
                "productId": {
                    "type": "integer"
                },
                "productName": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "userEmail": {
                    "type": "string"
                },
                "userId": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "trial.AccessStatus": {
            "properties": {
                "daysRemaining": {
                    "type": "integer"
                },
                "hasAccess": {
                    "type": "boolean"
                },
                "productId": {
                    "type": "integer"
                },
                "reason": {
                    "type": "string"
                },
                "trialStatus": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "trial.Stats": {
            "properties": {
                "byStatus": {
                    "additionalProperties": {
                        "type": "integer"
                    },
                    "type": "object"
                },
                "conversionRate": {
                    "type": "number"
                },
                "total": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "trial.Trial": {
            "properties": {
                "cancelledAt": {
                    "type": "string"
                },
                "convertedAt": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "daysRemaining": {
                    "type": "integer"
                },
                "expiresAt": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "productId": {
                    "type": "integer"
                },
                "productName": {
                    "type": "string"
                },
                "reminderSentAt": {
                    "type": "string"
                },
                "startedAt": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "userEmail": {
                    "type": "string"
                },
                "userId": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "utils.ErrorDetail": {
            "properties": {
                "code": {
                    "type": "string"
                },
                "details": {
                    "type": "object"
                },
                "message": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "utils.ErrorResponse": {
            "properties": {
                "error": {
                    "$ref": "#/definitions/utils.ErrorDetail"
                },
                "success": {
                    "type": "boolean"
                }
            },
            "type": "object"
        },
        "utils.PaginatedResponse": {
            "properties": {
                "data": {
                    "type": "object"
                },
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_items": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            },
            "type": "object"
        },
        "utils.SuccessResponse": {
            "properties": {
                "data": {
                    "type": "object"
                },
                "message": {
                    "type": "string"
                },
                "success": {
                    "type": "boolean"
                }
            },
            "type": "object"
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Spartano Furioso API",
	Description:      "Storefront, course, trial and newsletter backend for Spartano Furioso.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
