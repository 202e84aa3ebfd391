// Package docs registers the OpenAPI description of the REST API with swag so
// gin-swagger can serve it at /swagger/doc.json.
//
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Persists a message to recipientId and pushes it to connected peers. Retries carrying the same Idempotency-Key return the original message.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send a direct message",
                "operationId": "sendMessage",
                "parameters": [
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Message payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SendMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/conversation/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Pages count back from the newest message; each page is returned oldest first. Supports If-None-Match with a weak ETag.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Conversation history with a user",
                "operationId": "getConversation",
                "parameters": [
                    {"type": "string", "description": "Counterpart user id", "name": "userId", "in": "path", "required": true},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 50, "description": "Items per page", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ConversationResponse"}},
                    "304": {"description": "Not modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/conversation/{userId}/read": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Marks every unread message from userId to the caller as read and notifies connected peers.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Mark a conversation as read",
                "operationId": "markConversationRead",
                "parameters": [
                    {"type": "string", "description": "Counterpart user id", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MarkReadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "One entry per counterpart with the last message and unread count, most recent first.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Inbox summaries",
                "operationId": "getConversations",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ConversationsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/unread-count": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Unread message count",
                "operationId": "getUnreadCount",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UnreadCountResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/{messageId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Soft-deletes a message the caller sent or received.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Delete a message",
                "operationId": "deleteMessage",
                "parameters": [
                    {"type": "string", "description": "Message id", "name": "messageId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/{messageId}/read": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Only the recipient can mark a message, and only once.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Mark one message as read",
                "operationId": "markMessageRead",
                "parameters": [
                    {"type": "string", "description": "Message id", "name": "messageId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found or already read", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Activated users other than the caller, sorted by first name.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users",
                "operationId": "listUsers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UsersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Current user",
                "operationId": "getCurrentUser",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/online": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Ids of users with an active realtime connection on this node.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Online users",
                "operationId": "listOnlineUsers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.OnlineUsersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/users/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get a user",
                "operationId": "getUser",
                "parameters": [
                    {"type": "string", "description": "User id", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ConversationSummary": {
            "type": "object",
            "properties": {
                "lastMessage": {"$ref": "#/definitions/domain.LastMessage"},
                "unreadCount": {"type": "integer"},
                "user": {"$ref": "#/definitions/domain.UserInfo"}
            }
        },
        "domain.LastMessage": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "messageType": {"type": "string"}
            }
        },
        "domain.MessageView": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "createdAt": {"type": "string"},
                "isRead": {"type": "boolean"},
                "messageId": {"type": "string"},
                "messageType": {"type": "string"},
                "readAt": {"type": "string"},
                "recipient": {"type": "string"},
                "sender": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.UserInfo": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "handlers.ConversationResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.MessageView"}},
                "message": {"type": "string", "example": "Conversation retrieved successfully"},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ConversationsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.ConversationSummary"}},
                "message": {"type": "string", "example": "Conversations retrieved successfully"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "One of the ErrCode* constants.", "type": "string", "example": "not_found"},
                "message": {"description": "Human-readable, safe to show to users.", "type": "string", "example": "message not found or already read"},
                "request_id": {"description": "Echo of X-Request-ID, for matching a client report to server logs.", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.MarkReadResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Conversation marked as read"},
                "modifiedCount": {"type": "integer", "example": 2}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.MessageView"},
                "message": {"type": "string", "example": "Message sent successfully"}
            }
        },
        "handlers.OnlineUsersResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "message": {"type": "string", "example": "Online users retrieved successfully"},
                "users": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "hasNext": {"type": "boolean"},
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "handlers.SendMessageRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string", "example": "See you at 6?"},
                "messageType": {"description": "MessageType is one of text, image, file; empty means text.", "type": "string", "example": "text"},
                "recipientId": {"type": "string", "example": "6650c1f4e13b2a0012345678"}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Message deleted successfully"}
            }
        },
        "handlers.UnreadCountResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Unread messages count retrieved successfully"},
                "unreadCount": {"type": "integer", "example": 3}
            }
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Current user retrieved successfully"},
                "user": {"$ref": "#/definitions/domain.UserInfo"}
            }
        },
        "handlers.UsersResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "message": {"type": "string", "example": "Users retrieved successfully"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/domain.UserInfo"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Direct Messaging API",
	Description:      "REST companion to the realtime websocket: history, inbox, read receipts, deletion, and the user directory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
