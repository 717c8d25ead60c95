package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TMC Demo Review API",
        "description": "Two-stage demo submission review for the training management console",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Demos", "description": "Demo submission lifecycle"},
        {"name": "Worklists", "description": "Role-specific review queues"},
        {"name": "Exports", "description": "Review history exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/demos": {
            "post": {
                "tags": ["Demos"],
                "summary": "Submit a demo work sample",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid payload"}
                }
            },
            "get": {
                "tags": ["Demos"],
                "summary": "List the caller's own submissions",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/demos/{id}": {
            "get": {
                "tags": ["Demos"],
                "summary": "Fetch one demo with reviews and audit trail",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Demos"],
                "summary": "Withdraw an unreviewed submission",
                "responses": {
                    "204": {"description": "Withdrawn"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/demos/{id}/trainer-review": {
            "post": {
                "tags": ["Demos"],
                "summary": "Record the trainer verdict",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Transition not allowed"}
                }
            }
        },
        "/demos/{id}/master-review": {
            "post": {
                "tags": ["Demos"],
                "summary": "Record the master trainer verdict",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Transition not allowed"}
                }
            }
        },
        "/demos/{id}/content-link": {
            "get": {
                "tags": ["Demos"],
                "summary": "Issue a signed media view token",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/demos/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the review history as CSV or PDF",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/worklists/trainer": {
            "get": {
                "tags": ["Worklists"],
                "summary": "Pending submissions for the trainer",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/worklists/trainer/history": {
            "get": {
                "tags": ["Worklists"],
                "summary": "Submissions the trainer already reviewed",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/worklists/master": {
            "get": {
                "tags": ["Worklists"],
                "summary": "Trainer-approved submissions awaiting final verdict",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
