// Package swagger holds the OpenAPI document served at /swagger. It follows the layout
// swag emits and is kept in step with the handler annotations; regenerate it with
// go generate when swag is installed.
//
//go:generate swag init -g cmd/watch.go -d ../.. -o . --outputTypes go
package swagger

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
        "/check": {
            "get": {
                "description": "Compares the output tree against the main and channel trees and lists missing, stale and orphan entries.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "status"
                ],
                "summary": "Drift Check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/reconcile.Plan"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/journal": {
            "get": {
                "description": "Lists the most recent changes applied to the output tree, newest first.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "journal"
                ],
                "summary": "Recent Journal Entries",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Maximum entries (default 50, max 500)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/database.Entry"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/resolve": {
            "get": {
                "description": "Maps a path, absolute inside an input tree or relative to the tree roots, to its tiers and output location.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "status"
                ],
                "summary": "Resolve Path",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Path to resolve",
                        "name": "path",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/variant.Resolution"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/status": {
            "get": {
                "description": "Returns the configured roots, whether the watch is running, the last full sync and event counters.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "status"
                ],
                "summary": "Watch Status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/variant.Status"
                        }
                    }
                }
            }
        },
        "/sync": {
            "post": {
                "description": "Rebuilds the output tree from the main and channel trees. Concurrent requests share one run.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "status"
                ],
                "summary": "Force Full Sync",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/variant.SyncReport"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "database.Entry": {
            "type": "object",
            "properties": {
                "action": {
                    "type": "string"
                },
                "at": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "kind": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "rel": {
                    "type": "string"
                },
                "session": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "target": {
                    "type": "string"
                },
                "tier": {
                    "type": "string"
                }
            }
        },
        "fsutil.Stats": {
            "type": "object",
            "properties": {
                "dirs_created": {
                    "type": "integer"
                },
                "files_copied": {
                    "type": "integer"
                },
                "files_skipped": {
                    "type": "integer"
                },
                "removed": {
                    "type": "integer"
                }
            }
        },
        "reconcile.Action": {
            "type": "object",
            "properties": {
                "key": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                }
            }
        },
        "reconcile.Plan": {
            "type": "object",
            "properties": {
                "actions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/reconcile.Action"
                    }
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/reconcile.Result"
                    }
                },
                "summary": {
                    "$ref": "#/definitions/reconcile.PlanSummary"
                }
            }
        },
        "reconcile.PlanSummary": {
            "type": "object",
            "properties": {
                "missing": {
                    "type": "integer"
                },
                "orphans": {
                    "type": "integer"
                },
                "repair_actions": {
                    "type": "integer"
                },
                "stale": {
                    "type": "integer"
                },
                "total_items": {
                    "type": "integer"
                }
            }
        },
        "reconcile.Result": {
            "type": "object",
            "properties": {
                "channel_present": {
                    "type": "boolean"
                },
                "kind": {
                    "type": "string"
                },
                "main_present": {
                    "type": "boolean"
                },
                "mismatch": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "output_kind": {
                    "type": "string"
                },
                "output_present": {
                    "type": "boolean"
                },
                "rel": {
                    "type": "string"
                },
                "winner": {
                    "type": "string"
                }
            }
        },
        "variant.Outcome": {
            "type": "object",
            "properties": {
                "action": {
                    "type": "string"
                },
                "at": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "rel": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                },
                "target": {
                    "type": "string"
                },
                "tier": {
                    "type": "string"
                }
            }
        },
        "variant.Resolution": {
            "type": "object",
            "properties": {
                "channel": {
                    "type": "string"
                },
                "main": {
                    "type": "string"
                },
                "output": {
                    "type": "string"
                },
                "output_kind": {
                    "type": "string"
                },
                "rel": {
                    "type": "string"
                },
                "tier": {
                    "type": "string"
                },
                "winner": {
                    "type": "string"
                }
            }
        },
        "variant.Roots": {
            "type": "object",
            "properties": {
                "channel": {
                    "type": "string"
                },
                "main": {
                    "type": "string"
                },
                "output": {
                    "type": "string"
                }
            }
        },
        "variant.Status": {
            "type": "object",
            "properties": {
                "events": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "last_outcome": {
                    "$ref": "#/definitions/variant.Outcome"
                },
                "last_sync": {
                    "$ref": "#/definitions/variant.SyncReport"
                },
                "roots": {
                    "$ref": "#/definitions/variant.Roots"
                },
                "stats": {
                    "$ref": "#/definitions/fsutil.Stats"
                },
                "watching": {
                    "type": "boolean"
                }
            }
        },
        "variant.SyncReport": {
            "type": "object",
            "properties": {
                "clean": {
                    "type": "boolean"
                },
                "duration": {
                    "type": "integer"
                },
                "pruned": {
                    "type": "integer"
                },
                "roots": {
                    "$ref": "#/definitions/variant.Roots"
                },
                "stats": {
                    "$ref": "#/definitions/fsutil.Stats"
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
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
	Title:            "Variant Manager API",
	Description:      "Status API of the variant file manager watch.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
